package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using Claude's tool use.
// Contents are translated to Messages API turns: "model" becomes "assistant",
// "function" becomes a user turn carrying a tool_result block.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a new Claude-backed completion client.
// The SDK retries by default; retries are switched off so one Generate is one API call.
// An empty baseURL keeps the SDK default.
func NewAnthropicClient(apiKey, model, baseURL string, maxTokens int64, timeout time.Duration) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeoutOrDefault(timeout)),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

func (a *AnthropicClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	messages, err := toAnthropicMessages(req.Contents)
	if err != nil {
		return nil, err
	}

	tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
	for _, decl := range req.Tools {
		tool := anthropic.ToolParam{
			Name:        decl.Name,
			Description: param.NewOpt(decl.Description),
		}
		if decl.Parameters != nil {
			tool.InputSchema = anthropic.ToolInputSchemaParam{
				Properties: decl.Parameters.Map()["properties"],
				Required:   decl.Parameters.Required,
			}
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  messages,
		Tools:     tools,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Tool calls go first so parts[0] is the invocation whenever Claude asked
	// for one, even if it also wrote some text before it.
	var calls, texts []Part
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					continue // not an object; treated as a malformed reply
				}
			}
			calls = append(calls, Part{FunctionCall: &FunctionCall{ID: b.ID, Name: b.Name, Args: args}})
		case anthropic.TextBlock:
			if b.Text != "" {
				texts = append(texts, Part{Text: b.Text})
			}
		}
	}

	return &Response{Candidates: []Candidate{{
		Content:      &Content{Role: RoleModel, Parts: append(calls, texts...)},
		FinishReason: string(message.StopReason),
	}}}, nil
}

// toAnthropicMessages maps contents to Messages API turns. Consecutive
// entries with the same Anthropic role are merged into one turn.
func toAnthropicMessages(contents []Content) ([]anthropic.MessageParam, error) {
	type turn struct {
		assistant bool
		blocks    []anthropic.ContentBlockParamUnion
	}
	var turns []turn

	for _, c := range contents {
		assistant := c.Role == RoleModel
		var blocks []anthropic.ContentBlockParamUnion
		for _, p := range c.Parts {
			switch {
			case p.FunctionCall != nil:
				blocks = append(blocks, anthropic.NewToolUseBlock(callID(p.FunctionCall.ID, p.FunctionCall.Name), p.FunctionCall.Args, p.FunctionCall.Name))
			case p.FunctionResponse != nil:
				out, err := json.Marshal(p.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("marshaling tool result: %w", err)
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(callID(p.FunctionResponse.ID, p.FunctionResponse.Name), string(out), false))
			case p.Text != "":
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].blocks = append(turns[n-1].blocks, blocks...)
			continue
		}
		turns = append(turns, turn{assistant: assistant, blocks: blocks})
	}

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		if t.assistant {
			messages = append(messages, anthropic.NewAssistantMessage(t.blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(t.blocks...))
		}
	}
	return messages, nil
}

// callID returns id, or a stable stand-in derived from the tool name when a
// call arrived without one (Gemini does not always send ids).
func callID(id, name string) string {
	if id != "" {
		return id
	}
	return "call_" + name
}
