package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using OpenAI chat completions with function tools.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI-backed completion client.
// baseURL is optional and lets the client target OpenAI-compatible gateways.
func NewOpenAIClient(apiKey string, model string, baseURL string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeoutOrDefault(timeout)}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

func (o *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	messages, err := toOpenAIMessages(req.Contents)
	if err != nil {
		return nil, err
	}

	// Parameters accepts any JSON-marshalable value, so the plain schema map works.
	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, decl := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  decl.Parameters.Map(),
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("openai API call: %w", err)
	}

	out := &Response{}
	for _, choice := range resp.Choices {
		out.Candidates = append(out.Candidates, Candidate{
			Content:      fromOpenAIMessage(choice.Message),
			FinishReason: string(choice.FinishReason),
		})
	}
	return out, nil
}

// toOpenAIMessages maps contents to chat messages. A function content becomes
// one "tool" message per response, correlated by call id.
func toOpenAIMessages(contents []Content) ([]openai.ChatCompletionMessage, error) {
	var messages []openai.ChatCompletionMessage
	for _, c := range contents {
		switch c.Role {
		case RoleModel:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
			for _, p := range c.Parts {
				if p.FunctionCall != nil {
					args, err := json.Marshal(p.FunctionCall.Args)
					if err != nil {
						return nil, fmt.Errorf("marshaling tool arguments: %w", err)
					}
					msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
						ID:   callID(p.FunctionCall.ID, p.FunctionCall.Name),
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      p.FunctionCall.Name,
							Arguments: string(args),
						},
					})
				} else if p.Text != "" {
					msg.Content += p.Text
				}
			}
			messages = append(messages, msg)
		case RoleFunction:
			for _, p := range c.Parts {
				if p.FunctionResponse == nil {
					continue
				}
				out, err := json.Marshal(p.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("marshaling tool result: %w", err)
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(out),
					Name:       p.FunctionResponse.Name,
					ToolCallID: callID(p.FunctionResponse.ID, p.FunctionResponse.Name),
				})
			}
		default:
			for _, p := range c.Parts {
				if p.Text != "" {
					messages = append(messages, openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleUser,
						Content: p.Text,
					})
				}
			}
		}
	}
	return messages, nil
}

// fromOpenAIMessage converts an assistant message back to a model content,
// tool calls first. A call whose arguments are not a JSON object is dropped,
// which leaves the caller with a malformed (partless) reply to handle.
func fromOpenAIMessage(msg openai.ChatCompletionMessage) *Content {
	content := &Content{Role: RoleModel}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				continue
			}
		}
		content.Parts = append(content.Parts, Part{FunctionCall: &FunctionCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		}})
	}
	if msg.Content != "" {
		content.Parts = append(content.Parts, Part{Text: msg.Content})
	}
	return content
}
