// Package assistant turns one user question into one displayable answer,
// running at most one tool call between two completion rounds.
package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/llm"
	"github.com/fleveque/stock-assistant/internal/model"
	"github.com/fleveque/stock-assistant/internal/storage"
	"github.com/fleveque/stock-assistant/internal/tool"
)

// Replies for the failure paths. Every path through Respond ends in one of
// these or in model-written text.
const (
	MsgMissingCredential = "The language model API key is missing. Please provide it to use the assistant."
	MsgNoClearResponse   = "I couldn't get a clear response from the model. Please try again."
	MsgToolNoAnswer      = "I received data from the stock tool, but couldn't formulate a clear response."
	MsgUnexpected        = "An unexpected error occurred."
)

// ToolNotifier is called right before a tool runs, so a UI can show progress.
type ToolNotifier func(name string, args map[string]any)

// Assistant orchestrates completion calls and tool execution.
type Assistant struct {
	client      llm.Client
	tools       *tool.Registry
	instruction string
	logger      *zap.Logger
	notify      ToolNotifier
	llmCalls    storage.LLMCallRepository
	toolCalls   storage.ToolCallRepository
}

// Option configures an Assistant.
type Option func(*Assistant)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

func WithToolNotifier(fn ToolNotifier) Option {
	return func(a *Assistant) { a.notify = fn }
}

// WithLedger records every completion round and tool call. Either repository may be nil.
func WithLedger(llmCalls storage.LLMCallRepository, toolCalls storage.ToolCallRepository) Option {
	return func(a *Assistant) {
		a.llmCalls = llmCalls
		a.toolCalls = toolCalls
	}
}

// New creates an Assistant. A nil client means no credential was configured;
// Respond then answers with MsgMissingCredential without any network call.
func New(client llm.Client, tools *tool.Registry, instruction string, opts ...Option) *Assistant {
	a := &Assistant{
		client:      client,
		tools:       tools,
		instruction: instruction,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether a completion client is available.
func (a *Assistant) Configured() bool { return a.client != nil }

// Respond answers prompt. It never returns an empty string and never panics.
func (a *Assistant) Respond(ctx context.Context, prompt string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovered panic in turn", zap.Any("panic", r), zap.Stack("stack"))
			answer = MsgUnexpected
		}
	}()

	if a.client == nil {
		return MsgMissingCredential
	}

	decls := a.tools.Declarations()
	contents := []llm.Content{
		llm.UserText(a.instruction),
		llm.UserText(prompt),
	}

	resp, err := a.generate(ctx, 1, contents, decls)
	if err != nil {
		return a.transportFailure(err)
	}

	first := parseReply(resp)
	switch first.kind {
	case replyText:
		return first.text
	case replyUnrecognized:
		return MsgNoClearResponse
	}

	call := first.call
	if _, ok := a.tools.Get(call.Name); !ok {
		a.logger.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("The assistant tried to call an unknown function: %s", call.Name)
	}

	payload := a.runTool(ctx, call)

	contents = append(contents,
		llm.Content{Role: llm.RoleModel, Parts: []llm.Part{{FunctionCall: call}}},
		llm.Content{Role: llm.RoleFunction, Parts: []llm.Part{{FunctionResponse: &llm.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: payload,
		}}}},
	)

	resp, err = a.generate(ctx, 2, contents, decls)
	if err != nil {
		return a.transportFailure(err)
	}

	// A second tool request is not followed; one tool round per turn.
	if second := parseReply(resp); second.kind == replyText {
		return second.text
	}
	return MsgToolNoAnswer
}

func (a *Assistant) transportFailure(err error) string {
	return fmt.Sprintf("I'm currently unable to provide a response due to a technical issue: %v. Please ensure your API key is correct and has access to the '%s' model.",
		err, a.client.ModelName())
}

func (a *Assistant) generate(ctx context.Context, round int, contents []llm.Content, decls []llm.FunctionDeclaration) (*llm.Response, error) {
	start := time.Now()
	resp, err := a.client.Generate(ctx, &llm.Request{Contents: contents, Tools: decls})
	duration := time.Since(start).Milliseconds()

	if err != nil {
		a.logger.Error("completion call failed",
			zap.String("provider", a.client.ProviderName()),
			zap.Int("round", round),
			zap.Error(err),
		)
	}
	a.recordLLMCall(ctx, round, err, duration)
	return resp, err
}

func (a *Assistant) runTool(ctx context.Context, call *llm.FunctionCall) map[string]any {
	if a.notify != nil {
		a.notify(call.Name, call.Args)
	}

	start := time.Now()
	payload, err := a.tools.Call(ctx, call.Name, call.Args)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		a.logger.Error("tool call failed", zap.String("tool", call.Name), zap.Error(err))
		payload = map[string]any{"error": err.Error()}
	}

	_, failed := payload["error"]
	if failed {
		a.logger.Info("tool returned error payload",
			zap.String("tool", call.Name),
			zap.Any("error", payload["error"]),
		)
	}
	a.recordToolCall(ctx, call, !failed, duration)
	return payload
}

func (a *Assistant) recordLLMCall(ctx context.Context, round int, callErr error, durationMs int64) {
	if a.llmCalls == nil {
		return
	}
	call := &model.LLMCall{
		SessionID:  SessionID(ctx),
		Provider:   a.client.ProviderName(),
		Model:      a.client.ModelName(),
		Round:      round,
		Success:    callErr == nil,
		DurationMs: &durationMs,
	}
	if callErr != nil {
		msg := callErr.Error()
		call.ErrorMessage = &msg
	}
	// The turn's answer does not depend on the ledger; write failures are only logged.
	if err := a.llmCalls.Create(context.WithoutCancel(ctx), call); err != nil {
		a.logger.Error("recording LLM call", zap.Error(err))
	}
}

func (a *Assistant) recordToolCall(ctx context.Context, fc *llm.FunctionCall, success bool, durationMs int64) {
	if a.toolCalls == nil {
		return
	}
	call := &model.ToolCall{
		SessionID:  SessionID(ctx),
		Tool:       fc.Name,
		Ticker:     tool.Ticker(fc.Args),
		Success:    success,
		DurationMs: &durationMs,
	}
	if err := a.toolCalls.Create(context.WithoutCancel(ctx), call); err != nil {
		a.logger.Error("recording tool call", zap.Error(err))
	}
}
