// Package tool holds the locally-defined functions the model may invoke.
package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fleveque/stock-assistant/internal/llm"
)

// ErrUnknownTool is returned by Registry.Call for names that were never registered.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a function the model can call by name.
// Call returns the structured payload sent back to the model; failures the
// model should explain to the user belong in the payload, not in a Go error.
type Tool interface {
	Declaration() llm.FunctionDeclaration
	Call(ctx context.Context, args map[string]any) map[string]any
}

// Registry maps tool names to implementations and keeps registration order
// so the declarations sent to the model are stable.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be non-empty and unique.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Declaration().Name
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns every tool's declaration in registration order.
func (r *Registry) Declarations() []llm.FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]llm.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration())
	}
	return decls
}

// Call validates args against the tool's parameter schema and runs it.
// Invalid arguments produce an {"error": ...} payload without running the tool.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err := Validate(args, t.Declaration().Parameters); err != nil {
		return map[string]any{"error": fmt.Sprintf("Invalid arguments for %s: %v", name, err)}, nil
	}

	return t.Call(ctx, args), nil
}
