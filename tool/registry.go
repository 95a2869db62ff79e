package tool

import (
	"fmt"
	"sync"

	"github.com/flightdecklabs/flightdeck/core"
)

// Registry holds the named tools of one agent and executes model-requested
// calls against them. Registration is last-write-wins: re-registering an
// existing name replaces the previous tool without error. Execute never
// returns a Go error; every failure becomes an error-carrying ToolResult so
// the model can self-correct.
//
// A Registry is safe for concurrent use; in practice it is populated at agent
// construction time and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// RegisterFunc is shorthand for registering a FunctionTool built from an
// explicit schema and handler.
func (r *Registry) RegisterFunc(name, description string, inputSchema map[string]any, fn HandlerFunc) {
	r.Register(NewFunctionTool(name, description, inputSchema, fn))
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns the tool definitions exposed to the model, in
// registration order.
func (r *Registry) Definitions() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]core.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, core.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Execute runs one requested call to completion. Unknown tool names, argument
// validation failures, handler errors and handler panics all surface as the
// Error field of the returned ToolResult, never as a Go error or panic.
func (r *Registry) Execute(tctx *core.ToolContext, call core.ToolCall) (result core.ToolResult) {
	result = core.ToolResult{CallID: call.ID, Name: call.Name}

	defer func() {
		if rec := recover(); rec != nil {
			result.Value = nil
			result.Error = fmt.Sprintf("tool %s panicked: %v", call.Name, rec)
		}
	}()

	t, ok := r.Get(call.Name)
	if !ok {
		result.Error = NewToolError(call.Name, "tool not registered", CodeUnknownTool).Error()
		return result
	}

	args := call.Input
	if args == nil {
		args = map[string]any{}
	}

	value, err := t.Call(tctx, args)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Value = value
	return result
}
