// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side effects) with
// schema validated arguments and uniform error handling. A Registry holds the
// named tools of one agent; execution converts every failure mode (unknown
// tool, invalid arguments, handler error, handler panic) into an
// error-carrying result instead of propagating.
package tool

import (
	"fmt"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/internal/schema"
)

// Tool is a named, schema-described capability an agent may invoke.
//
// Implementations should provide descriptive names (snake_case recommended),
// define a minimal JSON schema for their arguments and be safe for concurrent
// use: all calls requested in one model turn execute concurrently.
type Tool interface {
	// Name returns the unique identifier for this tool within a registry.
	Name() string

	// Description returns the natural language description shown to models.
	Description() string

	// InputSchema returns the JSON schema describing accepted arguments.
	InputSchema() map[string]any

	// Call executes the tool with already validated arguments.
	Call(tctx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError re-exports the schema package's validation error type.
type ValidationError = schema.ValidationError

// Error codes attached to ToolError for categorization.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// ToolError describes a failed tool execution with a stable code.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
