package tool

import (
	"fmt"
	"time"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/internal/schema"
)

// HandlerFunc is the signature of a plain Go function exposed as a tool.
type HandlerFunc func(tctx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool adapts a plain Go function into a Tool. It validates incoming
// arguments against its declared schema before invoking the function and
// normalizes failures into *ToolError values with consistent codes
// (VALIDATION_ERROR for schema mismatches, EXECUTION_ERROR for handler
// failures; a *ToolError returned by the handler passes through unchanged).
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	inputSchema map[string]any
	fn          HandlerFunc
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
//
// Example:
//
//	sum := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ *core.ToolContext, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(name, description string, inputSchema map[string]any, fn HandlerFunc) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct's
// exported fields. Pointer fields, omitempty fields and fields with a
// `default` tag become optional; everything else is required.
//
//	type WeatherArgs struct {
//	  City  string `json:"city" description:"City name"`
//	  Units string `json:"units" default:"celsius"`
//	}
func NewFunctionToolFromStruct(name, description string, structType any, fn HandlerFunc) *FunctionTool {
	return NewFunctionTool(name, description, schema.FromStruct(structType), fn)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// InputSchema returns the JSON schema describing expected arguments.
func (t *FunctionTool) InputSchema() map[string]any { return t.inputSchema }

// Call validates args against the declared schema then invokes the wrapped
// function.
func (t *FunctionTool) Call(tctx *core.ToolContext, args map[string]any) (any, error) {
	logger := tctx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "call_id", tctx.CallID())

	if err := schema.Validate(args, t.inputSchema); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return nil, NewToolError(t.name, fmt.Sprintf("parameter validation failed: %v", err), CodeValidation)
	}

	result, err := t.fn(tctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		return nil, NewToolError(t.name, err.Error(), CodeExecution)
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
