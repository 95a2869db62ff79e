package tool

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdecklabs/flightdeck/core"
)

func newTestToolContext() *core.ToolContext {
	return core.NewToolContext(context.Background(), "sess", "inv", "TestAgent", "call-1", nil, nil)
}

func sumTool() *FunctionTool {
	return NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func TestFunctionToolCall(t *testing.T) {
	result, err := sumTool().Call(newTestToolContext(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionToolValidation(t *testing.T) {
	_, err := sumTool().Call(newTestToolContext(), map[string]any{"a": 2.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.Equal(t, "calculate_sum", toolErr.Tool)
}

func TestFunctionToolExecutionError(t *testing.T) {
	failing := NewFunctionTool("fails", "always fails", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		})

	_, err := failing.Call(newTestToolContext(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "backend unavailable")
}

func TestFunctionToolErrorPassthrough(t *testing.T) {
	custom := NewToolError("custom", "rate limited", "RATE_LIMITED")
	failing := NewFunctionTool("custom", "returns a typed error", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return nil, custom
		})

	_, err := failing.Call(newTestToolContext(), map[string]any{})
	require.Same(t, custom, err)
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		City  string `json:"city"`
		Units string `json:"units" default:"celsius"`
	}
	tl := NewFunctionToolFromStruct("get_weather", "weather lookup", args{},
		func(_ *core.ToolContext, a map[string]any) (any, error) {
			return a["city"], nil
		})

	required, _ := tl.InputSchema()["required"].([]string)
	assert.Equal(t, []string{"city"}, required)

	_, err := tl.Call(newTestToolContext(), map[string]any{"units": "kelvin"})
	require.Error(t, err)

	result, err := tl.Call(newTestToolContext(), map[string]any{"city": "NYC"})
	require.NoError(t, err)
	assert.Equal(t, "NYC", result)
}

func TestRegistryRegisterAndOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(sumTool())
	r.RegisterFunc("get_time", "current time", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "12:00", nil })

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"calculate_sum", "get_time"}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "calculate_sum", defs[0].Name)
	assert.Equal(t, "get_time", defs[1].Name)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("echo", "v1", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "one", nil })
	r.RegisterFunc("echo", "v2", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "two", nil })

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"echo"}, r.Names())

	result := r.Execute(newTestToolContext(), core.ToolCall{ID: "c1", Name: "echo"})
	assert.Empty(t, result.Error)
	assert.Equal(t, "two", result.Value)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(newTestToolContext(), core.ToolCall{ID: "c1", Name: "missing"})

	assert.Equal(t, "c1", result.CallID)
	assert.Contains(t, result.Error, CodeUnknownTool)
}

func TestRegistryExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("explodes", "panics", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			panic("nil map write")
		})

	result := r.Execute(newTestToolContext(), core.ToolCall{ID: "c1", Name: "explodes"})
	assert.Contains(t, result.Error, "panicked")
	assert.Contains(t, result.Error, "nil map write")
	assert.Nil(t, result.Value)
}

func TestRegistryExecuteNilInput(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("noop", "no args", map[string]any{"type": "object"},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			require.NotNil(t, args)
			return "ok", nil
		})

	result := r.Execute(newTestToolContext(), core.ToolCall{ID: "c1", Name: "noop", Input: nil})
	assert.Empty(t, result.Error)
	assert.Equal(t, "ok", result.Value)
}
