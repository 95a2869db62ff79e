package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/model"
	"github.com/flightdecklabs/flightdeck/tool"
)

func TestRenderInstructionDefaults(t *testing.T) {
	a := New("Helper", "You are a helpful assistant.", model.NewMockClient())

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	rendered := a.renderInstruction(now)

	assert.Contains(t, rendered, "You are a helpful assistant.")
	assert.Contains(t, rendered, "2025-03-14T09:26:53Z")
	assert.NotContains(t, rendered, "$instruction$")
	assert.NotContains(t, rendered, "$current_datetime$")
}

func TestRenderInstructionCustomTemplate(t *testing.T) {
	a := New("Helper", "Be brief.", model.NewMockClient(), func(o *Options) {
		o.Template = "Agent $agent_name$: $instruction$ Tools: $tools_summary$"
	})

	rendered := a.renderInstruction(time.Now())
	assert.Equal(t, "Agent Helper: Be brief. Tools: none", rendered)
}

func TestRenderInstructionToolsSummary(t *testing.T) {
	a := New("Helper", "Be brief.", model.NewMockClient(), func(o *Options) {
		o.Template = "Tools: $tools_summary$"
	})
	a.RegisterTool(tool.NewFunctionTool("get_weather", "", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil }))
	a.RegisterTool(tool.NewFunctionTool("get_time", "", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil }))

	assert.Equal(t, "Tools: get_weather, get_time", a.renderInstruction(time.Now()))
}

func TestRenderInstructionExtraVars(t *testing.T) {
	a := New("Lead", "Coordinate.", model.NewMockClient(), func(o *Options) {
		o.Template = "Team:\n$collaborators$"
	})
	a.extraVars = map[string]string{"$collaborators$": "- Researcher: finds things"}

	assert.Equal(t, "Team:\n- Researcher: finds things", a.renderInstruction(time.Now()))
}
