package config

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdecklabs/flightdeck/agent"
	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/model"
)

func mockResolver(clients map[string]*model.MockClient) ClientResolver {
	return func(name string) (model.Client, error) {
		c, ok := clients[name]
		if !ok {
			return nil, fmt.Errorf("no client registered for %q", name)
		}
		return c, nil
	}
}

func TestFactoryBuild(t *testing.T) {
	cfg, err := Load(strings.NewReader(teamYAML))
	require.NoError(t, err)

	clients := map[string]*model.MockClient{
		"fast":  model.NewMockClient(),
		"smart": model.NewMockClient(),
	}
	factory := NewFactory(mockResolver(clients))

	built, err := factory.Build(cfg)
	require.NoError(t, err)
	require.Len(t, built, 3)

	lead, ok := built["lead"].(*agent.Supervisor)
	require.True(t, ok, "lead should be a supervisor")
	assert.Equal(t, agent.ModeSupervisor, lead.Mode())
	assert.Equal(t, []string{"researcher", "writer"}, lead.Collaborators())

	_, ok = built["researcher"].(*agent.Agent)
	assert.True(t, ok, "researcher should be a plain agent")
}

func TestFactoryBuildRouterInvokes(t *testing.T) {
	yaml := `
agents:
  - name: billing
    instruction: You handle billing.
    model: fast
  - name: frontdesk
    instruction: You route requests.
    model: fast
    mode: router
    collaborators: [billing]
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	clients := map[string]*model.MockClient{
		"fast": model.NewMockClient(
			model.MockResponse{ToolCalls: []core.ToolCall{{
				ID:    "d1",
				Name:  agent.DelegateToolName,
				Input: map[string]any{"agent_name": "billing", "task": "refund"},
			}}},
			model.MockResponse{Text: "refund issued"},
		),
	}
	built, err := NewFactory(mockResolver(clients)).Build(cfg)
	require.NoError(t, err)

	frontdesk := built["frontdesk"]
	var final string
	for ev := range frontdesk.Invoke(context.Background(), "s1", "I want a refund") {
		if c, ok := ev.(core.CompletionEvent); ok {
			final = c.Response
		}
	}
	assert.Equal(t, "refund issued", final)
}

func TestFactoryBuildNestedSupervisors(t *testing.T) {
	// Declaration order does not constrain build order.
	yaml := `
agents:
  - name: top
    instruction: You run the org.
    model: fast
    collaborators: [mid]
  - name: mid
    instruction: You coordinate.
    model: fast
    mode: supervisor
    collaborators: [leaf]
  - name: leaf
    instruction: You answer.
    model: fast
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	clients := map[string]*model.MockClient{"fast": model.NewMockClient()}
	built, err := NewFactory(mockResolver(clients)).Build(cfg)
	require.NoError(t, err)

	top, ok := built["top"].(*agent.Supervisor)
	require.True(t, ok)
	assert.Equal(t, []string{"mid"}, top.Collaborators())
}

func TestFactoryResolverFailure(t *testing.T) {
	cfg, err := Load(strings.NewReader("agents:\n  - name: a\n    instruction: hi\n    model: missing\n"))
	require.NoError(t, err)

	_, err = NewFactory(mockResolver(map[string]*model.MockClient{})).Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `resolve model for agent "a"`)
}
