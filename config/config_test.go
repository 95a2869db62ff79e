package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamYAML = `
agents:
  - name: researcher
    instruction: You research topics in depth.
    model: fast
  - name: writer
    instruction: You write clear prose.
    model: fast
    max_iterations: 5
  - name: lead
    instruction: You coordinate the team.
    model: smart
    mode: supervisor
    collaborators: [researcher, writer]
`

func TestLoad(t *testing.T) {
	cfg, err := Load(strings.NewReader(teamYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 3)

	assert.Equal(t, "researcher", cfg.Agents[0].Name)
	assert.Equal(t, "fast", cfg.Agents[0].Model)
	assert.Equal(t, 5, cfg.Agents[1].MaxIterations)

	lead := cfg.Agents[2]
	assert.Equal(t, "supervisor", lead.Mode)
	assert.Equal(t, []string{"researcher", "writer"}, lead.Collaborators)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing name",
			"agents:\n  - instruction: hi\n",
			"missing name",
		},
		{
			"missing instruction",
			"agents:\n  - name: a\n",
			"missing instruction",
		},
		{
			"duplicate name",
			"agents:\n  - name: a\n    instruction: hi\n  - name: a\n    instruction: hi\n",
			"duplicate agent name",
		},
		{
			"unknown mode",
			"agents:\n  - name: a\n    instruction: hi\n    mode: boss\n    collaborators: [b]\n  - name: b\n    instruction: hi\n",
			"unknown mode",
		},
		{
			"mode without collaborators",
			"agents:\n  - name: a\n    instruction: hi\n    mode: router\n",
			"without collaborators",
		},
		{
			"unknown collaborator",
			"agents:\n  - name: a\n    instruction: hi\n    collaborators: [ghost]\n",
			`unknown collaborator "ghost"`,
		},
		{
			"self reference",
			"agents:\n  - name: a\n    instruction: hi\n    collaborators: [a]\n",
			"references itself",
		},
		{
			"not yaml",
			"{{{",
			"parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
