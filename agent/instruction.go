package agent

import (
	"strings"
	"time"
)

// DefaultTemplate is the orchestration template used when none is supplied.
// Recognized variables: $instruction$, $agent_name$, $current_datetime$ and
// $tools_summary$; Supervisors additionally resolve $collaborators$.
const DefaultTemplate = `$instruction$

You have access to tools to help answer the user's question.
Current date: $current_datetime$
`

// renderInstruction substitutes the recognized template variables into the
// agent's orchestration template. extra carries variables owned by wrappers
// (the Supervisor's $collaborators$ summary); it may be nil.
func (a *Agent) renderInstruction(now time.Time) string {
	toolsSummary := strings.Join(a.registry.Names(), ", ")
	if toolsSummary == "" {
		toolsSummary = "none"
	}

	pairs := []string{
		"$instruction$", a.instruction,
		"$agent_name$", a.name,
		"$current_datetime$", now.UTC().Format(time.RFC3339),
		"$tools_summary$", toolsSummary,
	}
	for k, v := range a.extraVars {
		pairs = append(pairs, k, v)
	}

	return strings.NewReplacer(pairs...).Replace(a.template)
}
