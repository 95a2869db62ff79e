package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/logging"
	"github.com/flightdecklabs/flightdeck/memory"
	"github.com/flightdecklabs/flightdeck/model"
	"github.com/flightdecklabs/flightdeck/tool"
)

// Mode selects how a Supervisor uses its collaborators.
type Mode string

// Collaboration modes.
const (
	// ModeSupervisor honors every delegation entry, runs collaborators
	// concurrently and synthesizes their answers with a further model call.
	ModeSupervisor Mode = "supervisor"
	// ModeRouter honors only the first delegation entry and passes its
	// collaborator's answer through verbatim without synthesis.
	ModeRouter Mode = "router"
)

// DelegateToolName is the reserved tool a Supervisor's model uses to hand
// work to collaborators.
const DelegateToolName = "delegate"

// SupervisorTemplate is the default orchestration template in supervisor mode.
const SupervisorTemplate = `$instruction$

You coordinate a team of collaborator agents. Use the delegate tool to assign
them tasks (several at once for independent work), then synthesize their
findings into a final answer.

Your collaborators:
$collaborators$

Current date: $current_datetime$
`

// RouterTemplate is the default orchestration template in router mode.
const RouterTemplate = `$instruction$

You route each request to the single best-suited collaborator agent. Call the
delegate tool with exactly one delegation; the collaborator's answer is
returned to the user as-is.

Your collaborators:
$collaborators$

Current date: $current_datetime$
`

// SupervisorOptions configures a Supervisor instance.
type SupervisorOptions struct {
	// Mode selects the collaboration behavior. Defaults to ModeSupervisor.
	Mode Mode
	// Template overrides the mode's default orchestration template.
	Template string
	// Store is the supervisor's own conversation store handle.
	Store memory.Store
	// MaxIterations caps the supervisor's own loop turns per invocation.
	MaxIterations int
	// Logger receives structured execution logs.
	Logger logging.Logger
	// Tools are additional tools beside the reserved delegate tool.
	Tools []tool.Tool
}

// Supervisor coordinates named collaborator Invokers under one supervising
// agent. It composes (rather than extends) an Agent: the inner agent runs the
// ordinary reasoning loop while the Supervisor contributes the collaborator
// registry and the reserved delegate tool that fans work out.
//
// Collaborators run against isolated sub-sessions keyed
// "{parent-session}:{collaborator-name}"; only their final text re-enters the
// supervisor's session, as delegate tool-result content.
type Supervisor struct {
	agent         *Agent
	mode          Mode
	collaborators map[string]Invoker
	order         []string
	logger        logging.Logger
}

// NewSupervisor constructs a Supervisor over the given collaborators. A
// collaborator may itself be a Supervisor; envelopes nest recursively and
// no depth ceiling is enforced.
func NewSupervisor(name, instruction string, client model.Client, collaborators []Invoker, optFns ...func(o *SupervisorOptions)) *Supervisor {
	opts := SupervisorOptions{
		Mode:          ModeSupervisor,
		Store:         memory.NewInMemoryStore(),
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Template == "" {
		if opts.Mode == ModeRouter {
			opts.Template = RouterTemplate
		} else {
			opts.Template = SupervisorTemplate
		}
	}

	s := &Supervisor{
		mode:          opts.Mode,
		collaborators: make(map[string]Invoker, len(collaborators)),
		logger:        opts.Logger,
	}
	for _, c := range collaborators {
		if _, exists := s.collaborators[c.Name()]; !exists {
			s.order = append(s.order, c.Name())
		}
		s.collaborators[c.Name()] = c
	}

	s.agent = New(name, instruction, client, func(o *Options) {
		o.Template = opts.Template
		o.Store = opts.Store
		o.MaxIterations = opts.MaxIterations
		o.Logger = opts.Logger
		o.Tools = opts.Tools
	})
	s.agent.extraVars = map[string]string{"$collaborators$": s.collaboratorSummary()}
	s.agent.RegisterTool(tool.NewFunctionTool(
		DelegateToolName,
		"Delegate a task to a collaborator agent. Pass agent_name and task for "+
			"a single delegation, or a delegations list to run several "+
			"collaborators in parallel.",
		delegateSchema(),
		s.handleDelegate,
	))

	return s
}

// Name implements Invoker.
func (s *Supervisor) Name() string { return s.agent.Name() }

// Instruction implements Invoker.
func (s *Supervisor) Instruction() string { return s.agent.Instruction() }

// Mode returns the collaboration mode.
func (s *Supervisor) Mode() Mode { return s.mode }

// Collaborators returns collaborator names in registration order.
func (s *Supervisor) Collaborators() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Registry returns the underlying agent's tool registry (including the
// reserved delegate tool).
func (s *Supervisor) Registry() *tool.Registry { return s.agent.Registry() }

// RegisterTool adds a tool to the supervising agent itself.
func (s *Supervisor) RegisterTool(t tool.Tool) { s.agent.RegisterTool(t) }

// Invoke implements Invoker by running the inner agent's loop; delegation
// happens through the reserved tool when the model requests it.
func (s *Supervisor) Invoke(ctx context.Context, sessionID, inputText string, optFns ...func(o *InvokeOptions)) <-chan core.Event {
	return s.agent.Invoke(ctx, sessionID, inputText, optFns...)
}

func (s *Supervisor) collaboratorSummary() string {
	if len(s.order) == 0 {
		return "none"
	}
	var b strings.Builder
	for i, name := range s.order {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", name, s.collaborators[name].Instruction())
	}
	return b.String()
}

func delegateSchema() map[string]any {
	pair := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Name of the collaborator agent",
			},
			"task": map[string]any{
				"type":        "string",
				"description": "Task for the collaborator to perform",
			},
		},
		"required": []string{"agent_name", "task"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Name of the collaborator agent (single delegation)",
			},
			"task": map[string]any{
				"type":        "string",
				"description": "Task for the collaborator to perform (single delegation)",
			},
			"delegations": map[string]any{
				"type":        "array",
				"description": "Multiple delegations to run in parallel",
				"items":       pair,
			},
		},
	}
}

// handleDelegate is the reserved delegate tool's handler. Failures it returns
// become error-carrying tool results fed back to the supervising model, never
// crashes.
func (s *Supervisor) handleDelegate(tctx *core.ToolContext, args map[string]any) (any, error) {
	delegations := parseDelegations(args)
	if len(delegations) == 0 {
		return nil, fmt.Errorf("delegate requires agent_name and task, or a delegations list")
	}

	if s.mode == ModeRouter {
		return s.route(tctx, delegations[0])
	}
	return s.delegateAll(tctx, delegations)
}

// route honors only the first delegation entry: the collaborator's final text
// becomes the supervisor's own final response, with no further model call.
func (s *Supervisor) route(tctx *core.ToolContext, d core.Delegation) (any, error) {
	collab, ok := s.collaborators[d.AgentName]
	if !ok {
		return nil, fmt.Errorf("Unknown agent '%s'", d.AgentName)
	}

	s.logger.Info("supervisor.route",
		"supervisor", s.Name(),
		"collaborator", d.AgentName,
	)
	if err := tctx.Emit(core.RoutingEvent{AgentName: d.AgentName, Task: d.Task}); err != nil {
		return nil, err
	}

	final := s.runCollaborator(tctx, collab, d)
	tctx.SetDirectResponse(final)
	return final, nil
}

// delegateAll honors every entry, running collaborators concurrently against
// isolated sub-sessions and waiting for the whole batch before returning the
// aggregated results. Unknown names fail only their own entry.
func (s *Supervisor) delegateAll(tctx *core.ToolContext, delegations []core.Delegation) (any, error) {
	if len(delegations) == 1 {
		if _, ok := s.collaborators[delegations[0].AgentName]; !ok {
			return nil, fmt.Errorf("Unknown agent '%s'", delegations[0].AgentName)
		}
	}

	s.logger.Info("supervisor.delegate",
		"supervisor", s.Name(),
		"batch_size", len(delegations),
	)
	if err := tctx.Emit(core.DelegationEvent{Delegations: delegations}); err != nil {
		return nil, err
	}

	results := make([]string, len(delegations))
	var g errgroup.Group
	for i, d := range delegations {
		collab, ok := s.collaborators[d.AgentName]
		if !ok {
			results[i] = fmt.Sprintf("[%s] Error: Unknown agent '%s'", d.AgentName, d.AgentName)
			continue
		}
		g.Go(func() error {
			results[i] = fmt.Sprintf("[%s] %s", d.AgentName, s.runCollaborator(tctx, collab, d))
			return nil
		})
	}
	// Collaborator failures surface in their result text; Wait is the batch
	// barrier.
	_ = g.Wait()

	return strings.Join(results, "\n\n"), nil
}

// runCollaborator executes one collaborator's full loop on its isolated
// sub-session, wrapping every inner event in a collaborator envelope as it is
// produced, and returns the collaborator's final text (or an error
// description when its loop failed).
func (s *Supervisor) runCollaborator(tctx *core.ToolContext, collab Invoker, d core.Delegation) string {
	subSession := tctx.SessionID() + ":" + collab.Name()

	if err := tctx.Emit(core.CollaboratorStartEvent{AgentName: collab.Name(), Task: d.Task}); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	final := ""
	for ev := range collab.Invoke(tctx.Context(), subSession, d.Task) {
		if err := tctx.Emit(core.CollaboratorEvent{AgentName: collab.Name(), Inner: ev}); err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		switch e := ev.(type) {
		case core.CompletionEvent:
			final = e.Response
		case core.ErrorEvent:
			final = "Error: " + e.Err
		}
	}

	s.logger.Info("supervisor.collaborator.done",
		"supervisor", s.Name(),
		"collaborator", collab.Name(),
		"session_id", subSession,
	)
	_ = tctx.Emit(core.CollaboratorCompleteEvent{AgentName: collab.Name(), Response: final})
	return final
}

// parseDelegations accepts both delegate argument shapes: a delegations list,
// or a single agent_name/task pair.
func parseDelegations(args map[string]any) []core.Delegation {
	var out []core.Delegation

	if raw, ok := args["delegations"].([]any); ok {
		for _, item := range raw {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := entry["agent_name"].(string)
			task, _ := entry["task"].(string)
			if name != "" {
				out = append(out, core.Delegation{AgentName: name, Task: task})
			}
		}
	}

	if len(out) == 0 {
		name, _ := args["agent_name"].(string)
		task, _ := args["task"].(string)
		if name != "" {
			out = append(out, core.Delegation{AgentName: name, Task: task})
		}
	}

	return out
}
