package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/logging"
	"github.com/flightdecklabs/flightdeck/memory"
	"github.com/flightdecklabs/flightdeck/model"
	"github.com/flightdecklabs/flightdeck/tool"
)

// DefaultMaxIterations bounds the reasoning loop when no ceiling is supplied.
const DefaultMaxIterations = 10

// eventBuffer sizes the per-invocation event channel. A small buffer keeps
// producers from blocking on every emission while consumption stays lazy.
const eventBuffer = 16

// Invoker is the common invocation contract shared by Agent and Supervisor,
// allowing a collaborator to be either. It is the sole public surface of the
// engine: transports and CLIs are thin adapters over Invoke.
type Invoker interface {
	// Name returns the invoker's identity.
	Name() string

	// Instruction returns the raw (untemplated) instruction text.
	Instruction() string

	// Invoke runs one bounded reasoning loop against the given session and
	// returns the lazy ordered event stream. The stream is finite and
	// terminates with exactly one completion or error event; the channel is
	// closed afterwards. Re-invoking re-reads persisted history and appends,
	// it never replays prior events.
	Invoke(ctx context.Context, sessionID, inputText string, optFns ...func(o *InvokeOptions)) <-chan core.Event
}

// Options configures an Agent instance.
type Options struct {
	// Template overrides the orchestration template (see DefaultTemplate).
	Template string
	// Store is the conversation store handle. Defaults to an in-memory store.
	Store memory.Store
	// MaxIterations caps loop turns per invocation. Defaults to
	// DefaultMaxIterations.
	MaxIterations int
	// Logger receives structured execution logs. Defaults to NoOp.
	Logger logging.Logger
	// Tools are registered at construction time.
	Tools []tool.Tool
}

// Agent runs the reasoning/acting loop against one language model client.
//
// All configuration is fixed at construction; invocation-scoped state lives
// on each Invoke call's stack, which is what makes a single Agent value safe
// for concurrent invocations across unrelated sessions.
type Agent struct {
	name          string
	instruction   string
	template      string
	client        model.Client
	store         memory.Store
	registry      *tool.Registry
	maxIterations int
	logger        logging.Logger

	// extraVars lets wrappers (Supervisor) inject additional template
	// variables such as $collaborators$.
	extraVars map[string]string
}

// New constructs an Agent with the given identity, instruction text and
// model client capability.
func New(name, instruction string, client model.Client, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Template:      DefaultTemplate,
		Store:         memory.NewInMemoryStore(),
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	for _, t := range opts.Tools {
		registry.Register(t)
	}

	return &Agent{
		name:          name,
		instruction:   instruction,
		template:      opts.Template,
		client:        client,
		store:         opts.Store,
		registry:      registry,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// Name implements Invoker.
func (a *Agent) Name() string { return a.name }

// Instruction implements Invoker.
func (a *Agent) Instruction() string { return a.instruction }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// RegisterTool adds a tool to the agent's registry; same-name registration
// replaces the previous tool.
func (a *Agent) RegisterTool(t tool.Tool) { a.registry.Register(t) }

// RegisterTools adds multiple tools at once.
func (a *Agent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.registry.Register(t)
	}
}

// Store returns the conversation store handle.
func (a *Agent) Store() memory.Store { return a.store }

// InvokeOptions configures a single invocation.
type InvokeOptions struct {
	// Stream requests token-level text events before each definitive model
	// result.
	Stream bool
	// MaxIterations overrides the agent's per-invocation ceiling when > 0.
	MaxIterations int
	// OutputSchema constrains the final response to a structural shape.
	OutputSchema *model.OutputSchema
}

// Invoke implements Invoker. The returned channel is closed once the
// invocation reaches a terminal state.
func (a *Agent) Invoke(ctx context.Context, sessionID, inputText string, optFns ...func(o *InvokeOptions)) <-chan core.Event {
	opts := InvokeOptions{MaxIterations: a.maxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = a.maxIterations
	}

	events := make(chan core.Event, eventBuffer)
	go func() {
		defer close(events)
		a.run(ctx, sessionID, inputText, opts, events)
	}()
	return events
}

// run drives one full invocation, emitting every step onto emit. It owns the
// loop's mutable state (iteration counter, per-turn snapshots) so concurrent
// invocations never share memory through the Agent.
func (a *Agent) run(ctx context.Context, sessionID, inputText string, opts InvokeOptions, emit chan<- core.Event) {
	invocationID := uuid.NewString()

	a.logger.Debug("agent.run.start",
		"agent", a.name,
		"session_id", sessionID,
		"invocation_id", invocationID,
	)

	send := func(ev core.Event) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case emit <- ev:
			return true
		}
	}
	fail := func(msg string, recoverable bool) {
		a.logger.Warn("agent.run.failed", "agent", a.name, "invocation_id", invocationID, "error", msg)
		send(core.ErrorEvent{Err: msg, Recoverable: recoverable})
	}

	if err := a.store.Append(ctx, sessionID, core.NewUserMessage(inputText)); err != nil {
		fail(fmt.Sprintf("failed to persist user message: %v", err), false)
		return
	}

	for iteration := 0; iteration < opts.MaxIterations; iteration++ {
		history, err := a.store.Read(ctx, sessionID)
		if err != nil {
			fail(fmt.Sprintf("failed to read session history: %v", err), false)
			return
		}

		req := model.Request{
			System:       a.renderInstruction(time.Now()),
			Messages:     history,
			Tools:        a.registry.Definitions(),
			Stream:       opts.Stream,
			OutputSchema: opts.OutputSchema,
		}

		resp, err := a.generate(ctx, req, send)
		if err != nil {
			fail(fmt.Sprintf("model call failed: %v", err), true)
			return
		}

		if resp.Thinking != "" {
			if !send(core.ThinkingEvent{Content: resp.Thinking}) {
				return
			}
		}

		if len(resp.ToolCalls) == 0 {
			if opts.OutputSchema != nil {
				if _, err := opts.OutputSchema.Parse(resp.Text, resp.Parsed); err != nil {
					fail(fmt.Sprintf("structured output violation: %v", err), false)
					return
				}
			}
			if err := a.store.Append(ctx, sessionID, core.NewAssistantMessage(resp.Text)); err != nil {
				fail(fmt.Sprintf("failed to persist assistant message: %v", err), false)
				return
			}

			a.logger.Info("agent.run.complete",
				"agent", a.name,
				"invocation_id", invocationID,
				"iterations", iteration+1,
			)
			send(core.CompletionEvent{Response: resp.Text})
			return
		}

		calls := resp.ToolCalls
		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = core.NewCallID()
			}
		}

		if err := a.store.Append(ctx, sessionID, core.NewToolCallMessage(resp.Text, calls)); err != nil {
			fail(fmt.Sprintf("failed to persist tool call message: %v", err), false)
			return
		}

		for _, call := range calls {
			if !send(core.ToolCallEvent{CallID: call.ID, ToolName: call.Name, Input: call.Input}) {
				return
			}
		}

		results, direct := a.executeToolTurn(ctx, sessionID, invocationID, calls, emit)

		if direct != nil {
			// The turn's tool results still have to answer their calls in
			// history; providers reject an assistant tool call that was
			// never resolved when the session is replayed.
			directMsgs := make([]core.Message, 0, len(results)+1)
			for _, result := range results {
				directMsgs = append(directMsgs, core.NewToolResultMessage(result.CallID, result.Text()))
			}
			directMsgs = append(directMsgs, core.NewAssistantMessage(*direct))
			if err := a.store.Append(ctx, sessionID, directMsgs...); err != nil {
				fail(fmt.Sprintf("failed to persist tool results: %v", err), false)
				return
			}

			a.logger.Info("agent.run.complete",
				"agent", a.name,
				"invocation_id", invocationID,
				"iterations", iteration+1,
				"direct_response", true,
			)
			send(core.CompletionEvent{Response: *direct})
			return
		}

		resultMsgs := make([]core.Message, 0, len(results))
		for _, result := range results {
			if !send(core.ToolResultEvent{CallID: result.CallID, Result: result.Value, Error: result.Error}) {
				return
			}
			resultMsgs = append(resultMsgs, core.NewToolResultMessage(result.CallID, result.Text()))
		}
		if err := a.store.Append(ctx, sessionID, resultMsgs...); err != nil {
			fail(fmt.Sprintf("failed to persist tool results: %v", err), false)
			return
		}
	}

	fail(fmt.Sprintf("max iterations reached (%d)", opts.MaxIterations), false)
}

// generate drains one model call, forwarding streamed tokens and returning
// the definitive response.
func (a *Agent) generate(ctx context.Context, req model.Request, send func(core.Event) bool) (model.Response, error) {
	start := time.Now()
	respCh, errCh := a.client.Generate(ctx, req)

	var final model.Response
	var settled bool

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return model.Response{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if req.Stream && resp.Token != "" {
					if !send(core.TextTokenEvent{Token: resp.Token}) {
						return model.Response{}, ctx.Err()
					}
				}
				continue
			}
			final = resp
			settled = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return model.Response{}, err
			}
		}
	}

	if !settled {
		return model.Response{}, fmt.Errorf("model client %s produced no response", a.client.Info().Provider)
	}

	a.logger.Debug("agent.model.call",
		"agent", a.name,
		"model", a.client.Info().Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"tool_calls", len(final.ToolCalls),
	)
	return final, nil
}

// executeToolTurn runs all calls of one model turn concurrently and waits for
// every one of them before returning (the turn barrier). Results come back in
// call order regardless of completion order. A non-nil direct return means a
// tool supplied the invocation's final response and the loop must terminate
// without another model call.
func (a *Agent) executeToolTurn(
	ctx context.Context,
	sessionID, invocationID string,
	calls []core.ToolCall,
	emit chan<- core.Event,
) ([]core.ToolResult, *string) {
	results := make([]core.ToolResult, len(calls))
	tctxs := make([]*core.ToolContext, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		tctx := core.NewToolContext(gctx, sessionID, invocationID, a.name, call.ID, emit, a.logger)
		tctxs[i] = tctx
		g.Go(func() error {
			results[i] = a.registry.Execute(tctx, call)
			return nil
		})
	}
	// Execute never returns an error; Wait is purely the barrier.
	_ = g.Wait()

	for _, tctx := range tctxs {
		if text, ok := tctx.DirectResponse(); ok {
			return results, &text
		}
	}
	return results, nil
}
