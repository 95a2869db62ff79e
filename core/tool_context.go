package core

import (
	"context"

	"github.com/flightdecklabs/flightdeck/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent loop. It carries invocation identity, allows emitting events
// into the invocation's stream (used by the built-in delegate tool to surface
// collaborator activity) and lets a tool short-circuit the loop by supplying
// the invocation's final response directly.
type ToolContext struct {
	ctx            context.Context
	sessionID      string
	invocationID   string
	agentName      string
	callID         string
	emit           chan<- Event
	logger         logging.Logger
	directResponse *string
}

// NewToolContext binds a tool execution to its invocation. emit may be nil
// for tools executed outside a running loop (tests, direct calls); Emit is
// then a no-op.
func NewToolContext(
	ctx context.Context,
	sessionID, invocationID, agentName, callID string,
	emit chan<- Event,
	logger logging.Logger,
) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{
		ctx:          ctx,
		sessionID:    sessionID,
		invocationID: invocationID,
		agentName:    agentName,
		callID:       callID,
		emit:         emit,
		logger:       logger,
	}
}

// Context returns the context governing the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// SessionID returns the session the invocation runs against.
func (tc *ToolContext) SessionID() string { return tc.sessionID }

// InvocationID returns the id correlating all activity of one Invoke call.
func (tc *ToolContext) InvocationID() string { return tc.invocationID }

// AgentName returns the name of the agent executing the tool.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// CallID returns the correlation id of the originating tool call.
func (tc *ToolContext) CallID() string { return tc.callID }

// Logger returns the invocation-scoped logger.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// Emit forwards an event into the invocation's stream, honoring context
// cancellation. Events emitted here keep their production order relative to
// other events emitted through the same ToolContext.
func (tc *ToolContext) Emit(ev Event) error {
	if tc.emit == nil {
		return nil
	}
	select {
	case <-tc.ctx.Done():
		return tc.ctx.Err()
	case tc.emit <- ev:
		return nil
	}
}

// SetDirectResponse marks the tool's textual result as the invocation's own
// final response. After the turn's barrier the loop emits a completion event
// with this text instead of calling the model again. Used by router-mode
// delegation to pass a collaborator's answer through verbatim.
func (tc *ToolContext) SetDirectResponse(text string) { tc.directResponse = &text }

// DirectResponse reports whether a direct response was set and its text.
func (tc *ToolContext) DirectResponse() (string, bool) {
	if tc.directResponse == nil {
		return "", false
	}
	return *tc.directResponse, true
}
