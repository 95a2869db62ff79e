package core

import "github.com/google/uuid"

// Event is the tagged union of everything an invocation can surface while it
// runs. Concrete event types implement the unexported isEvent marker so the
// set is closed within this package; consumers type-switch over the variants
// and must keep a default arm for kinds added in later versions.
//
// Events are immutable once emitted. Within a single agent loop they arrive
// strictly in production order. Events produced by different concurrently
// executing units (tool calls of one turn, collaborators of one delegation
// batch) may interleave with each other, but each unit's own events keep
// their internal order.
type Event interface {
	// Kind returns the stable discriminator string for this event variant.
	Kind() string
	isEvent()
}

// Event kind discriminators.
const (
	KindThinking             = "thinking"
	KindTextToken            = "text_token"
	KindToolCall             = "tool_call"
	KindToolResult           = "tool_result"
	KindCompletion           = "completion"
	KindError                = "error"
	KindRouting              = "routing"
	KindDelegation           = "delegation"
	KindCollaboratorStart    = "collaborator_start"
	KindCollaborator         = "collaborator"
	KindCollaboratorComplete = "collaborator_complete"
)

// ThinkingEvent carries extended reasoning text the model produced before
// answering.
type ThinkingEvent struct {
	Content string `json:"content"`
}

func (ThinkingEvent) Kind() string { return KindThinking }
func (ThinkingEvent) isEvent()     {}

// TextTokenEvent is a single streamed response fragment. Zero or more of
// these precede the definitive model result when streaming was requested.
type TextTokenEvent struct {
	Token string `json:"token"`
}

func (TextTokenEvent) Kind() string { return KindTextToken }
func (TextTokenEvent) isEvent()     {}

// ToolCallEvent announces that the model requested execution of a tool.
type ToolCallEvent struct {
	CallID   string         `json:"call_id"`
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input"`
}

func (ToolCallEvent) Kind() string { return KindToolCall }
func (ToolCallEvent) isEvent()     {}

// ToolResultEvent reports the outcome of a previously announced tool call.
// Exactly one of Result / Error is meaningful: a non-empty Error marks a
// failed execution that was recovered into conversational data.
type ToolResultEvent struct {
	CallID string `json:"call_id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (ToolResultEvent) Kind() string { return KindToolResult }
func (ToolResultEvent) isEvent()     {}

// CompletionEvent is the successful terminal event of an invocation carrying
// the agent's final response text.
type CompletionEvent struct {
	Response string `json:"response"`
}

func (CompletionEvent) Kind() string { return KindCompletion }
func (CompletionEvent) isEvent()     {}

// ErrorEvent is the failed terminal event of an invocation. Recoverable
// signals that retrying the whole invocation may succeed (transient model
// client failures); iteration-limit and contract violations are not
// recoverable.
type ErrorEvent struct {
	Err         string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

func (ErrorEvent) Kind() string { return KindError }
func (ErrorEvent) isEvent()     {}

// RoutingEvent signals that a router-mode supervisor handed the conversation
// to a single collaborator.
type RoutingEvent struct {
	AgentName string `json:"agent_name"`
	Task      string `json:"task"`
}

func (RoutingEvent) Kind() string { return KindRouting }
func (RoutingEvent) isEvent()     {}

// Delegation is one (collaborator, task) pair of a delegation batch.
type Delegation struct {
	AgentName string `json:"agent_name"`
	Task      string `json:"task"`
}

// DelegationEvent lists every target of a supervisor-mode delegation batch
// before any collaborator starts.
type DelegationEvent struct {
	Delegations []Delegation `json:"delegations"`
}

func (DelegationEvent) Kind() string { return KindDelegation }
func (DelegationEvent) isEvent()     {}

// CollaboratorStartEvent marks the begin of one collaborator's own loop.
type CollaboratorStartEvent struct {
	AgentName string `json:"agent_name"`
	Task      string `json:"task"`
}

func (CollaboratorStartEvent) Kind() string { return KindCollaboratorStart }
func (CollaboratorStartEvent) isEvent()     {}

// CollaboratorEvent wraps an event produced inside a collaborator's loop.
// Envelopes nest recursively when a collaborator is itself a supervisor.
type CollaboratorEvent struct {
	AgentName string `json:"agent_name"`
	Inner     Event  `json:"inner_event"`
}

func (CollaboratorEvent) Kind() string { return KindCollaborator }
func (CollaboratorEvent) isEvent()     {}

// CollaboratorCompleteEvent carries a collaborator's final response text once
// its loop reached a terminal state.
type CollaboratorCompleteEvent struct {
	AgentName string `json:"agent_name"`
	Response  string `json:"response"`
}

func (CollaboratorCompleteEvent) Kind() string { return KindCollaboratorComplete }
func (CollaboratorCompleteEvent) isEvent()     {}

// NewCallID generates a correlation id for tool calls that arrive from
// providers without one.
func NewCallID() string { return uuid.NewString() }
