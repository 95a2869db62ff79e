package core

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Message is one entry of a session's ordered conversation history. Messages
// are created by the agent loop, appended to the conversation store and never
// mutated afterwards.
//
// Assistant messages that requested tools carry the requested ToolCalls next
// to (possibly empty) text content. Tool-result messages carry the serialized
// outcome in Content and reference the originating call via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant message with final response text.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolCallMessage creates the assistant message recording a batch of
// requested tool calls.
func NewToolCallMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolResultMessage creates the message feeding one tool outcome back to
// the model.
func NewToolResultMessage(callID, content string) Message {
	return Message{Role: RoleToolResult, Content: content, ToolCallID: callID}
}
