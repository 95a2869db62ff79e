package core

import (
	"encoding/json"
	"fmt"
)

// ToolDefinition declaratively exposes a callable capability to the model.
// Definitions are created at agent construction time and immutable afterwards.
// InputSchema is a minimal JSON-Schema object (type/properties/required).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model. Input values are the
// decoded JSON arguments keyed by parameter name.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult is the outcome of executing one ToolCall. A non-empty Error
// marks a failure that was recovered locally; execution machinery never
// propagates tool failures as Go errors.
type ToolResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Text renders the result the way it is fed back to the model: the error
// description for failures, otherwise the value serialized to JSON (plain
// strings pass through unquoted).
func (r ToolResult) Text() string {
	if r.Error != "" {
		return r.Error
	}
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
