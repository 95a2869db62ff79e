// Package model defines the provider-agnostic abstraction for language model
// clients plus the normalized request/response shapes the agent loop speaks.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool calling (core.ToolDefinition, core.ToolCall) across vendors
//   - Support optional structured output constraints
//   - Facilitate lightweight mocking for tests (MockClient)
//
// Providers (model/anthropic, model/openai) implement Client so the agent
// layer stays decoupled from vendor SDKs.
package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/internal/schema"
)

// Request captures one normalized model call produced by the agent loop.
type Request struct {
	// System is the rendered orchestration instruction.
	System string
	// Messages is the full ordered conversation history of the session.
	Messages []core.Message
	// Tools declares the callable capabilities available this turn.
	Tools []core.ToolDefinition
	// Stream requests token-level partial responses before the final result.
	Stream bool
	// OutputSchema, when set, constrains the final response text to parse
	// into the given structural shape.
	OutputSchema *OutputSchema
}

// Response is a partial or final result emitted by a Client. Partial
// responses carry a single Token; the final response carries the definitive
// Text, Thinking and ToolCalls.
type Response struct {
	Partial    bool
	Token      string
	Text       string
	Thinking   string
	ToolCalls  []core.ToolCall
	StopReason string
	// Parsed holds the decoded structured output when the request declared
	// an OutputSchema and the provider returned it pre-parsed.
	Parsed map[string]any
}

// Info describes a Client implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Client is the capability interface the agent loop consumes to drive
// generation. Generate returns a response channel and an error channel; the
// response channel yields zero or more partial responses (when streaming was
// requested) followed by exactly one final response, then closes. A value on
// the error channel terminates the call.
type Client interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns metadata about the client implementation.
	Info() Info
}

// OutputSchema is a structural constraint on the final response text.
type OutputSchema struct {
	Schema map[string]any
}

// NewOutputSchema wraps a JSON schema map as an output constraint.
func NewOutputSchema(s map[string]any) *OutputSchema { return &OutputSchema{Schema: s} }

// OutputSchemaFromStruct derives the constraint schema from a Go struct.
func OutputSchemaFromStruct(structType any) *OutputSchema {
	return &OutputSchema{Schema: schema.FromStruct(structType)}
}

// Parse checks that text satisfies the schema and returns the decoded value.
// It accepts pre-parsed output (from providers with native structured output
// support) without re-decoding.
func (s *OutputSchema) Parse(text string, parsed map[string]any) (map[string]any, error) {
	if parsed == nil {
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil, fmt.Errorf("response is not valid JSON: %w", err)
		}
	}
	if err := schema.Validate(parsed, s.Schema); err != nil {
		return nil, fmt.Errorf("response does not match output schema: %w", err)
	}
	return parsed, nil
}
