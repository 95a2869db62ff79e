package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flightdecklabs/flightdeck/core"
)

// MockResponse scripts one model turn for a MockClient. Err, when set, makes
// the turn fail instead of producing a response.
type MockResponse struct {
	Text      string
	ToolCalls []core.ToolCall
	Thinking  string
	Parsed    map[string]any
	Err       error
}

// MockClient replays scripted responses in order, one per Generate call. It
// mirrors real client behavior closely enough for loop tests: streaming
// requests yield word-level tokens before the final response, and running out
// of scripted responses is an error. Safe for concurrent use.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	next      int
}

// NewMockClient creates a MockClient replaying the given responses in order.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Calls returns how many Generate calls have been served so far.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	if m.next >= len(m.responses) {
		m.mu.Unlock()
		go func() {
			defer close(out)
			defer close(errCh)
			errCh <- fmt.Errorf("mock client: no scripted response for call %d", len(m.responses)+1)
		}()
		return out, errCh
	}
	scripted := m.responses[m.next]
	m.next++
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		if scripted.Err != nil {
			errCh <- scripted.Err
			return
		}

		if req.Stream && scripted.Text != "" && len(scripted.ToolCalls) == 0 {
			for i, word := range strings.Split(scripted.Text, " ") {
				token := word
				if i > 0 {
					token = " " + word
				}
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Partial: true, Token: token}:
				}
			}
		}

		stopReason := "end_turn"
		if len(scripted.ToolCalls) > 0 {
			stopReason = "tool_use"
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Response{
			Text:       scripted.Text,
			ToolCalls:  scripted.ToolCalls,
			Thinking:   scripted.Thinking,
			Parsed:     scripted.Parsed,
			StopReason: stopReason,
		}:
		}
	}()

	return out, errCh
}

// Info implements Client.
func (m *MockClient) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}
