package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdecklabs/flightdeck/core"
)

// drain collects everything one Generate call produces.
func drain(respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	var responses []Response
	var err error
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, r)
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if e != nil {
				err = e
			}
		}
	}
	return responses, err
}

func TestMockClientReplaysInOrder(t *testing.T) {
	client := NewMockClient(
		MockResponse{Text: "first"},
		MockResponse{Text: "second"},
	)

	responses, err := drain(client.Generate(context.Background(), Request{}))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "first", responses[0].Text)
	assert.Equal(t, "end_turn", responses[0].StopReason)

	responses, err = drain(client.Generate(context.Background(), Request{}))
	require.NoError(t, err)
	assert.Equal(t, "second", responses[0].Text)

	assert.Equal(t, 2, client.Calls())
}

func TestMockClientExhausted(t *testing.T) {
	client := NewMockClient(MockResponse{Text: "only"})

	_, err := drain(client.Generate(context.Background(), Request{}))
	require.NoError(t, err)

	_, err = drain(client.Generate(context.Background(), Request{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripted response")
}

func TestMockClientScriptedError(t *testing.T) {
	boom := errors.New("rate limited")
	client := NewMockClient(MockResponse{Err: boom})

	responses, err := drain(client.Generate(context.Background(), Request{}))
	assert.Empty(t, responses)
	require.ErrorIs(t, err, boom)
}

func TestMockClientStreaming(t *testing.T) {
	client := NewMockClient(MockResponse{Text: "hello streaming world"})

	responses, err := drain(client.Generate(context.Background(), Request{Stream: true}))
	require.NoError(t, err)
	require.Len(t, responses, 4)

	var text string
	for _, r := range responses[:3] {
		assert.True(t, r.Partial)
		text += r.Token
	}
	assert.Equal(t, "hello streaming world", text)

	final := responses[3]
	assert.False(t, final.Partial)
	assert.Equal(t, "hello streaming world", final.Text)
}

func TestMockClientToolCallsSkipStreaming(t *testing.T) {
	client := NewMockClient(MockResponse{
		Text:      "checking",
		ToolCalls: []core.ToolCall{{ID: "c1", Name: "get_weather"}},
	})

	responses, err := drain(client.Generate(context.Background(), Request{Stream: true}))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "tool_use", responses[0].StopReason)
	require.Len(t, responses[0].ToolCalls, 1)
}

func TestOutputSchemaParse(t *testing.T) {
	s := NewOutputSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sentiment": map[string]any{"type": "string"},
			"score":     map[string]any{"type": "number"},
		},
		"required": []string{"sentiment"},
	})

	parsed, err := s.Parse(`{"sentiment":"positive","score":0.9}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "positive", parsed["sentiment"])

	_, err = s.Parse(`not json at all`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	_, err = s.Parse(`{"score":0.9}`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match output schema")

	// Pre-parsed output skips re-decoding.
	parsed, err = s.Parse("", map[string]any{"sentiment": "neutral"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", parsed["sentiment"])
}

func TestOutputSchemaFromStruct(t *testing.T) {
	type verdict struct {
		Sentiment string  `json:"sentiment"`
		Score     float64 `json:"score"`
	}
	s := OutputSchemaFromStruct(verdict{})

	_, err := s.Parse(`{"sentiment":"negative","score":0.1}`, nil)
	require.NoError(t, err)

	_, err = s.Parse(`{"sentiment":"negative"}`, nil)
	require.Error(t, err)
}
