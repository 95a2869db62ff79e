// Package memory provides conversation history storage for agent sessions.
// A Store persists the ordered, append-only message sequence of each session.
// InMemoryStore suits tests and single-process deployments; RedisStore works
// against any Redis-compatible service for durable, shared history.
package memory

import (
	"context"

	"github.com/flightdecklabs/flightdeck/core"
)

// Store persists per-session conversation history.
//
// Implementations must preserve insertion order: Read returns exactly the
// appended messages in append order, however often it is called. Concurrent
// operations against different session ids must not interfere; concurrent
// writers to the same session id are a caller responsibility.
type Store interface {
	// Append adds messages to the end of a session's history, creating the
	// session on first use.
	Append(ctx context.Context, sessionID string, msgs ...core.Message) error

	// Read returns the session's full ordered history. Unknown sessions
	// yield an empty slice, not an error.
	Read(ctx context.Context, sessionID string) ([]core.Message, error)

	// Clear removes all messages for a session.
	Clear(ctx context.Context, sessionID string) error
}
