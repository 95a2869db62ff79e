// Package flightdeck provides a high-level façade over the agent execution
// engine. Most applications interact with it by:
//  1. Building an agent or supervisor with the agent package
//  2. Draining its event stream directly, or calling Run for the common
//     synchronous request-response pattern
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable conversation store (memory.RedisStore)
// and a structured logger (logging.New).
package flightdeck

import (
	"context"
	"fmt"

	"github.com/flightdecklabs/flightdeck/agent"
	"github.com/flightdecklabs/flightdeck/core"
)

// Result holds the outcome of a synchronous invocation: the final response
// text plus every event produced along the way, in emission order.
type Result struct {
	Response string
	Events   []core.Event
}

// InvocationError is the typed error Run returns for a failed invocation.
// Recoverable mirrors the terminating ErrorEvent: retrying the whole
// invocation may succeed for transient failures (model client errors) but
// not for contract violations or an exhausted iteration ceiling.
type InvocationError struct {
	Message     string
	Recoverable bool
}

// Error implements the error interface.
func (e *InvocationError) Error() string { return e.Message }

// Run invokes an agent and drains its event stream to completion. It returns
// the final response on success; any terminal ErrorEvent becomes the returned
// *InvocationError, with the events collected so far still available in the
// Result.
func Run(ctx context.Context, inv agent.Invoker, sessionID, inputText string, optFns ...func(o *agent.InvokeOptions)) (*Result, error) {
	res := &Result{}

	var terminal error
	for ev := range inv.Invoke(ctx, sessionID, inputText, optFns...) {
		res.Events = append(res.Events, ev)
		switch e := ev.(type) {
		case core.CompletionEvent:
			res.Response = e.Response
		case core.ErrorEvent:
			terminal = &InvocationError{Message: e.Err, Recoverable: e.Recoverable}
		}
	}

	if terminal != nil {
		return res, fmt.Errorf("agent %s: %w", inv.Name(), terminal)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
