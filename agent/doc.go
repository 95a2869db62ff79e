// Package agent implements the reasoning/acting loop and multi-agent
// orchestration.
//
// An Agent owns instruction text, a tool registry, a model client handle, a
// conversation store handle and an iteration ceiling. Invoke drives the loop:
// ask the model for a decision, execute any requested tool calls concurrently,
// feed results back, repeat until a final response or the iteration ceiling.
// Every step surfaces as an ordered core.Event on the returned channel.
//
// A Supervisor composes an Agent with a registry of named collaborator
// Invokers and a collaboration mode. Its reserved delegate tool fans work out
// to collaborators, each running its own full loop against an isolated
// sub-session, and feeds their answers back for synthesis (supervisor mode)
// or passes a single answer through verbatim (router mode).
//
// Agents and Supervisors are constructed once and safely reused across
// concurrent invocations: all per-invocation state lives on the Invoke call's
// stack, never on the Agent value.
package agent
