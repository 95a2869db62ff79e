// Package core defines the shared data model of the engine: the event
// tagged union emitted during an invocation, conversation messages, tool
// call/result/definition types and the ToolContext handed to executing
// tools. Higher layers (tool, model, memory, agent) all speak in terms of
// these types so they remain decoupled from each other.
package core
