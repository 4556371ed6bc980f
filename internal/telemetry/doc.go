// Package telemetry implements the SSE event hub for the coordinator.
//
// The hub fans out coordinator events (state changes, EPO executions,
// heartbeats) to subscribed clients and keeps a per-radio replay buffer
// for reconnection via Last-Event-ID.
package telemetry
