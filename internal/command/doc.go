// Package command implements the rfkill coordinator and its event
// dispatcher.
//
// The coordinator bridges the non-blocking event fast path (debounce
// gates, coalesced work submission) with the slow worker-side backend
// calls, emits telemetry events, and writes audit records for every
// backend invocation.
package command
