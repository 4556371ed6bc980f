// Package input defines the event-source contract and the handle
// lifecycle that attaches a handler to a source.
//
// Event delivery runs on the source's goroutine and must never block:
// handlers are limited to non-blocking fast paths.
package input
