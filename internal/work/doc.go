// Package work implements the shared deferred-work runner.
//
// Submission is non-blocking and safe from event-delivery goroutines;
// execution happens on a small pool of workers that are allowed to block.
// The runner does not deduplicate items: coalescing is the submitters'
// concern (see the pending flags in internal/radio).
package work
