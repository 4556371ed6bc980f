// Package fake provides a recording backend implementation for tests and
// for running the daemon without hardware.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/radio-control/rfkilld/internal/backend"
	"github.com/radio-control/rfkilld/internal/radio"
)

// Call records a single backend invocation.
type Call struct {
	EPO   bool
	Type  radio.Type
	State radio.State
}

// Backend implements backend.Backend, recording every call and tracking
// the resulting per-type states.
type Backend struct {
	mu     sync.Mutex
	calls  []Call
	states map[radio.Type]radio.State

	// Latency is applied inside every call before it records, letting
	// tests hold a call in flight.
	Latency time.Duration

	// Err, when set, is returned by every call after recording.
	Err error

	// active counts calls currently in flight per type, for overlap
	// detection in tests.
	active    map[radio.Type]int
	maxActive map[radio.Type]int
}

// New creates a fake backend with every radio on.
func New() *Backend {
	states := make(map[radio.Type]radio.State, len(radio.Types))
	for _, t := range radio.Types {
		states[t] = radio.StateOn
	}
	return &Backend{
		states:    states,
		active:    make(map[radio.Type]int),
		maxActive: make(map[radio.Type]int),
	}
}

// SetAll records the call and applies the state.
func (b *Backend) SetAll(ctx context.Context, t radio.Type, s radio.State) error {
	b.mu.Lock()
	b.active[t]++
	if b.active[t] > b.maxActive[t] {
		b.maxActive[t] = b.active[t]
	}
	latency := b.Latency
	b.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.active[t]--
	b.calls = append(b.calls, Call{Type: t, State: s})
	if b.Err != nil {
		return b.Err
	}
	b.states[t] = s
	return nil
}

// EPO records the call and forces every type off.
func (b *Backend) EPO(ctx context.Context) error {
	b.mu.Lock()
	latency := b.Latency
	b.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{EPO: true})
	if b.Err != nil {
		return b.Err
	}
	for _, t := range radio.Types {
		b.states[t] = radio.StateOff
	}
	return nil
}

// Calls returns a copy of the recorded call log.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// State returns the last applied state for a type.
func (b *Backend) State(t radio.Type) radio.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[t]
}

// MaxConcurrent returns the highest number of simultaneous SetAll calls
// observed for a type.
func (b *Backend) MaxConcurrent(t radio.Type) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxActive[t]
}

var _ backend.Backend = (*Backend)(nil)
