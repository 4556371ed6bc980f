package radio

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is the per-radio debounced state holder. One Task exists per Type
// for the lifetime of the coordinator.
type Task struct {
	typ Type

	// mu is the debounce lock. It guards desired and last, and is never
	// held across a call that can block.
	mu      sync.Mutex
	desired State
	last    time.Time

	// serialize is held by a worker across the single backend call,
	// guaranteeing at most one in-flight invocation per task.
	serialize sync.Mutex

	// pending coalesces work submission: false->true on submit,
	// true->false at the start of execution, before desired is read.
	pending atomic.Bool
}

// NewTask creates a task for the given type. The initial desired state is
// On and the zero last-scheduled time guarantees the first event is never
// debounced away.
func NewTask(t Type) *Task {
	return &Task{
		typ:     t,
		desired: StateOn,
	}
}

// Type returns the radio type of the task.
func (t *Task) Type() Type {
	return t.typ
}

// Desired returns the current desired state.
func (t *Task) Desired() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.desired
}

// LastScheduled returns the time of the last accepted schedule.
func (t *Task) LastScheduled() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Pending reports whether a work item for this task is queued or running.
func (t *Task) Pending() bool {
	return t.pending.Load()
}

// GateSet runs the debounce fast path for an absolute state change. If
// now falls outside the debounce window it commits desired and last and
// returns true; otherwise the event is dropped and it returns false.
// Safe to call from event-delivery goroutines: the critical section never
// blocks.
func (t *Task) GateSet(desired State, now time.Time, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.last) < window {
		return false
	}
	t.desired = desired
	t.last = now
	return true
}

// GateToggle runs the debounce fast path for a toggle. The read and the
// write of desired happen inside the same critical section.
func (t *Task) GateToggle(now time.Time, window time.Duration) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.last) < window {
		return t.desired, false
	}
	t.desired = t.desired.Toggled()
	t.last = now
	return t.desired, true
}

// TryAcquirePending flips the coalescing flag false->true. The caller
// submits a work item only when this returns true; a pending item already
// covers the newly committed desired state otherwise.
func (t *Task) TryAcquirePending() bool {
	return t.pending.CompareAndSwap(false, true)
}

// BeginRun is called by a worker at the start of execution, before
// desired is read. It clears the coalescing flag so that a schedule
// arriving from here on submits a fresh work item.
func (t *Task) BeginRun() {
	t.pending.Store(false)
}

// Serialize returns the per-task serialization mutex. Worker context
// only; holders may block on the backend.
func (t *Task) Serialize() *sync.Mutex {
	return &t.serialize
}

// EPOTask is the singleton emergency-power-off work item holder.
type EPOTask struct {
	pending atomic.Bool
}

// NewEPOTask creates the EPO task.
func NewEPOTask() *EPOTask {
	return &EPOTask{}
}

// Pending reports whether an EPO work item is queued or running. Radio
// task fast paths read this as a best-effort early-out; the authoritative
// suppression is the backend EPO itself.
func (e *EPOTask) Pending() bool {
	return e.pending.Load()
}

// TryAcquirePending flips the coalescing flag false->true.
func (e *EPOTask) TryAcquirePending() bool {
	return e.pending.CompareAndSwap(false, true)
}

// Complete clears the pending flag. Unlike radio tasks this happens only
// after the backend EPO returns, keeping radio scheduling suppressed for
// the whole execution.
func (e *EPOTask) Complete() {
	e.pending.Store(false)
}
