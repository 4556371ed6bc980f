package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rfkilld/internal/backend/fake"
	"github.com/radio-control/rfkilld/internal/radio"
	"github.com/radio-control/rfkilld/internal/work"
)

// fakeClock drives the debounce gates deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	backend *fake.Backend
	clock   *fakeClock
	runner  *work.Runner
	coord   *Coordinator
}

func newFixture(t *testing.T, workers int, window time.Duration) *fixture {
	t.Helper()

	be := fake.New()
	clock := newFakeClock()
	runner := work.NewRunner(context.Background(), workers)
	t.Cleanup(runner.Close)

	coord := NewCoordinator(be, runner, window, zerolog.Nop(), WithClock(clock.Now))
	return &fixture{backend: be, clock: clock, runner: runner, coord: coord}
}

const window = 200 * time.Millisecond

func TestSimpleToggle(t *testing.T) {
	f := newFixture(t, 1, window)

	// Initial state on; first press turns the radio off.
	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, radio.TypeWLAN, calls[0].Type)
	assert.Equal(t, radio.StateOff, calls[0].State)
	assert.Equal(t, radio.StateOff, f.coord.Task(radio.TypeWLAN).Desired())

	// A second press past the debounce window turns it back on.
	f.clock.Advance(250 * time.Millisecond)
	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()

	calls = f.backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, radio.StateOn, calls[1].State)
}

func TestDebounceDrop(t *testing.T) {
	f := newFixture(t, 1, window)

	f.coord.ScheduleToggle(radio.TypeBluetooth)
	f.clock.Advance(100 * time.Millisecond)
	f.coord.ScheduleToggle(radio.TypeBluetooth)
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 1, "second toggle inside the window must be dropped, not queued")
	assert.Equal(t, radio.StateOff, calls[0].State)
	assert.Equal(t, radio.StateOff, f.coord.Task(radio.TypeBluetooth).Desired())
}

func TestToggleParitySequence(t *testing.T) {
	f := newFixture(t, 1, window)

	const n = 6
	for i := 0; i < n; i++ {
		f.coord.ScheduleToggle(radio.TypeUWB)
		f.coord.Drain()
		f.clock.Advance(window + time.Millisecond)
	}

	calls := f.backend.Calls()
	require.Len(t, calls, n)
	want := radio.StateOff
	for i, call := range calls {
		assert.Equal(t, want, call.State, "call %d", i)
		want = want.Toggled()
	}
}

func TestEPOPreemptsScheduling(t *testing.T) {
	f := newFixture(t, 1, window)
	f.backend.Latency = 50 * time.Millisecond

	f.coord.ScheduleEPO()
	require.True(t, f.coord.EPOPending())

	// A toggle while the EPO is pending must not submit a work item.
	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].EPO)
	assert.False(t, f.coord.Task(radio.TypeWLAN).Pending())

	// Normal operation resumes after completion.
	assert.False(t, f.coord.EPOPending())
	f.backend.Latency = 0
	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()
	require.Len(t, f.backend.Calls(), 2)
}

func TestEPOCoalesces(t *testing.T) {
	f := newFixture(t, 1, window)
	f.backend.Latency = 30 * time.Millisecond

	f.coord.ScheduleEPO()
	f.coord.ScheduleEPO()
	f.coord.ScheduleEPO()
	f.coord.Drain()

	assert.Len(t, f.backend.Calls(), 1, "EPO submissions while pending must coalesce")
}

func TestRadiosOnFanOutOrder(t *testing.T) {
	f := newFixture(t, 1, window)

	f.coord.RadiosOn()
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 5)
	wantOrder := []radio.Type{
		radio.TypeWWAN, radio.TypeWiMAX, radio.TypeUWB,
		radio.TypeBluetooth, radio.TypeWLAN,
	}
	for i, call := range calls {
		assert.Equal(t, wantOrder[i], call.Type, "call %d", i)
		assert.Equal(t, radio.StateOn, call.State, "call %d", i)
	}
}

func TestFanOutHonorsPerRadioDebounce(t *testing.T) {
	f := newFixture(t, 1, window)

	// Toggle bluetooth just before the fan-out; its SET is inside the
	// window and gets dropped, which is accepted behavior.
	f.coord.ScheduleToggle(radio.TypeBluetooth)
	f.coord.Drain()
	f.clock.Advance(50 * time.Millisecond)

	f.coord.RadiosOn()
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 5) // 1 toggle + 4 fan-out sets
	for _, call := range calls[1:] {
		assert.NotEqual(t, radio.TypeBluetooth, call.Type)
	}
	assert.Equal(t, radio.StateOff, f.coord.Task(radio.TypeBluetooth).Desired())
}

func TestPerTaskSerialization(t *testing.T) {
	f := newFixture(t, 4, time.Millisecond)
	f.backend.Latency = 5 * time.Millisecond

	for i := 0; i < 10; i++ {
		f.coord.ScheduleToggle(radio.TypeWLAN)
		f.clock.Advance(2 * time.Millisecond)
	}
	f.coord.Drain()

	assert.LessOrEqual(t, f.backend.MaxConcurrent(radio.TypeWLAN), 1,
		"backend calls for one task must never overlap")
}

func TestDistinctTasksRunConcurrently(t *testing.T) {
	f := newFixture(t, 4, window)
	f.backend.Latency = 30 * time.Millisecond

	start := time.Now()
	f.coord.RadiosOn()
	f.coord.Drain()
	elapsed := time.Since(start)

	// Five sequential calls would take >=150ms; with four workers the
	// fan-out must be measurably faster.
	assert.Less(t, elapsed, 120*time.Millisecond)
	assert.Len(t, f.backend.Calls(), 5)
}

func TestShutdownWaitsForInflightCall(t *testing.T) {
	f := newFixture(t, 1, window)
	f.backend.Latency = 60 * time.Millisecond

	f.coord.ScheduleToggle(radio.TypeWLAN)
	// Let the worker pick the item up.
	time.Sleep(20 * time.Millisecond)

	f.coord.Drain()
	require.Len(t, f.backend.Calls(), 1, "drain must block until the in-flight call returns")

	// Events after shutdown must not reach the backend.
	f.runner.Close()
	f.clock.Advance(time.Second)
	f.coord.ScheduleToggle(radio.TypeWLAN)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, f.backend.Calls(), 1)
}

func TestBackendErrorIsAbsorbed(t *testing.T) {
	f := newFixture(t, 1, window)
	f.backend.Err = assert.AnError

	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()
	require.Len(t, f.backend.Calls(), 1)

	// The next event past the window retries.
	f.backend.Err = nil
	f.clock.Advance(window + time.Millisecond)
	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()
	assert.Len(t, f.backend.Calls(), 2)
}

func TestDesiredObservedIsLatestCommitted(t *testing.T) {
	f := newFixture(t, 1, window)
	f.backend.Latency = 30 * time.Millisecond

	// First toggle goes in flight; a second schedule commits a newer
	// desired state while the first executes. The follow-up work item
	// must observe the newer value.
	f.coord.ScheduleToggle(radio.TypeWiMAX) // desired: off
	time.Sleep(10 * time.Millisecond)
	f.clock.Advance(window + time.Millisecond)
	f.coord.ScheduleToggle(radio.TypeWiMAX) // desired: on
	f.coord.Drain()

	calls := f.backend.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, radio.StateOn, last.State)
	assert.Equal(t, radio.StateOn, f.backend.State(radio.TypeWiMAX))
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, 1, window)

	f.coord.ScheduleToggle(radio.TypeWLAN)
	f.coord.Drain()

	st := f.coord.Snapshot()
	assert.False(t, st.EPOPending)
	require.Len(t, st.Tasks, 5)

	byRadio := make(map[string]TaskStatus)
	for _, ts := range st.Tasks {
		byRadio[ts.Radio] = ts
	}
	assert.Equal(t, "off", byRadio["wlan"].Desired)
	assert.Equal(t, "on", byRadio["bluetooth"].Desired)
}
