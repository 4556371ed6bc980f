package command

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/radio-control/rfkilld/internal/backend"
	"github.com/radio-control/rfkilld/internal/metrics"
	"github.com/radio-control/rfkilld/internal/radio"
	"github.com/radio-control/rfkilld/internal/telemetry"
	"github.com/radio-control/rfkilld/internal/work"
)

// FanOutOrder is the submission order of the radios-on fan-out. It is
// observable through the backend call log and must not change.
var FanOutOrder = []radio.Type{
	radio.TypeWWAN,
	radio.TypeWiMAX,
	radio.TypeUWB,
	radio.TypeBluetooth,
	radio.TypeWLAN,
}

// Coordinator owns the five radio tasks and the EPO task for the process
// lifetime and routes debounced schedules onto the work runner.
type Coordinator struct {
	backend backend.Backend
	runner  *work.Runner
	tasks   map[radio.Type]*radio.Task
	epo     *radio.EPOTask

	window time.Duration
	audit  AuditLogger
	events EventPublisher
	stats  *metrics.Collector
	log    zerolog.Logger

	// now is the monotonic clock; swapped for a fake in tests.
	now func() time.Time
}

// Option configures optional coordinator collaborators.
type Option func(*Coordinator)

// WithAuditLogger attaches an audit logger.
func WithAuditLogger(a AuditLogger) Option {
	return func(c *Coordinator) { c.audit = a }
}

// WithEventPublisher attaches a telemetry publisher.
func WithEventPublisher(p EventPublisher) Option {
	return func(c *Coordinator) { c.events = p }
}

// WithMetrics attaches the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) { c.stats = m }
}

// WithClock overrides the monotonic clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates the coordinator with one task per radio type.
func NewCoordinator(b backend.Backend, runner *work.Runner, window time.Duration, log zerolog.Logger, opts ...Option) *Coordinator {
	tasks := make(map[radio.Type]*radio.Task, len(radio.Types))
	for _, t := range radio.Types {
		tasks[t] = radio.NewTask(t)
	}

	c := &Coordinator{
		backend: b,
		runner:  runner,
		tasks:   tasks,
		epo:     radio.NewEPOTask(),
		window:  window,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScheduleToggle runs the toggle fast path for one radio: advisory EPO
// gate, debounce window, then coalesced work submission. Non-blocking;
// safe from event-delivery goroutines.
func (c *Coordinator) ScheduleToggle(t radio.Type) {
	if c.epo.Pending() {
		c.stats.EPOSuppressed()
		return
	}

	task := c.tasks[t]
	if _, ok := task.GateToggle(c.now(), c.window); !ok {
		c.stats.DebounceDropped(t)
		return
	}
	c.submit(task)
}

// ScheduleSet runs the absolute-state fast path for one radio.
func (c *Coordinator) ScheduleSet(t radio.Type, s radio.State) {
	if c.epo.Pending() {
		c.stats.EPOSuppressed()
		return
	}

	task := c.tasks[t]
	if !task.GateSet(s, c.now(), c.window) {
		c.stats.DebounceDropped(t)
		return
	}
	c.submit(task)
}

// RadiosOn fans out a SET to on for every radio, in FanOutOrder. Each
// per-radio set honors its own debounce; a radio toggled inside the
// window is dropped, which is accepted behavior.
func (c *Coordinator) RadiosOn() {
	for _, t := range FanOutOrder {
		c.ScheduleSet(t, radio.StateOn)
	}
}

// ScheduleEPO submits the singleton emergency-power-off work item.
// Submissions while one is pending coalesce.
func (c *Coordinator) ScheduleEPO() {
	if !c.epo.TryAcquirePending() {
		return
	}
	c.runner.Submit(c.runEPO)
	c.stats.SetQueueDepth(c.runner.Len())
}

// Drain blocks until every queued and in-flight work item has completed.
// Called at shutdown after the input handles are disconnected, so no
// worker can touch the tasks afterwards.
func (c *Coordinator) Drain() {
	c.runner.Drain()
}

// submit queues the task's work item unless one is already pending.
func (c *Coordinator) submit(task *radio.Task) {
	if !task.TryAcquirePending() {
		return
	}
	c.runner.Submit(func(ctx context.Context) {
		c.runTask(ctx, task)
	})
	c.stats.SetQueueDepth(c.runner.Len())
}

// runTask executes one radio work item in worker context: clear the
// coalescing flag, take the serialization token, read the desired state
// and drive the backend. Backend errors are absorbed; the next event
// retries.
func (c *Coordinator) runTask(ctx context.Context, task *radio.Task) {
	task.BeginRun()

	mu := task.Serialize()
	mu.Lock()
	defer mu.Unlock()

	state := task.Desired()
	start := time.Now()
	err := c.backend.SetAll(ctx, task.Type(), state)
	latency := time.Since(start)

	c.stats.BackendCall(task.Type(), state, latency.Seconds(), err)
	outcome := "SUCCESS"
	if err != nil {
		outcome = "ERROR"
		c.log.Warn().Err(err).
			Str("radio", task.Type().String()).
			Str("state", state.String()).
			Msg("backend set failed")
	} else {
		c.log.Debug().
			Str("radio", task.Type().String()).
			Str("state", state.String()).
			Dur("latency", latency).
			Msg("backend set applied")
	}

	if c.audit != nil {
		c.audit.LogAction(ctx, "setAll", task.Type().String(), outcome, latency)
	}
	if c.events != nil && err == nil {
		c.events.PublishRadio(task.Type().String(), telemetry.Event{
			Type: telemetry.EventStateChanged,
			Data: map[string]any{"state": state.String()},
		})
	}
}

// runEPO executes the emergency power off. The pending flag stays set
// for the whole execution and is cleared on completion, keeping radio
// fast paths suppressed throughout.
func (c *Coordinator) runEPO(ctx context.Context) {
	defer c.epo.Complete()

	start := time.Now()
	err := c.backend.EPO(ctx)
	latency := time.Since(start)

	c.stats.EPOExecuted(latency.Seconds())
	outcome := "SUCCESS"
	if err != nil {
		outcome = "ERROR"
		c.log.Error().Err(err).Msg("emergency power off failed")
	} else {
		c.log.Info().Dur("latency", latency).Msg("emergency power off applied")
	}

	if c.audit != nil {
		c.audit.LogAction(ctx, "epo", "all", outcome, latency)
	}
	if c.events != nil && err == nil {
		c.events.Publish(telemetry.Event{
			Type: telemetry.EventEPO,
			Data: map[string]any{"ts": time.Now().UTC().Format(time.RFC3339)},
		})
	}
}

// TaskStatus is one entry of the coordinator snapshot.
type TaskStatus struct {
	Radio         string    `json:"radio"`
	Desired       string    `json:"desired"`
	Pending       bool      `json:"pending"`
	LastScheduled time.Time `json:"lastScheduled,omitempty"`
}

// Status is the read-only coordinator snapshot served by the API.
type Status struct {
	EPOPending bool         `json:"epoPending"`
	QueueDepth int          `json:"queueDepth"`
	Tasks      []TaskStatus `json:"tasks"`
}

// Snapshot returns the current coordinator state.
func (c *Coordinator) Snapshot() Status {
	st := Status{
		EPOPending: c.epo.Pending(),
		QueueDepth: c.runner.Len(),
		Tasks:      make([]TaskStatus, 0, len(radio.Types)),
	}
	for _, t := range radio.Types {
		task := c.tasks[t]
		st.Tasks = append(st.Tasks, TaskStatus{
			Radio:         t.String(),
			Desired:       task.Desired().String(),
			Pending:       task.Pending(),
			LastScheduled: task.LastScheduled(),
		})
	}
	return st
}

// Task exposes a task for white-box tests.
func (c *Coordinator) Task(t radio.Type) *radio.Task {
	return c.tasks[t]
}

// EPOPending reports whether the EPO work item is queued or running.
func (c *Coordinator) EPOPending() bool {
	return c.epo.Pending()
}
