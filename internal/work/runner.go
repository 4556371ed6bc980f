package work

import (
	"context"
	"sync"
)

// Item is a unit of deferred execution. Items run to completion; there is
// no cancellation beyond the runner's base context being passed through.
type Item func(ctx context.Context)

// Runner serializes execution of submitted items through a FIFO queue
// drained by a fixed pool of workers.
type Runner struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Item
	inflight int
	closed   bool

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewRunner creates a runner with the given number of workers (minimum
// one) and starts them. Items receive ctx when they run.
func NewRunner(ctx context.Context, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{baseCtx: ctx}
	r.cond = sync.NewCond(&r.mu)

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Submit appends an item to the queue. It never blocks: the queue is
// unbounded and the only synchronization is a short mutex hold, so it is
// safe from event-delivery goroutines. Items submitted after Close are
// dropped.
func (r *Runner) Submit(item Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.queue = append(r.queue, item)
	r.cond.Signal()
	return true
}

// Len returns the number of queued (not yet started) items.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Drain blocks until every queued item has been picked up and every
// running item has completed. New submissions remain possible; callers
// that need a quiescent runner stop the submitters first.
func (r *Runner) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) > 0 || r.inflight > 0 {
		r.cond.Wait()
	}
}

// Close drains the runner and stops the workers. No item started before
// Close is interrupted.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	for len(r.queue) > 0 || r.inflight > 0 {
		r.cond.Wait()
	}
	r.cond.Broadcast()
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 && r.closed {
			r.mu.Unlock()
			return
		}
		item := r.queue[0]
		r.queue = r.queue[1:]
		r.inflight++
		r.mu.Unlock()

		item(r.baseCtx)

		r.mu.Lock()
		r.inflight--
		// Wake both drainers and idle workers.
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}
