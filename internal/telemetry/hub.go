package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the coordinator.
const (
	EventStateChanged = "stateChanged"
	EventEPO          = "epo"
	EventHeartbeat    = "heartbeat"
)

// Event is one telemetry event with SSE framing metadata.
type Event struct {
	ID    int64          `json:"id,omitempty"`
	Type  string         `json:"type"`
	Radio string         `json:"radio,omitempty"`
	Data  map[string]any `json:"data"`
}

// Options configures the hub.
type Options struct {
	BufferSize        int
	HeartbeatInterval time.Duration
	HeartbeatJitter   time.Duration
}

// Hub distributes events to SSE clients with per-radio replay buffers.
//
// Lock ordering: h.mu before any per-buffer mutex. Client channels are
// closed exactly once via sync.Once.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	buffers map[string]*ringBuffer
	nextID  atomic.Int64
	opts    Options

	heartbeat     *time.Ticker
	stopHeartbeat chan struct{}
	done          chan struct{}
	wg            sync.WaitGroup
	stopOnce      sync.Once
}

type client struct {
	id     string
	radio  string
	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	wmu    sync.Mutex
	w      http.ResponseWriter
}

// NewHub creates a telemetry hub.
func NewHub(opts Options) *Hub {
	if opts.BufferSize < 1 {
		opts.BufferSize = 50
	}
	return &Hub{
		clients: make(map[string]*client),
		buffers: make(map[string]*ringBuffer),
		opts:    opts,
		done:    make(chan struct{}),
	}
}

// Publish assigns an event ID, buffers the event for replay, and fans it
// out to every subscribed client. Never blocks the publisher: slow
// clients drop events.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.ID == 0 {
		event.ID = h.nextID.Add(1)
	}
	if event.Radio != "" {
		h.buffer(event)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case <-c.ctx.Done():
		case <-h.done:
			return
		case c.events <- event:
		default:
			// Client buffer full; drop rather than stall the coordinator.
		}
	}
}

// PublishRadio publishes an event tagged with a radio name.
func (h *Hub) PublishRadio(radio string, event Event) {
	if h == nil {
		return
	}
	event.Radio = radio
	h.Publish(event)
}

// Subscribe attaches an SSE client and blocks until it disconnects or
// the hub stops. Honors Last-Event-ID for replay of the per-radio
// buffer selected by the "radio" query parameter.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientCtx, cancel := context.WithCancel(ctx)
	c := &client{
		id:     fmt.Sprintf("client_%d", time.Now().UnixNano()),
		radio:  r.URL.Query().Get("radio"),
		events: make(chan Event, 100),
		ctx:    clientCtx,
		cancel: cancel,
		w:      w,
	}

	var lastID int64
	if s := r.Header.Get("Last-Event-ID"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			lastID = id
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	if len(h.clients) == 1 && h.heartbeat == nil && h.opts.HeartbeatInterval > 0 {
		h.startHeartbeat()
	}
	h.mu.Unlock()

	defer h.unregister(c)

	if lastID > 0 && c.radio != "" {
		for _, ev := range h.replay(c.radio, lastID) {
			if err := c.send(ev); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case <-h.done:
			return nil
		case ev := <-c.events:
			if err := c.send(ev); err != nil {
				return err
			}
		}
	}
}

// Stop shuts the hub down, cancelling all clients.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		for _, c := range h.clients {
			c.cancel()
		}
		if h.heartbeat != nil {
			h.heartbeat.Stop()
			h.heartbeat = nil
		}
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (c *client) send(ev Event) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if ev.ID > 0 {
		if _, err := fmt.Fprintf(c.w, "id: %d\n", ev.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		c.cancel()
		delete(h.clients, c.id)
	}
	if len(h.clients) == 0 && h.heartbeat != nil {
		h.heartbeat.Stop()
		h.heartbeat = nil
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
}

func (h *Hub) buffer(event Event) {
	h.mu.Lock()
	buf, ok := h.buffers[event.Radio]
	if !ok {
		buf = newRingBuffer(h.opts.BufferSize)
		h.buffers[event.Radio] = buf
	}
	h.mu.Unlock()

	buf.add(event)
}

func (h *Hub) replay(radio string, afterID int64) []Event {
	h.mu.RLock()
	buf, ok := h.buffers[radio]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return buf.after(afterID)
}

// startHeartbeat must be called with h.mu held and h.heartbeat nil.
func (h *Hub) startHeartbeat() {
	interval := h.opts.HeartbeatInterval + h.opts.HeartbeatJitter/2
	h.heartbeat = time.NewTicker(interval)
	h.stopHeartbeat = make(chan struct{})
	ticker := h.heartbeat
	stop := h.stopHeartbeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				h.Publish(Event{
					Type: EventHeartbeat,
					Data: map[string]any{"ts": time.Now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// ringBuffer keeps the last N events for one radio.
type ringBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{capacity: capacity}
}

func (b *ringBuffer) add(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

func (b *ringBuffer) after(id int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Event
	for _, ev := range b.events {
		if ev.ID > id {
			out = append(out, ev)
		}
	}
	return out
}
