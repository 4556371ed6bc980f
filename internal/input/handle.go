package input

import "github.com/pkg/errors"

// Source is an origin of input events. A source delivers events only
// through open handles and guarantees a single Disconnect per successful
// Connect.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Register attaches the handle to the source. May refuse.
	Register(h *Handle) error

	// Open starts event delivery through the handle. May refuse.
	Open(h *Handle) error

	// Close stops event delivery.
	Close(h *Handle)

	// Unregister detaches the handle.
	Unregister(h *Handle)
}

// Handle binds a handler to a source for the duration of a connection.
// It owns no state beyond the two links.
type Handle struct {
	Source  Source
	Handler Handler
	Name    string
}

// Deliver forwards an event to the handler. Sources call this from their
// delivery goroutine.
func (h *Handle) Deliver(ev Event) {
	h.Handler.HandleEvent(ev)
}

// Connect attaches the handler to the source: allocate, register, open.
// A failure at any step unwinds the prior steps in reverse and returns
// the cause; the source then delivers no events for this handle.
func Connect(src Source, handler Handler) (*Handle, error) {
	h := &Handle{
		Source:  src,
		Handler: handler,
		Name:    "rfkill",
	}

	if err := src.Register(h); err != nil {
		return nil, errors.Wrapf(err, "register handle with %s", src.Name())
	}

	if err := src.Open(h); err != nil {
		src.Unregister(h)
		return nil, errors.Wrapf(err, "open handle on %s", src.Name())
	}

	return h, nil
}

// Disconnect detaches a connected handle: close, unregister. The source
// guarantees this is called at most once per handle.
func Disconnect(h *Handle) {
	h.Source.Close(h)
	h.Source.Unregister(h)
}
