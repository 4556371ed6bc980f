package backend

import (
	"context"
	"errors"

	"github.com/radio-control/rfkilld/internal/radio"
)

// Backend applies radio state changes to hardware.
type Backend interface {
	// SetAll transitions every radio of the given type to the given
	// state. Blocking; may be slow.
	SetAll(ctx context.Context, t radio.Type, s radio.State) error

	// EPO forces all radios to a safe-off state irrespective of any
	// pending per-radio command. Blocking; authoritative.
	EPO(ctx context.Context) error
}

// ErrUnavailable indicates the backend device could not be reached.
var ErrUnavailable = errors.New("UNAVAILABLE")
