// Package devrfkill implements the backend against the Linux /dev/rfkill
// control device.
//
// Each operation writes one rfkill_event record with RFKILL_OP_CHANGE_ALL.
// The kernel applies the soft-block change to every switch of the given
// type, which also makes both operations naturally idempotent.
package devrfkill

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/radio-control/rfkilld/internal/backend"
	"github.com/radio-control/rfkilld/internal/radio"
)

// DefaultDevice is the rfkill control node.
const DefaultDevice = "/dev/rfkill"

// rfkill_event as defined by linux/rfkill.h: u32 idx, u8 type, u8 op,
// u8 soft, u8 hard. idx is ignored for CHANGE_ALL.
const eventSize = 8

const opChangeAll = 3

// rfkill type codes from linux/rfkill.h.
const (
	typeAll       = 0
	typeWLAN      = 1
	typeBluetooth = 2
	typeUWB       = 3
	typeWiMAX     = 4
	typeWWAN      = 5
)

var typeCodes = map[radio.Type]uint8{
	radio.TypeWLAN:      typeWLAN,
	radio.TypeBluetooth: typeBluetooth,
	radio.TypeUWB:       typeUWB,
	radio.TypeWiMAX:     typeWiMAX,
	radio.TypeWWAN:      typeWWAN,
}

// Backend writes soft-block changes to the rfkill control device.
type Backend struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens the rfkill control device. An empty path selects
// DefaultDevice.
func Open(path string) (*Backend, error) {
	if path == "" {
		path = DefaultDevice
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(backend.ErrUnavailable, "open %s: %v", path, err)
	}
	return &Backend{path: path, f: f}, nil
}

// SetAll soft-blocks or unblocks every switch of the given type.
func (b *Backend) SetAll(ctx context.Context, t radio.Type, s radio.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var soft uint8
	if s == radio.StateOff {
		soft = 1
	}
	return b.write(typeCodes[t], soft)
}

// EPO soft-blocks every switch of every type.
func (b *Backend) EPO(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.write(typeAll, 1)
}

// Close releases the control device.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

func (b *Backend) write(typ, soft uint8) error {
	ev := encodeEvent(typ, opChangeAll, soft)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.f.Write(ev[:]); err != nil {
		return errors.Wrapf(err, "write rfkill event to %s", b.path)
	}
	return nil
}

// encodeEvent lays out an rfkill_event in native (little-endian) byte
// order. idx is zero; CHANGE_ALL ignores it.
func encodeEvent(typ, op, soft uint8) [eventSize]byte {
	var ev [eventSize]byte
	ev[4] = typ
	ev[5] = op
	ev[6] = soft
	// ev[7] (hard) is read-only from userspace and stays zero.
	return ev
}

var _ backend.Backend = (*Backend)(nil)
