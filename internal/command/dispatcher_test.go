package command

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rfkilld/internal/input"
	"github.com/radio-control/rfkilld/internal/radio"
)

func newDispatcherFixture(t *testing.T) (*Dispatcher, *fixture) {
	t.Helper()
	f := newFixture(t, 1, window)
	return NewDispatcher(f.coord, nil, zerolog.Nop()), f
}

func TestDispatcherKeyPressToggles(t *testing.T) {
	keys := map[uint16]radio.Type{
		input.KeyWLAN:      radio.TypeWLAN,
		input.KeyBluetooth: radio.TypeBluetooth,
		input.KeyUWB:       radio.TypeUWB,
		input.KeyWiMAX:     radio.TypeWiMAX,
	}

	for code, typ := range keys {
		d, f := newDispatcherFixture(t)

		d.HandleEvent(input.Event{Class: input.ClassKey, Code: code, Value: input.KeyPress})
		f.coord.Drain()

		calls := f.backend.Calls()
		require.Len(t, calls, 1, "key %d", code)
		assert.Equal(t, typ, calls[0].Type)
		assert.Equal(t, radio.StateOff, calls[0].State)
	}
}

func TestDispatcherKeyReleaseIgnored(t *testing.T) {
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassKey, Code: input.KeyWLAN, Value: input.KeyRelease})
	f.coord.Drain()

	assert.Empty(t, f.backend.Calls())
	assert.Equal(t, radio.StateOn, f.coord.Task(radio.TypeWLAN).Desired())
}

func TestDispatcherAutorepeatIgnored(t *testing.T) {
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassKey, Code: input.KeyWLAN, Value: input.KeyAutorepeat})
	f.coord.Drain()

	assert.Empty(t, f.backend.Calls())
}

func TestDispatcherUnknownEventsIgnored(t *testing.T) {
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassKey, Code: 30, Value: input.KeyPress}) // KEY_A
	d.HandleEvent(input.Event{Class: input.ClassSw, Code: 0, Value: 1})                // SW_LID
	d.HandleEvent(input.Event{Class: 0x02, Code: 0, Value: 5})                         // EV_REL
	f.coord.Drain()

	assert.Empty(t, f.backend.Calls())
}

func TestDispatcherRockerOnFansOut(t *testing.T) {
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassSw, Code: input.SwRfkillAll, Value: 1})
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 5)
	wantOrder := []radio.Type{
		radio.TypeWWAN, radio.TypeWiMAX, radio.TypeUWB,
		radio.TypeBluetooth, radio.TypeWLAN,
	}
	for i, call := range calls {
		assert.Equal(t, wantOrder[i], call.Type)
		assert.Equal(t, radio.StateOn, call.State)
	}
}

func TestDispatcherRockerZeroSchedulesEPO(t *testing.T) {
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassSw, Code: input.SwRfkillAll, Value: 0})
	require.True(t, f.coord.EPOPending())

	// A hotkey arriving while EPO is pending is suppressed.
	d.HandleEvent(input.Event{Class: input.ClassKey, Code: input.KeyWLAN, Value: input.KeyPress})
	f.coord.Drain()

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].EPO)
	for _, typ := range radio.Types {
		assert.Equal(t, radio.StateOff, f.backend.State(typ))
	}
}

func TestDispatcherDuplicateNodesDebounced(t *testing.T) {
	// Vendor firmware emitting the same keypress on two input nodes
	// within the window results in a single backend call.
	d, f := newDispatcherFixture(t)

	d.HandleEvent(input.Event{Class: input.ClassKey, Code: input.KeyBluetooth, Value: input.KeyPress})
	f.clock.Advance(5 * time.Millisecond)
	d.HandleEvent(input.Event{Class: input.ClassKey, Code: input.KeyBluetooth, Value: input.KeyPress})
	f.coord.Drain()

	assert.Len(t, f.backend.Calls(), 1)
}
