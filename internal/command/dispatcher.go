package command

import (
	"github.com/rs/zerolog"

	"github.com/radio-control/rfkilld/internal/input"
	"github.com/radio-control/rfkilld/internal/metrics"
	"github.com/radio-control/rfkilld/internal/radio"
)

// Dispatcher classifies input events and schedules coordinator work.
// It runs on event-delivery goroutines and never blocks: the only work
// it does is fast-path gates and non-blocking submits.
type Dispatcher struct {
	coord *Coordinator
	stats *metrics.Collector
	log   zerolog.Logger
}

// NewDispatcher creates a dispatcher bound to the coordinator.
func NewDispatcher(coord *Coordinator, stats *metrics.Collector, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{coord: coord, stats: stats, log: log}
}

// HandleEvent implements input.Handler.
//
// Key presses (value 1) of the radio hotkeys toggle their radio; key
// releases and autorepeats are ignored. The rfkill-all rocker fans out
// radios-on when nonzero and schedules the emergency power off when
// zero. Everything else is silently dropped.
func (d *Dispatcher) HandleEvent(ev input.Event) {
	d.stats.EventSeen()

	switch {
	case ev.Class == input.ClassKey && ev.Value == input.KeyPress:
		switch ev.Code {
		case input.KeyWLAN:
			d.coord.ScheduleToggle(radio.TypeWLAN)
		case input.KeyBluetooth:
			d.coord.ScheduleToggle(radio.TypeBluetooth)
		case input.KeyUWB:
			d.coord.ScheduleToggle(radio.TypeUWB)
		case input.KeyWiMAX:
			d.coord.ScheduleToggle(radio.TypeWiMAX)
		default:
			d.stats.EventIgnored()
		}

	case ev.Class == input.ClassSw && ev.Code == input.SwRfkillAll:
		if ev.Value != 0 {
			d.log.Info().Msg("rfkill-all rocker: radios on")
			d.coord.RadiosOn()
		} else {
			d.log.Warn().Msg("rfkill-all rocker: emergency power off")
			d.coord.ScheduleEPO()
		}

	default:
		d.stats.EventIgnored()
	}
}

var _ input.Handler = (*Dispatcher)(nil)
