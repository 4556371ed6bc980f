package radio

// Type identifies a class of wireless device treated as an independent
// kill target.
type Type int

const (
	TypeWLAN Type = iota
	TypeBluetooth
	TypeUWB
	TypeWiMAX
	TypeWWAN
)

// Types lists every kill target, in declaration order.
var Types = []Type{TypeWLAN, TypeBluetooth, TypeUWB, TypeWiMAX, TypeWWAN}

// String returns the wire/log name of the radio type.
func (t Type) String() string {
	switch t {
	case TypeWLAN:
		return "wlan"
	case TypeBluetooth:
		return "bluetooth"
	case TypeUWB:
		return "uwb"
	case TypeWiMAX:
		return "wimax"
	case TypeWWAN:
		return "wwan"
	default:
		return "unknown"
	}
}

// State is the desired transmit permission of a radio.
type State int

const (
	// StateOff blocks the radio from transmitting.
	StateOff State = iota
	// StateOn permits the radio to transmit.
	StateOn
)

// String returns the log name of the state.
func (s State) String() string {
	if s == StateOn {
		return "on"
	}
	return "off"
}

// Toggled returns the logical negation of the state.
func (s State) Toggled() State {
	if s == StateOn {
		return StateOff
	}
	return StateOn
}
