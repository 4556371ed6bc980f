package input

// Class is the Linux input event class.
type Class uint16

// Event classes relevant to rfkill handling (linux/input-event-codes.h).
const (
	ClassKey Class = 0x01 // EV_KEY
	ClassSw  Class = 0x05 // EV_SW
)

// Key codes of the radio hotkeys (linux/input-event-codes.h).
const (
	KeyBluetooth uint16 = 237
	KeyWLAN      uint16 = 238
	KeyUWB       uint16 = 239
	KeyWiMAX     uint16 = 246
)

// SwRfkillAll is the "all radios" rocker switch code. Nonzero value
// means radios on; zero requests emergency power off.
const SwRfkillAll uint16 = 0x03

// Key event values.
const (
	KeyRelease    = 0
	KeyPress      = 1
	KeyAutorepeat = 2
)

// Event is one input event as delivered by a source.
type Event struct {
	Class Class
	Code  uint16
	Value int32
}

// Handler consumes events from connected sources. HandleEvent may be
// called from any goroutine, concurrently, and must return promptly
// without blocking.
type Handler interface {
	HandleEvent(ev Event)
}
