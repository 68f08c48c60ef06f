package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// PadEvent is sent when a pad/button is pressed or released on a grid
// controller.
type PadEvent struct {
	Row, Col int
	Velocity uint8
	Pressed  bool
}

// LEDUpdate sets one pad colour.
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	PadEvents() <-chan PadEvent // grid controllers
	NoteEvents() <-chan Event   // keyboards; Time is left zero for the host to stamp

	SetLEDBatch(updates []LEDUpdate) error

	Close() error
}

// Launchpad X channel modes for LED messages
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)

// trySend drops the event if nobody is reading; MIDI callbacks must not block.
func trySend[T any](ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}
