package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event represents a MIDI event flowing through the arp/seq core.
// Tick is only meaningful while the event sits in a part's queue; Time is
// the wall-clock stamp in seconds, set on input and again at emission.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8
	Velocity uint8
	Tick     int64
	Time     float64
}

// NewNoteOn builds a note-on event.
func NewNoteOn(channel, note, velocity uint8) Event {
	return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

// NewNoteOff builds a note-off event.
func NewNoteOff(channel, note uint8) Event {
	return Event{Type: NoteOff, Channel: channel, Note: note}
}

// IsNoteOn reports a note-on with non-zero velocity.
func (e Event) IsNoteOn() bool {
	return e.Type == NoteOn && e.Velocity > 0
}

// IsNoteOff treats a zero-velocity note-on as a note-off, like most gear does.
func (e Event) IsNoteOff() bool {
	return e.Type == NoteOff || (e.Type == NoteOn && e.Velocity == 0)
}

// At returns a copy stamped with the given wall-clock time.
func (e Event) At(t float64) Event {
	e.Time = t
	return e
}

// Message converts the event to its wire form.
func (e Event) Message() gomidi.Message {
	switch {
	case e.IsNoteOn():
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case e.IsNoteOff():
		return gomidi.NoteOff(e.Channel, e.Note)
	case e.Type == CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

// FromMessage decodes note and CC messages. Anything else reports false.
func FromMessage(msg gomidi.Message, t float64) (Event, bool) {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity, Time: t}, true
	case msg.GetNoteEnd(&channel, &note):
		return Event{Type: NoteOff, Channel: channel, Note: note, Time: t}, true
	case msg.GetControlChange(&channel, &note, &velocity):
		return Event{Type: CC, Channel: channel, Note: note, Velocity: velocity, Time: t}, true
	}
	return Event{}, false
}

func (e Event) String() string {
	switch {
	case e.IsNoteOn():
		return fmt.Sprintf("on  ch=%d note=%d vel=%d t=%.4f", e.Channel+1, e.Note, e.Velocity, e.Time)
	case e.IsNoteOff():
		return fmt.Sprintf("off ch=%d note=%d t=%.4f", e.Channel+1, e.Note, e.Time)
	default:
		return fmt.Sprintf("cc  ch=%d cc=%d val=%d t=%.4f", e.Channel+1, e.Note, e.Velocity, e.Time)
	}
}
