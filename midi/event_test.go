package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"
)

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  gomidi.Message
		want Event
		ok   bool
	}{
		{name: "note on", msg: gomidi.NoteOn(2, 60, 100), want: Event{Type: NoteOn, Channel: 2, Note: 60, Velocity: 100, Time: 1.5}, ok: true},
		{name: "note off", msg: gomidi.NoteOff(0, 64), want: Event{Type: NoteOff, Note: 64, Time: 1.5}, ok: true},
		{name: "zero velocity note on", msg: gomidi.NoteOn(1, 67, 0), want: Event{Type: NoteOff, Channel: 1, Note: 67, Time: 1.5}, ok: true},
		{name: "control change", msg: gomidi.ControlChange(0, 123, 0), want: Event{Type: CC, Note: 123, Time: 1.5}, ok: true},
		{name: "program change ignored", msg: gomidi.ProgramChange(0, 5), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromMessage(tt.msg, 1.5)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEvent_MessageRoundTrip(t *testing.T) {
	for _, ev := range []Event{
		NewNoteOn(3, 72, 90),
		NewNoteOff(15, 21),
		{Type: CC, Channel: 0, Note: 64, Velocity: 127},
	} {
		got, ok := FromMessage(ev.Message(), 0)
		require.True(t, ok, "%s", ev)
		assert.Equal(t, ev, got)
	}
	assert.Nil(t, Event{Type: 0xE0}.Message())
}

func TestEvent_Predicates(t *testing.T) {
	assert.True(t, NewNoteOn(0, 60, 1).IsNoteOn())
	assert.False(t, NewNoteOn(0, 60, 0).IsNoteOn())
	assert.True(t, NewNoteOn(0, 60, 0).IsNoteOff())
	assert.True(t, NewNoteOff(0, 60).IsNoteOff())

	ev := NewNoteOn(0, 60, 100).At(2.5)
	assert.Equal(t, 2.5, ev.Time)
	assert.Contains(t, ev.String(), "note=60")
}

func TestTee(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	boom := errors.New("boom")
	failing := SinkFunc(func(Event) error { return boom })

	err := Tee{a, failing, nil, b}.Send(NewNoteOn(0, 60, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Equal(t, 1, a.Len(), "sinks after a failure still receive")
	assert.Equal(t, 1, b.Len())

	assert.NoError(t, Tee{a}.Send(NewNoteOff(0, 60)))
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Send(NewNoteOn(0, 60, 100))
	c.Send(NewNoteOff(0, 60))

	assert.Len(t, c.Events(), 2)
	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.Drain(), 2)
	assert.Zero(t, c.Len())
	assert.NoError(t, Discard.Send(NewNoteOn(0, 1, 1)))
}
