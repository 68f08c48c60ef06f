package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-polyarp/midi"
)

func chordStep(notes ...int) PolyStep {
	s := NewPolyStep()
	for _, n := range notes {
		s.AddNote(NewNote(n), Polyphony, StealClosest)
	}
	return s
}

func TestPolyTrack_OverdubDropsRefusedNotes(t *testing.T) {
	vl := NewVoiceLimiter(3)
	require.True(t, vl.NoteOn(64, PriorityKeyboard, StealClosest).Admitted)

	tr := NewPolyTrack(vl)
	c := &midi.Collector{}
	tr.SetOutput(c)
	tr.SetOverdub(true)
	tr.SetStep(0, chordStep(67, 64, 60))

	tr.Tick()

	step := tr.Step(0)
	assert.True(t, step.Enabled)
	assert.Equal(t, []int{67, 60}, noteNumbers(step))
	assert.Equal(t, []int{0}, tr.TakeChanged())
	assert.Nil(t, tr.TakeChanged())

	var ons []int
	for _, ev := range c.Events() {
		if ev.IsNoteOn() {
			ons = append(ons, int(ev.Note))
		}
	}
	assert.Equal(t, []int{67, 60}, ons)
	assert.Equal(t, []int{64}, vl.ActiveNotes(), "overdub only asks, it never takes a voice")
}

func TestPolyTrack_OverdubEmptiesStep(t *testing.T) {
	vl := NewVoiceLimiter(1)
	vl.NoteOn(60, PriorityKeyboard, StealClosest)

	tr := NewPolyTrack(vl)
	tr.SetOverdub(true)
	tr.SetStep(0, chordStep(60))
	tr.Tick()

	assert.False(t, tr.Step(0).Enabled)
}

func TestPolyTrack_TransposeAndRest(t *testing.T) {
	tr := NewPolyTrack(nil)
	c := &midi.Collector{}
	tr.SetOutput(c)
	tr.SetStep(0, chordStep(60))
	tr.SetStep(1, chordStep(62))
	tr.SetTransposeInterval(5)

	tickN(tr.Part, tr.TicksPerStep())
	tr.SetRest(true)
	tickN(tr.Part, tr.TicksPerStep())

	var ons []int
	for _, ev := range c.Events() {
		if ev.IsNoteOn() {
			ons = append(ons, int(ev.Note))
		}
	}
	assert.Equal(t, []int{65}, ons)
}

func TestPolyTrack_EarlyStepRendersAhead(t *testing.T) {
	tr := NewPolyTrack(nil)
	s := NewPolyStep()
	s.AddNote(Note{Number: 60, Velocity: 100, Offset: -0.5, Length: 1}, Polyphony, StealClosest)
	tr.SetStep(2, s)

	assert.Equal(t, 36, tr.RenderTick(2))
	assert.Equal(t, 24, tr.RenderTick(1))
	assert.Zero(t, tr.PreRoll())

	tr.SetStep(0, s)
	assert.Equal(t, -0.5, tr.PreRoll())
}

func TestPolyTrack_Steps(t *testing.T) {
	tr := NewPolyTrack(nil)
	assert.Equal(t, DefaultNote, tr.RootNoteNumber())

	tr.SetStep(3, chordStep(67, 55))
	tr.SetStep(5, chordStep(48))
	assert.Equal(t, 55, tr.RootNoteNumber())

	tr.ToggleStep(3)
	assert.False(t, tr.Step(3).Enabled)
	assert.Equal(t, 48, tr.RootNoteNumber())

	tr.AddNote(5, NewNote(52), Polyphony)
	assert.Equal(t, []int{52, 48}, noteNumbers(tr.Step(5)))

	tr.ResetStep(5)
	assert.False(t, tr.Step(5).Enabled)

	tr.SetLength(0)
	assert.Equal(t, 1, tr.PendingLength())

	out := tr.Step(-1)
	assert.False(t, out.Enabled)
}
