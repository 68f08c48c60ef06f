package sequencer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-polyarp/midi"
)

type arpSeqHarness struct {
	a     *ArpSeq
	out   *midi.Collector
	clock *ManualClock
}

func newHarness(t *testing.T, edit func(*Params)) *arpSeqHarness {
	t.Helper()
	h := &arpSeqHarness{out: &midi.Collector{}, clock: &ManualClock{}}
	h.a = NewArpSeq(Options{
		Output: h.out,
		Clock:  h.clock,
		Rand:   rand.New(rand.NewSource(3)),
	})
	if edit != nil {
		p := h.a.Params()
		edit(&p)
		h.a.ApplyParams(p)
	}
	return h
}

func (h *arpSeqHarness) press(note, vel uint8) {
	h.a.HandleEvent(midi.NewNoteOn(0, note, vel).At(h.clock.Now()))
}

func (h *arpSeqHarness) release(note uint8) {
	h.a.HandleEvent(midi.NewNoteOff(0, note).At(h.clock.Now()))
}

func (h *arpSeqHarness) advance(seconds float64) {
	h.clock.Advance(seconds)
	h.a.Process(seconds)
}

type noteEvent struct {
	on   bool
	note int
}

func (h *arpSeqHarness) drain() []noteEvent {
	var out []noteEvent
	for _, ev := range h.out.Drain() {
		out = append(out, noteEvent{on: ev.IsNoteOn(), note: int(ev.Note)})
	}
	return out
}

func TestArpSeq_PassThroughWithoutArp(t *testing.T) {
	h := newHarness(t, nil)
	h.press(60, 100)
	h.release(60)

	evs := h.out.Events()
	require.Len(t, evs, 2)
	assert.True(t, evs[0].IsNoteOn())
	assert.Equal(t, uint8(100), evs[0].Velocity)
	assert.True(t, evs[1].IsNoteOff())
}

func TestArpSeq_OutputChannel(t *testing.T) {
	c := &midi.Collector{}
	a := NewArpSeq(Options{Output: c, Clock: &ManualClock{}, Channel: 9})
	a.HandleEvent(midi.NewNoteOn(2, 60, 100))

	evs := c.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, uint8(9), evs[0].Channel)
}

func TestArpSeq_VoiceLimitSteals(t *testing.T) {
	h := newHarness(t, func(p *Params) { p.NumVoices = 2 })
	h.press(60, 100)
	h.press(64, 100)
	h.press(67, 100)

	assert.Equal(t, []noteEvent{
		{true, 60},
		{true, 64},
		{false, 64},
		{true, 67},
	}, h.drain())
}

func TestArpSeq_Arpeggiates(t *testing.T) {
	h := newHarness(t, func(p *Params) { p.ArpOn = true })
	require.True(t, h.a.ArpOn())

	h.press(64, 100)
	h.press(60, 100)
	assert.Zero(t, h.out.Len(), "held keys feed the arpeggio only")

	h.advance(1.0)

	var ons []int
	for _, ev := range h.drain() {
		if ev.on {
			ons = append(ons, ev.note)
		}
	}
	assert.Equal(t, []int{60, 64, 60, 64}, ons)
}

func TestArpSeq_ArpLiftsVoiceBudget(t *testing.T) {
	h := newHarness(t, func(p *Params) {
		p.ArpOn = true
		p.NumVoices = 1
	})
	h.press(60, 100)
	h.press(64, 100)
	h.press(67, 100)
	assert.Equal(t, []int{60, 64, 67}, h.a.Arp().HeldNotes())

	p := h.a.Params()
	p.ArpOn = false
	h.a.ApplyParams(p)
	assert.LessOrEqual(t, h.a.VoiceLimiter().NumActiveVoices(), 1)
}

func TestArpSeq_Hold(t *testing.T) {
	h := newHarness(t, func(p *Params) { p.Hold = true })
	h.press(60, 100)
	h.release(60)
	assert.Equal(t, []noteEvent{{true, 60}}, h.drain())

	p := h.a.Params()
	p.Hold = false
	h.a.ApplyParams(p)
	assert.Equal(t, []noteEvent{{false, 60}}, h.drain())
	assert.True(t, h.a.Keyboard().Empty())
}

func TestArpSeq_AllNotesOff(t *testing.T) {
	h := newHarness(t, nil)
	h.press(60, 100)
	h.press(64, 100)
	h.a.HandleEvent(midi.Event{Type: midi.CC, Note: 123})

	sounding := map[int]int{}
	for _, ev := range h.drain() {
		if ev.on {
			sounding[ev.note]++
		} else {
			sounding[ev.note]--
		}
	}
	for n, c := range sounding {
		assert.Zero(t, c, "note %d left sounding", n)
	}
	assert.Zero(t, h.a.VoiceLimiter().NumActiveVoices())
	assert.True(t, h.a.Keyboard().Empty())
}

func TestArpSeq_KeyTriggerTransposes(t *testing.T) {
	h := newHarness(t, func(p *Params) {
		p.KeyTrigger = true
		p.KeyTriggerMode = KeyTriggerTranspose
	})
	h.a.SetStep(0, chordStep(60))
	assert.False(t, h.a.SequencerTicking())

	h.press(67, 100)
	assert.True(t, h.a.SequencerTicking())
	assert.Equal(t, 7, h.a.Seq().TransposeInterval())
	assert.Zero(t, h.out.Len(), "the trigger key is not played through")

	h.advance(0.01)
	evs := h.drain()
	require.NotEmpty(t, evs)
	assert.Equal(t, noteEvent{true, 67}, evs[0])

	h.release(67)
	assert.False(t, h.a.SequencerTicking())
}

func TestArpSeq_KeyTriggerFirst(t *testing.T) {
	h := newHarness(t, func(p *Params) {
		p.KeyTrigger = true
		p.KeyTriggerMode = KeyTriggerFirst
	})
	h.a.SetStep(0, chordStep(60))

	h.press(62, 100)
	assert.True(t, h.a.SequencerTicking())
	h.press(65, 100)
	assert.Equal(t, 2, h.a.Seq().TransposeInterval(), "later keys do not retarget")
	assert.Equal(t, []noteEvent{{true, 65}}, h.drain(), "later keys play through")

	h.release(65)
	assert.True(t, h.a.SequencerTicking())
	h.release(62)
	assert.False(t, h.a.SequencerTicking())
}

func TestArpSeq_RecordsQuantized(t *testing.T) {
	var changed []int
	h := newHarness(t, func(p *Params) {
		p.Armed = true
		p.SeqPlay = true
	})
	h.a.SetObserver(StepObserverFunc(func(index int, _ PolyStep) {
		changed = append(changed, index)
	}))
	require.True(t, h.a.SequencerTicking())

	h.press(62, 90)
	h.advance(0.125)
	h.release(62)

	step := h.a.Seq().Step(0)
	require.True(t, step.Enabled)
	notes := step.EnabledNotes()
	require.Len(t, notes, 1)
	assert.Equal(t, 62, notes[0].Number)
	assert.Equal(t, 90, notes[0].Velocity)
	assert.Zero(t, notes[0].Offset)
	assert.InDelta(t, 1.0, notes[0].Length, 1e-6)
	assert.Equal(t, []int{0}, changed)
}

func TestArpSeq_RecordsOffset(t *testing.T) {
	h := newHarness(t, func(p *Params) {
		p.Armed = true
		p.SeqPlay = true
		p.Quantize = false
	})

	h.advance(0.03125)
	h.press(62, 90)
	h.advance(0.0625)
	h.release(62)

	notes := h.a.Seq().Step(0).EnabledNotes()
	require.Len(t, notes, 1)
	assert.InDelta(t, 0.25, notes[0].Offset, 1e-6)
	assert.InDelta(t, 0.5, notes[0].Length, 1e-6)
}

func TestArpSeq_NoRecordingWhenDisarmed(t *testing.T) {
	h := newHarness(t, func(p *Params) { p.SeqPlay = true })
	h.press(62, 90)
	h.advance(0.125)
	h.release(62)
	assert.False(t, h.a.Seq().Step(0).Enabled)
}

func TestArpSeq_Swing(t *testing.T) {
	h := newHarness(t, func(p *Params) { p.Swing = 0.5 })
	one := h.a.oneTickTime()
	assert.InDelta(t, one*0.5, h.a.tickTime(), 1e-12, "even steps shrink")

	h.a.StartSequencer(true)
	h.a.seq.Reset(1)
	assert.InDelta(t, one*1.5, h.a.tickTime(), 1e-12, "odd steps stretch")
}

func TestArpSeq_ProcessDropsLongBacklog(t *testing.T) {
	h := newHarness(t, nil)
	h.a.Process(1e6)
	assert.Zero(t, h.a.elapsed)
}

func TestArpSeq_ApplyParamsClamps(t *testing.T) {
	h := newHarness(t, func(p *Params) {
		p.Bpm = 1000
		p.NumVoices = 0
	})
	assert.Equal(t, MaxBpm, h.a.Bpm())
	assert.Equal(t, MaxBpm, h.a.Params().Bpm)
	assert.Equal(t, 1, h.a.VoiceLimiter().NumVoices())
}
