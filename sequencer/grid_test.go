package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepPad(t *testing.T) {
	tests := []struct {
		index, row, col int
	}{
		{0, 7, 0},
		{7, 7, 7},
		{8, 6, 0},
		{15, 6, 7},
	}
	for _, tt := range tests {
		row, col := stepPad(tt.index)
		assert.Equal(t, tt.row, row, "step %d", tt.index)
		assert.Equal(t, tt.col, col, "step %d", tt.index)
	}

	for i := 0; i < MaxLength; i++ {
		got, ok := padStep(stepPad(i))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}

	_, ok := padStep(5, 0)
	assert.False(t, ok)
	_, ok = padStep(controlRow, 0)
	assert.False(t, ok)
	_, ok = padStep(7, 8)
	assert.False(t, ok)
}

func ledAt(leds []LEDState, row, col int) (LEDState, bool) {
	for _, l := range leds {
		if l.Row == row && l.Col == col {
			return l, true
		}
	}
	return LEDState{}, false
}

func TestRenderGridLEDs(t *testing.T) {
	a := NewArpSeq(Options{Clock: &ManualClock{}})
	a.SetStep(2, chordStep(60))
	p := a.Params()
	p.SeqLength = 8
	p.ArpOn = true
	a.ApplyParams(p)

	leds := renderGridLEDs(a, 0)

	l, _ := ledAt(leds, 7, 0)
	assert.Equal(t, colorPlayhead, l.Color)
	l, _ = ledAt(leds, 7, 2)
	assert.Equal(t, colorStepOn, l.Color)
	l, _ = ledAt(leds, 7, 1)
	assert.Equal(t, colorStepEmpty, l.Color)
	l, _ = ledAt(leds, 6, 1)
	assert.Equal(t, colorOff, l.Color, "beyond the loop")

	l, ok := ledAt(leds, controlRow, ctrlArp)
	require.True(t, ok)
	assert.Equal(t, colorArp, l.Color)
	_, ok = ledAt(leds, controlRow, ctrlPlay)
	assert.False(t, ok)
	_, ok = ledAt(leds, controlRow, ctrlPanic)
	assert.True(t, ok)
}

func TestDiffLEDs(t *testing.T) {
	prev := map[[2]int]LEDState{
		{7, 0}: {Row: 7, Col: 0, Color: colorStepOn},
		{8, 1}: {Row: 8, Col: 1, Color: colorArp},
	}

	same := []LEDState{
		{Row: 7, Col: 0, Color: colorStepOn},
		{Row: 8, Col: 1, Color: colorArp},
	}
	assert.Empty(t, diffLEDs(prev, same))

	next := []LEDState{
		{Row: 7, Col: 0, Color: colorPlayhead},
		{Row: 7, Col: 1, Color: colorStepEmpty},
	}
	updates := diffLEDs(prev, next)
	require.Len(t, updates, 3)
	assert.Equal(t, colorPlayhead, updates[0].Color)
	assert.Equal(t, 1, updates[1].Col)
	assert.Equal(t, 8, updates[2].Row)
	assert.Equal(t, colorOff, updates[2].Color)
}

func TestHandleGridPad(t *testing.T) {
	a := NewArpSeq(Options{Clock: &ManualClock{}})

	assert.True(t, handleGridPad(a, 7, 3))
	assert.True(t, a.Seq().Step(3).Enabled)

	assert.True(t, handleGridPad(a, controlRow, ctrlArp))
	assert.True(t, a.ArpOn())

	assert.True(t, handleGridPad(a, controlRow, ctrlPlay))
	assert.True(t, a.SequencerTicking())

	assert.True(t, handleGridPad(a, controlRow, ctrlPanic))
	assert.False(t, handleGridPad(a, controlRow, 6))
	assert.False(t, handleGridPad(a, 2, 2))
}

func TestPadLegend(t *testing.T) {
	legend := PadLegend()
	require.NotEmpty(t, legend)
	names := map[string]bool{}
	for _, e := range legend {
		assert.False(t, names[e.Name], "duplicate %s", e.Name)
		names[e.Name] = true
	}
}
