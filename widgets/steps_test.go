package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-polyarp/theme"
)

func TestStepCell_Glyph(t *testing.T) {
	s := theme.New(nil).Symbols
	tests := []struct {
		name string
		cell StepCell
		want rune
	}{
		{name: "empty", cell: StepCell{}, want: s.StepEmpty},
		{name: "single note", cell: StepCell{Enabled: true, Notes: 1}, want: s.StepNote},
		{name: "chord", cell: StepCell{Enabled: true, Notes: 3}, want: s.StepChord},
		{name: "playhead", cell: StepCell{Enabled: true, Notes: 1, Playhead: true}, want: s.StepPlayhead},
		{name: "beyond loop", cell: StepCell{Enabled: true, Playhead: true, Beyond: true}, want: s.StepBeyond},
		{name: "cursor on empty", cell: StepCell{Cursor: true}, want: s.CursorEmpty},
		{name: "cursor on note", cell: StepCell{Cursor: true, Enabled: true, Notes: 1}, want: s.CursorActive},
		{name: "cursor beyond", cell: StepCell{Cursor: true, Beyond: true}, want: s.CursorBeyond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, string(tt.want), string(tt.cell.Glyph(s)))
		})
	}
}

func TestRenderSteps(t *testing.T) {
	th := theme.New(nil)
	cells := make([]StepCell, 8)
	cells[0] = StepCell{Enabled: true, Notes: 1, Velocity: 100}
	cells[5] = StepCell{Cursor: true}

	out := RenderSteps(cells, th)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], string(th.Symbols.StepNote))
	assert.Contains(t, lines[0], string(th.Symbols.CursorEmpty))
	assert.Contains(t, lines[1], " 8")
}

func TestNoteName(t *testing.T) {
	tests := map[int]string{
		60:  "C4",
		61:  "C#4",
		21:  "A0",
		0:   "C-1",
		127: "G9",
		-1:  "--",
		128: "--",
	}
	for n, want := range tests {
		assert.Equal(t, want, NoteName(n), "note %d", n)
	}
}

func TestNoteList(t *testing.T) {
	assert.Equal(t, "-", NoteList(nil))
	assert.Equal(t, "C4 E4 G4", NoteList([]int{60, 64, 67}))
}

func TestRenderLegend(t *testing.T) {
	out := RenderLegend([]LegendItem{
		{Color: [3]uint8{0, 255, 0}, Name: "step", Desc: "enabled step"},
		{Color: [3]uint8{255, 0, 0}, Name: "arm", Desc: "recording"},
	})
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "step - enabled step")
	assert.Contains(t, out, "arm - recording")
}
