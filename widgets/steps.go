package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-polyarp/theme"
)

// StepCell is the display state of one sequencer step.
type StepCell struct {
	Notes    int // enabled notes in the step
	Velocity int // loudest enabled note
	Enabled  bool
	Playhead bool
	Cursor   bool
	Beyond   bool // past the loop length
}

// Glyph picks the symbol for a cell.
func (c StepCell) Glyph(s theme.Symbols) rune {
	if c.Cursor {
		switch {
		case c.Beyond:
			return s.CursorBeyond
		case c.Enabled:
			return s.CursorActive
		}
		return s.CursorEmpty
	}
	switch {
	case c.Beyond:
		return s.StepBeyond
	case c.Playhead:
		return s.StepPlayhead
	case !c.Enabled:
		return s.StepEmpty
	case c.Notes > 1:
		return s.StepChord
	}
	return s.StepNote
}

// RenderSteps draws cells in groups of four with step numbers underneath.
func RenderSteps(cells []StepCell, th *theme.Theme) string {
	var top, bottom strings.Builder
	for i, c := range cells {
		if i > 0 && i%4 == 0 {
			top.WriteString("  ")
			bottom.WriteString("  ")
		}

		style := lipgloss.NewStyle().Foreground(th.Muted())
		switch {
		case c.Cursor:
			style = style.Foreground(th.Cursor()).Bold(true)
		case c.Playhead && !c.Beyond:
			style = style.Foreground(th.Success())
		case c.Enabled && !c.Beyond:
			style = style.Foreground(th.Velocity(c.Velocity))
		}
		top.WriteString(style.Render(fmt.Sprintf(" %c ", c.Glyph(th.Symbols))))

		num := lipgloss.NewStyle().Foreground(th.Muted())
		bottom.WriteString(num.Render(fmt.Sprintf("%2d ", i+1)))
	}
	return top.String() + "\n" + bottom.String()
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName spells a MIDI note number with middle C as C4.
func NoteName(n int) string {
	if n < 0 || n > 127 {
		return "--"
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}

// NoteList spells notes separated by spaces, or a dash when empty.
func NoteList(notes []int) string {
	if len(notes) == 0 {
		return "-"
	}
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = NoteName(n)
	}
	return strings.Join(names, " ")
}
