package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols are the step-grid glyphs.
type Symbols struct {
	StepEmpty    rune // · disabled step
	StepNote     rune // ● one note
	StepChord    rune // ◆ several notes
	StepPlayhead rune // ▶ current step
	StepBeyond   rune // - past loop length

	CursorEmpty  rune // ○ cursor on disabled step
	CursorActive rune // ◉ cursor on enabled step
	CursorBeyond rune // □ cursor past loop length
}

func New(palette *Palette) *Theme {
	if palette == nil || len(palette.Colors) == 0 {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepNote:     '●',
			StepChord:    '◆',
			StepPlayhead: '▶',
			StepBeyond:   '-',

			CursorEmpty:  '○',
			CursorActive: '◉',
			CursorBeyond: '□',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Hex(t.Palette.Lookup(norm))
}

// Velocity colours a note by loudness, quiet notes towards the muted end.
func (t *Theme) Velocity(v int) lipgloss.Color {
	v = min(max(v, 0), 127)
	return t.Color(RoleMuted + (RoleSuccess-RoleMuted)*float64(v)/127)
}

// Hex converts an RGB triple to a lipgloss colour.
func Hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
