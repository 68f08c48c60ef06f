package sequencer

// Note ranges. Numbers at or below DisabledNote mark an unused slot.
const (
	DisabledNote    = 20
	LowestNote      = 21
	HighestNote     = 127
	DefaultNote     = 60
	DefaultVelocity = 100
	DefaultLength   = 0.75
)

// Note is one rendered pitch. Offset and Length are in fractional steps.
type Note struct {
	Number   int     `json:"number"`
	Velocity int     `json:"velocity"`
	Offset   float64 `json:"offset"`
	Length   float64 `json:"length"`
}

// NewNote returns an enabled note with default velocity and length.
func NewNote(number int) Note {
	return Note{Number: number, Velocity: DefaultVelocity, Length: DefaultLength}
}

// EmptyNote is a disabled slot.
func EmptyNote() Note {
	return Note{Number: DisabledNote, Velocity: DefaultVelocity, Length: DefaultLength}
}

func (n Note) Enabled() bool {
	return n.Number > DisabledNote
}

// Transposed shifts the pitch, folding by octaves back into the playable
// range instead of clamping. Disabled notes stay disabled.
func (n Note) Transposed(semitones int) Note {
	if !n.Enabled() || semitones == 0 {
		return n
	}
	n.Number = wrapPitch(n.Number + semitones)
	return n
}

func wrapPitch(number int) int {
	for number > HighestNote {
		number -= 12
	}
	for number < LowestNote {
		number += 12
	}
	return number
}

// clampOffset keeps offsets inside [-0.5, 0.5] so an early note never
// renders inside the previous step's window.
func clampOffset(offset float64) float64 {
	return clampFloat(offset, -0.5, 0.5)
}

// wrapOffset folds a fractional deviation into [-0.5, 0.5).
func wrapOffset(offset float64) float64 {
	for offset >= 0.5 {
		offset -= 1
	}
	for offset < -0.5 {
		offset += 1
	}
	return offset
}

func clampVelocity(v int) int {
	return clampInt(v, 1, 127)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
