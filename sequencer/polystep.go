package sequencer

import "sort"

// Polyphony is the number of note slots in a step.
const Polyphony = 10

// PolyStep holds up to Polyphony simultaneous notes. A step whose slots are
// all disabled behaves as a disabled step.
type PolyStep struct {
	Enabled bool            `json:"enabled"`
	Notes   [Polyphony]Note `json:"notes"`

	added [Polyphony]uint32 // insertion stamps for least-recently-added eviction
	clock uint32
}

// NewPolyStep returns a disabled step showing the default pitch.
func NewPolyStep() PolyStep {
	var s PolyStep
	s.Reset()
	return s
}

// Reset disables the step and clears every slot.
func (s *PolyStep) Reset() {
	s.Enabled = false
	for i := range s.Notes {
		s.Notes[i] = EmptyNote()
		s.added[i] = 0
	}
	s.Notes[0].Number = DefaultNote
	s.clock = 0
}

// IsEmpty reports whether no slot holds a note.
func (s PolyStep) IsEmpty() bool {
	for _, n := range s.Notes {
		if n.Enabled() {
			return false
		}
	}
	return true
}

// Sounding reports whether the step would render anything.
func (s PolyStep) Sounding() bool {
	return s.Enabled && !s.IsEmpty()
}

// EnabledNotes returns the enabled slots in slot order.
func (s PolyStep) EnabledNotes() []Note {
	var out []Note
	for _, n := range s.Notes {
		if n.Enabled() {
			out = append(out, n)
		}
	}
	return out
}

// LowestNote is the lowest enabled pitch.
func (s PolyStep) LowestNote() (int, bool) {
	found := false
	lowest := 0
	for _, n := range s.Notes {
		if n.Enabled() && (!found || n.Number < lowest) {
			lowest, found = n.Number, true
		}
	}
	return lowest, found
}

// MinOffset is the earliest offset among enabled notes, never above zero.
func (s PolyStep) MinOffset() float64 {
	lowest := 0.0
	for _, n := range s.Notes {
		if n.Enabled() && n.Offset < lowest {
			lowest = n.Offset
		}
	}
	return lowest
}

// Align copies velocity, offset and length onto every slot.
func (s *PolyStep) Align(velocity int, offset, length float64) {
	for i := range s.Notes {
		s.Notes[i].Velocity = velocity
		s.Notes[i].Offset = offset
		s.Notes[i].Length = length
	}
}

// AddNote inserts a note the way the voice limiter would admit it: replace
// the same pitch wherever it sits, else fill a free slot within the first
// numVoices, else evict one of those by policy. Returns the evicted pitch,
// if any.
func (s *PolyStep) AddNote(n Note, numVoices int, policy StealingPolicy) (int, bool) {
	if !n.Enabled() {
		return 0, false
	}
	n.Velocity = clampVelocity(n.Velocity)
	n.Offset = clampOffset(n.Offset)
	if n.Length <= 0 {
		n.Length = DefaultLength
	}
	numVoices = clampInt(numVoices, 1, Polyphony)

	if !s.Enabled {
		s.Reset()
		s.Notes[0] = n
		s.Align(n.Velocity, n.Offset, n.Length)
		s.stamp(0)
		s.Enabled = true
		return 0, false
	}

	for i := range s.Notes {
		if s.Notes[i].Enabled() && s.Notes[i].Number == n.Number {
			s.Notes[i] = n
			s.stamp(i)
			return 0, false
		}
	}

	for i := 0; i < numVoices; i++ {
		if !s.Notes[i].Enabled() {
			s.Notes[i] = n
			s.stamp(i)
			s.sortDescending()
			return 0, false
		}
	}

	victim := 0
	switch policy {
	case StealClosest:
		best := -1
		for i := 0; i < numVoices; i++ {
			if d := abs(s.Notes[i].Number - n.Number); best < 0 || d <= best {
				victim, best = i, d
			}
		}
	default:
		for i := 1; i < numVoices; i++ {
			if s.added[i] < s.added[victim] {
				victim = i
			}
		}
	}
	evicted := s.Notes[victim].Number
	s.Notes[victim] = n
	s.stamp(victim)
	s.sortDescending()
	return evicted, true
}

// RemoveNote disables the slot holding number. Removing the last note resets
// the step.
func (s *PolyStep) RemoveNote(number int) bool {
	for i := range s.Notes {
		if s.Notes[i].Number == number && s.Notes[i].Enabled() {
			s.Notes[i].Number = DisabledNote
			s.added[i] = 0
			if s.IsEmpty() {
				s.Reset()
			}
			return true
		}
	}
	return false
}

func (s *PolyStep) stamp(i int) {
	s.clock++
	s.added[i] = s.clock
}

// sortDescending orders slots high to low, disabled slots last.
func (s *PolyStep) sortDescending() {
	sort.Sort(byPitchDesc{s})
}

type byPitchDesc struct{ s *PolyStep }

func (b byPitchDesc) Len() int           { return Polyphony }
func (b byPitchDesc) Less(i, j int) bool { return b.s.Notes[i].Number > b.s.Notes[j].Number }
func (b byPitchDesc) Swap(i, j int) {
	b.s.Notes[i], b.s.Notes[j] = b.s.Notes[j], b.s.Notes[i]
	b.s.added[i], b.s.added[j] = b.s.added[j], b.s.added[i]
}
