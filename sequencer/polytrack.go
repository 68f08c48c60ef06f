package sequencer

// MaxLength is the number of steps a track can hold.
const MaxLength = 16

// PolyTrack is the polyphonic step sequencer. Overdub consults the voice
// limiter so rendered content matches what can actually sound.
type PolyTrack struct {
	*Part

	steps    [MaxLength]PolyStep
	limiter  *VoiceLimiter
	policy   StealingPolicy
	interval int
	overdub  bool
	rest     bool

	changed []int // steps modified by rendering, oldest first
}

// NewPolyTrack creates a 16-step 1/16 track with every step disabled.
func NewPolyTrack(limiter *VoiceLimiter) *PolyTrack {
	t := &PolyTrack{
		Part:    NewPart(MaxLength, Res16),
		limiter: limiter,
	}
	for i := range t.steps {
		t.steps[i].Reset()
	}
	t.SetRenderer(t)
	return t
}

// SetLength clamps to the track's capacity.
func (t *PolyTrack) SetLength(length int) {
	t.Part.SetLength(clampInt(length, 1, MaxLength))
}

// RenderTick renders early when a note in the step is pulled ahead of the beat.
func (t *PolyTrack) RenderTick(index int) int {
	offset := 0.0
	if index >= 0 && index < MaxLength && t.steps[index].Enabled {
		offset = t.steps[index].MinOffset()
	}
	return int((float64(index) + offset) * float64(t.TicksPerStep()))
}

// RenderStep plays step index. With overdub on, notes the limiter would
// refuse are removed from the step before it plays.
func (t *PolyTrack) RenderStep(index int) {
	if t.rest || index < 0 || index >= MaxLength {
		return
	}
	step := &t.steps[index]
	if !step.Enabled {
		return
	}

	if t.overdub && t.limiter != nil {
		modified := false
		for i := range step.Notes {
			n := step.Notes[i]
			if !n.Enabled() {
				continue
			}
			adm := t.limiter.TryNoteOn(n.Transposed(t.interval).Number, PrioritySequencer, t.policy)
			if !adm.Admitted {
				step.Notes[i].Number = DisabledNote
				modified = true
			}
		}
		if step.IsEmpty() {
			step.Reset()
		}
		if modified {
			t.markChanged(index)
		}
		if !step.Enabled {
			return
		}
	}

	for _, n := range step.Notes {
		if n.Enabled() {
			t.RenderNote(index, n.Transposed(t.interval))
		}
	}
}

func (t *PolyTrack) markChanged(index int) {
	for _, i := range t.changed {
		if i == index {
			return
		}
	}
	t.changed = append(t.changed, index)
}

// TakeChanged returns the steps modified since the last call.
func (t *PolyTrack) TakeChanged() []int {
	out := t.changed
	t.changed = nil
	return out
}

// Step returns a copy of step index.
func (t *PolyTrack) Step(index int) PolyStep {
	if index < 0 || index >= MaxLength {
		return NewPolyStep()
	}
	return t.steps[index]
}

// SetStep replaces step index.
func (t *PolyTrack) SetStep(index int, s PolyStep) {
	if index < 0 || index >= MaxLength {
		return
	}
	for i := range s.Notes {
		s.Notes[i].Offset = clampOffset(s.Notes[i].Offset)
	}
	if s.IsEmpty() {
		s.Reset()
	}
	t.steps[index] = s
}

// Steps returns a copy of every step.
func (t *PolyTrack) Steps() [MaxLength]PolyStep {
	return t.steps
}

// ResetStep clears step index.
func (t *PolyTrack) ResetStep(index int) {
	if index >= 0 && index < MaxLength {
		t.steps[index].Reset()
	}
}

// ToggleStep flips the enabled flag of step index.
func (t *PolyTrack) ToggleStep(index int) {
	if index < 0 || index >= MaxLength {
		return
	}
	s := &t.steps[index]
	s.Enabled = !s.Enabled
}

// AddNote records n into step index, honouring numVoices and the stealing
// policy.
func (t *PolyTrack) AddNote(index int, n Note, numVoices int) {
	if index < 0 || index >= MaxLength {
		return
	}
	t.steps[index].AddNote(n, numVoices, t.policy)
}

// RootNoteNumber is the lowest note of the first enabled step within the
// loop, or DefaultNote when nothing is enabled.
func (t *PolyTrack) RootNoteNumber() int {
	for i := 0; i < t.PendingLength() && i < MaxLength; i++ {
		s := &t.steps[i]
		if !s.Enabled {
			continue
		}
		if n, ok := s.LowestNote(); ok {
			return n
		}
	}
	return DefaultNote
}

// PreRoll is how far before step 0 the track must start so an early first
// step still renders, in fractional steps (zero or negative).
func (t *PolyTrack) PreRoll() float64 {
	if !t.steps[0].Enabled {
		return 0
	}
	return t.steps[0].MinOffset()
}

func (t *PolyTrack) SetTransposeInterval(semitones int) {
	t.interval = semitones
}

func (t *PolyTrack) TransposeInterval() int {
	return t.interval
}

func (t *PolyTrack) SetOverdub(on bool) {
	t.overdub = on
}

func (t *PolyTrack) Overdub() bool {
	return t.overdub
}

func (t *PolyTrack) SetRest(on bool) {
	t.rest = on
}

func (t *PolyTrack) Rest() bool {
	return t.rest
}

func (t *PolyTrack) SetStealingPolicy(p StealingPolicy) {
	t.policy = p
}
