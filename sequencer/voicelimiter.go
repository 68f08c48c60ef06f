package sequencer

// Priority of a note source. Higher values may take voices from lower ones.
type Priority int

const (
	PrioritySequencer Priority = 0
	PriorityKeyboard  Priority = 1
)

func (p Priority) String() string {
	switch p {
	case PrioritySequencer:
		return "sequencer"
	case PriorityKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// StealingPolicy picks the victim when every voice is busy.
type StealingPolicy int

const (
	StealLRU     StealingPolicy = iota // least recently used eligible voice
	StealClosest                       // eligible voice nearest in pitch
)

func (s StealingPolicy) String() string {
	if s == StealClosest {
		return "closest"
	}
	return "lru"
}

// MaxVoices bounds the configurable voice count.
const MaxVoices = Polyphony

// bypassVoices is the capacity while bypassed: one voice per MIDI note.
const bypassVoices = 128

// Admission is the outcome of a note-on request. When Stole is set the
// caller must send a note-off for Stolen before the new note-on; a retrigger
// reports the incoming note itself.
type Admission struct {
	Admitted bool
	Stolen   int
	Stole    bool
}

type voice struct {
	note     int
	priority Priority
}

// VoiceLimiter admits notes against a fixed voice budget. Voices are kept in
// least-recently-used order, oldest first.
type VoiceLimiter struct {
	voices    []voice
	numVoices int
	cached    int
	bypassed  bool
}

func NewVoiceLimiter(numVoices int) *VoiceLimiter {
	return &VoiceLimiter{numVoices: clampInt(numVoices, 1, MaxVoices)}
}

// NoteOn admits note if it is already sounding at a priority no higher than
// p (retrigger), if a voice is free, or if an eligible voice can be stolen.
func (vl *VoiceLimiter) NoteOn(note int, p Priority, policy StealingPolicy) Admission {
	adm, victim := vl.decide(note, p, policy)
	if !adm.Admitted {
		return adm
	}
	if victim >= 0 {
		vl.remove(victim)
	}
	vl.voices = append(vl.voices, voice{note: note, priority: p})
	return adm
}

// TryNoteOn answers what NoteOn would do without changing anything.
func (vl *VoiceLimiter) TryNoteOn(note int, p Priority, policy StealingPolicy) Admission {
	adm, _ := vl.decide(note, p, policy)
	return adm
}

func (vl *VoiceLimiter) decide(note int, p Priority, policy StealingPolicy) (Admission, int) {
	if i := vl.index(note); i >= 0 {
		if vl.voices[i].priority > p {
			return Admission{}, -1
		}
		return Admission{Admitted: true, Stolen: note, Stole: true}, i
	}

	if len(vl.voices) < vl.numVoices {
		return Admission{Admitted: true}, -1
	}

	victim := -1
	switch policy {
	case StealClosest:
		best := 0
		for i, v := range vl.voices {
			if v.priority > p {
				continue
			}
			d := abs(v.note - note)
			if victim < 0 || d < best {
				victim, best = i, d
			}
		}
	default:
		for i, v := range vl.voices {
			if v.priority <= p {
				victim = i
				break
			}
		}
	}
	if victim < 0 {
		return Admission{}, -1
	}
	return Admission{Admitted: true, Stolen: vl.voices[victim].note, Stole: true}, victim
}

// NoteOff releases note if it sounds at a priority no higher than p.
func (vl *VoiceLimiter) NoteOff(note int, p Priority) bool {
	i := vl.index(note)
	if i < 0 || vl.voices[i].priority > p {
		return false
	}
	vl.remove(i)
	return true
}

// SetNumVoices changes the budget and returns the voices evicted to fit it,
// oldest first. While bypassed only the cached budget changes.
func (vl *VoiceLimiter) SetNumVoices(n int) []int {
	n = clampInt(n, 1, MaxVoices)
	if vl.bypassed {
		vl.cached = n
		return nil
	}
	vl.numVoices = n
	return vl.trim()
}

// NumVoices is the effective budget (the real one even while bypassed).
func (vl *VoiceLimiter) NumVoices() int {
	if vl.bypassed {
		return vl.cached
	}
	return vl.numVoices
}

// SetBypass lifts the budget while the arpeggiator does its own limiting.
// Leaving bypass restores the cached budget and returns evicted voices.
func (vl *VoiceLimiter) SetBypass(on bool) []int {
	if on == vl.bypassed {
		return nil
	}
	vl.bypassed = on
	if on {
		vl.cached = vl.numVoices
		vl.numVoices = bypassVoices
		return nil
	}
	vl.numVoices = vl.cached
	return vl.trim()
}

func (vl *VoiceLimiter) Bypassed() bool {
	return vl.bypassed
}

func (vl *VoiceLimiter) NumActiveVoices() int {
	return len(vl.voices)
}

// ActiveNotes lists sounding notes, least recently used first.
func (vl *VoiceLimiter) ActiveNotes() []int {
	out := make([]int, len(vl.voices))
	for i, v := range vl.voices {
		out[i] = v.note
	}
	return out
}

func (vl *VoiceLimiter) IsActive(note int) bool {
	return vl.index(note) >= 0
}

// Reset forgets every voice without touching the budget.
func (vl *VoiceLimiter) Reset() {
	vl.voices = vl.voices[:0]
}

func (vl *VoiceLimiter) trim() []int {
	var evicted []int
	for len(vl.voices) > vl.numVoices {
		evicted = append(evicted, vl.voices[0].note)
		vl.remove(0)
	}
	return evicted
}

func (vl *VoiceLimiter) index(note int) int {
	for i, v := range vl.voices {
		if v.note == note {
			return i
		}
	}
	return -1
}

func (vl *VoiceLimiter) remove(i int) {
	vl.voices = append(vl.voices[:i], vl.voices[i+1:]...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
