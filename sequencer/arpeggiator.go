package sequencer

import (
	"math/rand"
	"slices"
	"sort"
	"time"
)

// ArpType selects how the next note is picked from the held keys.
type ArpType int

const (
	ArpManual ArpType = iota
	ArpRise
	ArpFall
	ArpRiseFall
	ArpRiseNFall
	ArpFallRise
	ArpFallNRise
	ArpShuffle
	ArpWalk
	ArpRandom
	ArpRandomTwo
	ArpRandomThree
	ArpChord
	numArpTypes
)

var arpTypeNames = [numArpTypes]string{
	"Manual", "Rise", "Fall", "Rise Fall", "Rise N' Fall", "Fall Rise", "Fall N' Rise",
	"Shuffle", "Walk", "Random 1", "Random 2", "Random 3", "Chord",
}

func (t ArpType) String() string {
	return arpTypeNames[t.clamp()]
}

func (t ArpType) clamp() ArpType {
	if t < 0 || t >= numArpTypes {
		return ArpRise
	}
	return t
}

// NumArpTypes counts the traversal modes.
const NumArpTypes = int(numArpTypes)

// VelocityMode picks the velocity of arpeggiated notes.
type VelocityMode int

const (
	VelocityManual  VelocityMode = iota // the originating key
	VelocityAverage                     // mean of held keys
	VelocityLast                        // most recent press
	VelocityFixed                       // a configured constant
	numVelocityModes
)

// NumVelocityModes counts the velocity choices.
const NumVelocityModes = int(numVelocityModes)

var velocityModeNames = [numVelocityModes]string{"Manual", "Average", "Last", "Fixed"}

func (v VelocityMode) String() string {
	if v < 0 || v >= numVelocityModes {
		return velocityModeNames[VelocityManual]
	}
	return velocityModeNames[v]
}

const (
	ArpMaxLength = 65536
	MaxOctaves   = 4
	MinGate      = 0.1
	MaxGate      = 2.0
)

// Arpeggiator turns the keys it holds into one step-quantized note stream.
// It starts muted; Start unmutes it once keys are held.
type Arpeggiator struct {
	*Part

	keyboard KeyboardState
	rng      *rand.Rand

	typ      ArpType
	gate     float64
	octave   int
	latch    bool
	euclid   EuclidPattern
	legato   bool
	velMode  VelocityMode
	fixedVel int

	lastNote      int
	rising        bool
	currentOctave int
	pool          []int // held notes across octaves, deduplicated and shuffled
}

// NewArpeggiator creates a rising 1/8 arpeggiator. A nil rng is seeded from
// the clock.
func NewArpeggiator(rng *rand.Rand) *Arpeggiator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a := &Arpeggiator{
		Part:     NewPart(ArpMaxLength, Res8),
		rng:      rng,
		typ:      ArpRise,
		gate:     DefaultLength,
		octave:   1,
		fixedVel: DefaultVelocity,
		rising:   true,
	}
	a.SetRenderer(a)
	a.SetStepAligned(true)
	a.SetMuted(true)
	return a
}

func (a *Arpeggiator) NoteOn(k Key) {
	a.keyboard.NoteOn(k)
	a.shufflePool()
}

// NoteOff releases a key unless latched. Releasing the last key stops the
// arpeggio and lets queued note-offs drain.
func (a *Arpeggiator) NoteOff(note int) {
	if a.latch {
		return
	}
	a.keyboard.NoteOff(note)
	if a.keyboard.Empty() {
		a.Stop(false)
		return
	}
	a.shufflePool()
}

// Start restarts from step 0. Without held keys it does nothing.
func (a *Arpeggiator) Start() {
	if a.keyboard.Empty() {
		return
	}
	a.Reset(0)
	a.SetMuted(false)
}

// Stop mutes and forgets held keys. With flush, sounding notes are released
// at once; otherwise queued note-offs still play out.
func (a *Arpeggiator) Stop(flush bool) {
	a.keyboard.Reset()
	a.pool = a.pool[:0]
	a.SetMuted(true)
	if flush {
		a.SendNoteOffNow()
	}
}

func (a *Arpeggiator) SetType(t ArpType) {
	a.typ = t.clamp()
}

func (a *Arpeggiator) Type() ArpType {
	return a.typ
}

func (a *Arpeggiator) SetOctave(octave int) {
	octave = clampInt(octave, 1, MaxOctaves)
	if octave == a.octave {
		return
	}
	a.octave = octave
	a.currentOctave = posMod(a.currentOctave, octave)
	a.shufflePool()
}

func (a *Arpeggiator) Octave() int {
	return a.octave
}

func (a *Arpeggiator) SetGate(gate float64) {
	a.gate = clampFloat(gate, MinGate, MaxGate)
}

func (a *Arpeggiator) Gate() float64 {
	return a.gate
}

func (a *Arpeggiator) SetEuclid(e EuclidPattern) {
	a.euclid = e.clamp()
}

func (a *Arpeggiator) Euclid() EuclidPattern {
	return a.euclid
}

func (a *Arpeggiator) SetEuclidLegato(on bool) {
	a.legato = on
}

func (a *Arpeggiator) SetVelocityMode(m VelocityMode) {
	if m < 0 || m >= numVelocityModes {
		m = VelocityManual
	}
	a.velMode = m
}

func (a *Arpeggiator) SetFixedVelocity(v int) {
	a.fixedVel = clampVelocity(v)
}

// SetLatch keeps released keys playing. Turning latch off stops the arpeggio.
func (a *Arpeggiator) SetLatch(on bool) {
	if a.latch == on {
		return
	}
	a.latch = on
	if !on {
		a.Stop(false)
	}
}

func (a *Arpeggiator) Latch() bool {
	return a.latch
}

// HeldNotes lists the keys feeding the arpeggio in press order.
func (a *Arpeggiator) HeldNotes() []int {
	return a.keyboard.Notes()
}

func (a *Arpeggiator) NumNotesHeld() int {
	return a.keyboard.Len()
}

// RenderTick renders on the beat.
func (a *Arpeggiator) RenderTick(index int) int {
	return index * a.TicksPerStep()
}

// RenderStep picks this step's note(s) and schedules them.
func (a *Arpeggiator) RenderStep(index int) {
	if a.keyboard.Empty() || !a.euclid.Hit(index) {
		return
	}

	var note int
	switch a.typ {
	case ArpManual:
		if index == 0 {
			note, _ = a.keyboard.EarliestNote()
			a.currentOctave = 0
		} else if n, ok := a.keyboard.NextNote(a.lastNote); ok {
			note = n
		} else {
			note, _ = a.keyboard.EarliestNote()
			a.octaveUp()
		}

	case ArpRise:
		if index == 0 {
			note, _ = a.keyboard.LowestNote()
			a.currentOctave = 0
		} else if n, ok := a.keyboard.HigherNote(a.lastNote); ok {
			note = n
		} else {
			note, _ = a.keyboard.LowestNote()
			a.octaveUp()
		}

	case ArpFall:
		if index == 0 {
			note, _ = a.keyboard.HighestNote()
			a.currentOctave = a.octave - 1
		} else if n, ok := a.keyboard.LowerNote(a.lastNote); ok {
			note = n
		} else {
			note, _ = a.keyboard.HighestNote()
			a.octaveDown()
		}

	case ArpRiseFall, ArpRiseNFall:
		if index == 0 {
			note, _ = a.keyboard.LowestNote()
			a.rising = true
			a.currentOctave = 0
		} else {
			note = a.adjacentNote(a.typ == ArpRiseNFall)
		}

	case ArpFallRise, ArpFallNRise:
		if index == 0 {
			note, _ = a.keyboard.HighestNote()
			a.rising = false
			a.currentOctave = a.octave - 1
		} else {
			note = a.adjacentNote(a.typ == ArpFallNRise)
		}

	case ArpRandom:
		note, _ = a.keyboard.RandomNote(a.rng)
		a.currentOctave = a.rng.Intn(a.octave)

	case ArpShuffle:
		if len(a.pool) == 0 {
			a.shufflePool()
		}
		lap := len(a.pool)
		if index%lap == 0 {
			a.shufflePool()
		}
		a.currentOctave = 0
		note = a.pool[index%lap]

	case ArpWalk:
		switch {
		case index == 0:
			note, _ = a.keyboard.RandomNote(a.rng)
			a.currentOctave = a.rng.Intn(a.octave)
		case a.rng.Intn(2) == 0:
			if n, ok := a.keyboard.HigherNote(a.lastNote); ok {
				note = n
			} else {
				note, _ = a.keyboard.LowestNote()
				a.octaveUp()
			}
		default:
			if n, ok := a.keyboard.LowerNote(a.lastNote); ok {
				note = n
			} else {
				note, _ = a.keyboard.HighestNote()
				a.octaveDown()
			}
		}

	case ArpRandomThree:
		if a.renderPool(index, 3) {
			return
		}
		fallthrough

	case ArpRandomTwo:
		if a.renderPool(index, 2) {
			return
		}
		note, _ = a.keyboard.LowestNote()
		a.currentOctave = 0

	case ArpChord:
		if index == 0 || len(a.pool) == 0 {
			a.shufflePool()
		}
		a.currentOctave = 0
		for _, n := range a.pool {
			a.renderArpNote(index, n)
		}
		return
	}

	a.lastNote = note
	a.renderArpNote(index, note)
}

// renderPool reshuffles and plays the first count pool entries together, if
// the pool has that many distinct notes.
func (a *Arpeggiator) renderPool(index, count int) bool {
	a.shufflePool()
	if len(a.pool) < count {
		return false
	}
	a.currentOctave = 0
	for _, n := range a.pool[:count] {
		a.renderArpNote(index, n)
	}
	return true
}

// adjacentNote steps one neighbour in the current direction, turning around
// at the outermost octave. With repeat the boundary note plays twice.
func (a *Arpeggiator) adjacentNote(repeat bool) int {
	if n, ok := a.neighbour(); ok {
		return n
	}

	if a.rising && a.currentOctave == a.octave-1 {
		a.rising = false
		if repeat {
			n, _ := a.keyboard.HighestNote()
			return n
		}
	} else if !a.rising && a.currentOctave == 0 {
		a.rising = true
		if repeat {
			n, _ := a.keyboard.LowestNote()
			return n
		}
	}

	if n, ok := a.neighbour(); ok {
		return n
	}
	if a.rising {
		n, _ := a.keyboard.LowestNote()
		a.octaveUp()
		return n
	}
	n, _ := a.keyboard.HighestNote()
	a.octaveDown()
	return n
}

func (a *Arpeggiator) neighbour() (int, bool) {
	if a.rising {
		return a.keyboard.HigherNote(a.lastNote)
	}
	return a.keyboard.LowerNote(a.lastNote)
}

func (a *Arpeggiator) octaveUp() {
	a.currentOctave = (a.currentOctave + 1) % a.octave
}

func (a *Arpeggiator) octaveDown() {
	a.currentOctave = posMod(a.currentOctave-1, a.octave)
}

func (a *Arpeggiator) renderArpNote(index, note int) {
	length := a.gate
	if a.legato {
		slots := a.euclid.Length()
		for k := 1; k < slots && !a.euclid.Hit(index+k); k++ {
			length++
		}
	}
	a.RenderNote(index, Note{
		Number:   wrapPitch(note + 12*a.currentOctave),
		Velocity: a.velocity(note),
		Length:   length,
	})
}

func (a *Arpeggiator) velocity(note int) int {
	switch a.velMode {
	case VelocityAverage:
		return a.keyboard.AverageVelocity()
	case VelocityLast:
		return a.keyboard.LatestVelocity()
	case VelocityFixed:
		return a.fixedVel
	}
	// pool entries may carry octave layers on top of the held key
	for n := note; n >= 0; n -= 12 {
		if k, ok := a.keyboard.Key(n); ok {
			return k.Velocity
		}
	}
	return DefaultVelocity
}

// shufflePool rebuilds the held-notes-by-octaves pool and shuffles it.
func (a *Arpeggiator) shufflePool() {
	a.pool = a.pool[:0]
	held := a.keyboard.Notes()
	for o := 0; o < a.octave; o++ {
		for _, n := range held {
			a.pool = append(a.pool, n+12*o)
		}
	}
	sort.Ints(a.pool)
	a.pool = slices.Compact(a.pool)
	a.rng.Shuffle(len(a.pool), func(i, j int) {
		a.pool[i], a.pool[j] = a.pool[j], a.pool[i]
	})
}
