package sequencer

import (
	"math/rand"

	"go-polyarp/debug"
)

// Key is a held note-on: what was pressed, how hard, where, and when.
type Key struct {
	Note     int
	Velocity int
	Channel  int
	Time     float64

	order uint64
}

// KeyboardState tracks held keys in press order. A note number is held at
// most once; pressing it again moves it to the back.
type KeyboardState struct {
	keys        []Key
	lastChannel int
	presses     uint64
	pressOrder  [128]uint64 // order of the most recent press per note, kept after release
}

// NoteOn records a press.
func (ks *KeyboardState) NoteOn(k Key) {
	if k.Note < 0 || k.Note > 127 {
		return
	}
	if i := ks.index(k.Note); i >= 0 {
		ks.keys = append(ks.keys[:i], ks.keys[i+1:]...)
	}
	ks.presses++
	k.order = ks.presses
	ks.pressOrder[k.Note] = k.order
	ks.keys = append(ks.keys, k)
	ks.lastChannel = k.Channel
}

// NoteOff releases note and returns its originating press. Releasing a note
// that is not held reports false.
func (ks *KeyboardState) NoteOff(note int) (Key, bool) {
	i := ks.index(note)
	if i < 0 {
		debug.Log("keys", "note-off for unheld note %d", note)
		return Key{}, false
	}
	k := ks.keys[i]
	ks.keys = append(ks.keys[:i], ks.keys[i+1:]...)
	return k, true
}

// Reset releases everything.
func (ks *KeyboardState) Reset() {
	ks.keys = ks.keys[:0]
}

func (ks *KeyboardState) IsKeyDown(note int) bool {
	return ks.index(note) >= 0
}

func (ks *KeyboardState) Len() int {
	return len(ks.keys)
}

func (ks *KeyboardState) Empty() bool {
	return len(ks.keys) == 0
}

// Keys returns the held keys in press order.
func (ks *KeyboardState) Keys() []Key {
	out := make([]Key, len(ks.keys))
	copy(out, ks.keys)
	return out
}

// Notes returns the held note numbers in press order.
func (ks *KeyboardState) Notes() []int {
	out := make([]int, len(ks.keys))
	for i, k := range ks.keys {
		out[i] = k.Note
	}
	return out
}

// Key returns the held press for note.
func (ks *KeyboardState) Key(note int) (Key, bool) {
	if i := ks.index(note); i >= 0 {
		return ks.keys[i], true
	}
	return Key{}, false
}

func (ks *KeyboardState) LastChannel() int {
	return ks.lastChannel
}

func (ks *KeyboardState) LowestNote() (int, bool) {
	if len(ks.keys) == 0 {
		return 0, false
	}
	lowest := ks.keys[0].Note
	for _, k := range ks.keys[1:] {
		if k.Note < lowest {
			lowest = k.Note
		}
	}
	return lowest, true
}

func (ks *KeyboardState) HighestNote() (int, bool) {
	if len(ks.keys) == 0 {
		return 0, false
	}
	highest := ks.keys[0].Note
	for _, k := range ks.keys[1:] {
		if k.Note > highest {
			highest = k.Note
		}
	}
	return highest, true
}

// HigherNote returns the closest held note above note.
func (ks *KeyboardState) HigherNote(note int) (int, bool) {
	found := false
	best := 0
	for _, k := range ks.keys {
		if k.Note > note && (!found || k.Note < best) {
			best, found = k.Note, true
		}
	}
	return best, found
}

// LowerNote returns the closest held note below note.
func (ks *KeyboardState) LowerNote(note int) (int, bool) {
	found := false
	best := 0
	for _, k := range ks.keys {
		if k.Note < note && (!found || k.Note > best) {
			best, found = k.Note, true
		}
	}
	return best, found
}

// NextNote returns the note pressed after note. If note has already been
// released, it falls back to the earliest held note pressed after it. A note
// that was never pressed has no successor.
func (ks *KeyboardState) NextNote(note int) (int, bool) {
	if i := ks.index(note); i >= 0 {
		if i+1 < len(ks.keys) {
			return ks.keys[i+1].Note, true
		}
		return 0, false
	}
	if note < 0 || note > 127 || ks.pressOrder[note] == 0 {
		return 0, false
	}
	ref := ks.pressOrder[note]
	for _, k := range ks.keys {
		if k.order > ref {
			return k.Note, true
		}
	}
	return 0, false
}

func (ks *KeyboardState) RandomNote(rng *rand.Rand) (int, bool) {
	if len(ks.keys) == 0 {
		return 0, false
	}
	return ks.keys[rng.Intn(len(ks.keys))].Note, true
}

func (ks *KeyboardState) EarliestNote() (int, bool) {
	if len(ks.keys) == 0 {
		return 0, false
	}
	return ks.keys[0].Note, true
}

func (ks *KeyboardState) LatestNote() (int, bool) {
	if len(ks.keys) == 0 {
		return 0, false
	}
	return ks.keys[len(ks.keys)-1].Note, true
}

// AverageVelocity is the mean over held keys, DefaultVelocity when empty.
func (ks *KeyboardState) AverageVelocity() int {
	if len(ks.keys) == 0 {
		return DefaultVelocity
	}
	sum := 0
	for _, k := range ks.keys {
		sum += k.Velocity
	}
	return sum / len(ks.keys)
}

// LatestVelocity is the velocity of the most recent press, DefaultVelocity
// when empty.
func (ks *KeyboardState) LatestVelocity() int {
	if len(ks.keys) == 0 {
		return DefaultVelocity
	}
	return ks.keys[len(ks.keys)-1].Velocity
}

func (ks *KeyboardState) index(note int) int {
	for i, k := range ks.keys {
		if k.Note == note {
			return i
		}
	}
	return -1
}
