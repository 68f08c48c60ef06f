package sequencer

import (
	"math"
	"sort"

	"go-polyarp/debug"
	"go-polyarp/midi"
)

// TicksPer16th is the scheduler's time quantum: one sixteenth note spans
// this many ticks at any resolution.
const TicksPer16th = 24

// Resolution is the musical length of one step.
type Resolution int

const (
	Res32 Resolution = iota
	Res16
	Res8
	Res4
	Res2T
	Res4T
	Res8T
	Res16T
	numResolutions
)

var resolutionTicks = [numResolutions]int{12, 24, 48, 96, 64, 32, 16, 8}

var resolutionNames = [numResolutions]string{"1/32", "1/16", "1/8", "1/4", "1/2T", "1/4T", "1/8T", "1/16T"}

// Ticks is the number of ticks in one step.
func (r Resolution) Ticks() int {
	return resolutionTicks[r.clamp()]
}

func (r Resolution) String() string {
	return resolutionNames[r.clamp()]
}

func (r Resolution) clamp() Resolution {
	if r < 0 || r >= numResolutions {
		return Res16
	}
	return r
}

// Resolutions lists every choice in control-surface order.
func Resolutions() []Resolution {
	out := make([]Resolution, numResolutions)
	for i := range out {
		out[i] = Resolution(i)
	}
	return out
}

// StepRenderer supplies the musical content of a Part. RenderTick says on
// which tick step index is rendered; RenderStep schedules its notes through
// Part.RenderNote.
type StepRenderer interface {
	RenderStep(index int)
	RenderTick(index int) int
}

// Part is the tick engine shared by the arpeggiator and the step sequencer.
// It walks a loop of length steps, asks its renderer for notes at each step's
// render tick, and emits queued events to its sink as their tick comes due.
//
// Steps are centred on their grid line: step i owns ticks
// [i*tps - tps/2, i*tps + tps/2), so a note with a negative offset still
// belongs to the step it was written in.
type Part struct {
	channel uint8

	tick          int
	length        int
	pendingLength int
	res           Resolution
	pendingRes    Resolution
	muted         bool
	stepAligned   bool // commit resolution changes at step boundaries

	queue    []midi.Event // sorted by Tick, stable for equal ticks
	sounding [128]int     // emitted note-ons not yet matched by a note-off

	renderer StepRenderer
	out      midi.Sink
}

// NewPart creates an active part at tick 0.
func NewPart(length int, res Resolution) *Part {
	length = max(length, 1)
	res = res.clamp()
	return &Part{
		length:        length,
		pendingLength: length,
		res:           res,
		pendingRes:    res,
		out:           midi.Discard,
	}
}

// SetStepAligned makes resolution changes land at the next step boundary
// instead of the next loop wrap. Meant for parts whose loop never wraps in
// practice.
func (p *Part) SetStepAligned(on bool) {
	p.stepAligned = on
}

func (p *Part) SetRenderer(r StepRenderer) {
	p.renderer = r
}

// SetOutput routes emitted events. A nil sink discards.
func (p *Part) SetOutput(out midi.Sink) {
	if out == nil {
		out = midi.Discard
	}
	p.out = out
}

func (p *Part) SetChannel(ch uint8) {
	p.channel = ch & 0x0F
}

// Tick advances the part by one tick.
func (p *Part) Tick() {
	index := p.StepIndex()
	if !p.muted && p.renderer != nil && p.tick == p.renderer.RenderTick(index) {
		p.renderer.RenderStep(index)
	}

	p.emitDue()
	p.tick++

	tps, half := p.TicksPerStep(), p.halfStep()
	if posMod(p.tick, tps) == half {
		p.length = p.pendingLength
		if p.stepAligned && p.pendingRes != p.res {
			p.rescale()
		}
	}
	if p.tick >= p.length*p.TicksPerStep()-p.halfStep() {
		p.wrap()
	}
}

// rescale switches to the pending resolution at a step boundary, keeping the
// step index and the distance of every queued event from now.
func (p *Part) rescale() {
	step := floorDiv(p.tick-p.halfStep(), p.TicksPerStep())
	p.res = p.pendingRes
	tick := step*p.TicksPerStep() + p.halfStep()
	delta := int64(tick - p.tick)
	for i := range p.queue {
		p.queue[i].Tick += delta
	}
	p.tick = tick
}

// wrap rewinds to the pre-roll point of step 0 and rebases what is still
// queued so it keeps its distance from now.
func (p *Part) wrap() {
	p.res = p.pendingRes
	half := p.halfStep()
	shift := int64(p.tick + half)

	kept := p.queue[:0]
	for _, ev := range p.queue {
		ev.Tick -= shift
		if ev.Tick >= int64(-half) {
			kept = append(kept, ev)
		}
	}
	p.queue = kept
	p.tick = -half
}

func (p *Part) emitDue() {
	for len(p.queue) > 0 && p.queue[0].Tick <= int64(p.tick) {
		ev := p.queue[0]
		p.queue = p.queue[1:]
		p.emit(ev)
	}
}

func (p *Part) emit(ev midi.Event) {
	n := ev.Note & 0x7F
	switch {
	case ev.IsNoteOn():
		p.sounding[n]++
	case ev.IsNoteOff():
		if p.sounding[n] > 0 {
			p.sounding[n]--
		}
	}
	ev.Channel = p.channel
	if err := p.out.Send(ev); err != nil {
		debug.Log("sink", "part emit %s: %v", ev, err)
	}
}

// RenderNote schedules a note-on/off pair for step index. Disabled notes are
// dropped. Any queued note-off for the same pitch that would land after the
// new note-on is pulled forward to the note-on tick, so an earlier instance
// is always released before the new one starts.
func (p *Part) RenderNote(index int, n Note) {
	if !n.Enabled() {
		debug.Log("part", "dropped disabled note %d at step %d", n.Number, index)
		return
	}
	number := uint8(wrapPitch(n.Number))
	tps := float64(p.TicksPerStep())
	on := int64((float64(index) + n.Offset) * tps)
	off := int64((float64(index) + n.Offset + n.Length) * tps)
	if off <= on {
		off = on + 1
	}

	moved := 0
	for i := 0; i < len(p.queue); {
		ev := p.queue[i]
		if ev.IsNoteOff() && ev.Note == number && ev.Tick > on {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			moved++
			continue
		}
		i++
	}
	for ; moved > 0; moved-- {
		p.schedule(midi.Event{Type: midi.NoteOff, Note: number, Tick: on})
	}

	vel := uint8(clampVelocity(n.Velocity))
	p.schedule(midi.Event{Type: midi.NoteOn, Note: number, Velocity: vel, Tick: on})
	p.schedule(midi.Event{Type: midi.NoteOff, Note: number, Tick: off})
}

func (p *Part) schedule(ev midi.Event) {
	ev.Channel = p.channel
	i := sort.Search(len(p.queue), func(i int) bool { return p.queue[i].Tick > ev.Tick })
	p.queue = append(p.queue, midi.Event{})
	copy(p.queue[i+1:], p.queue[i:])
	p.queue[i] = ev
}

// SendNoteOffNow drops everything queued and releases every note this part
// has started.
func (p *Part) SendNoteOffNow() {
	p.queue = p.queue[:0]
	for n := range p.sounding {
		for ; p.sounding[n] > 0; p.sounding[n]-- {
			if err := p.out.Send(midi.Event{Type: midi.NoteOff, Channel: p.channel, Note: uint8(n)}); err != nil {
				debug.Log("sink", "part flush note %d: %v", n, err)
			}
		}
	}
}

// Reset releases sounding notes, clears the queue and moves to startIndex
// (fractional steps; negative values give a pre-roll). A pending resolution
// takes effect immediately.
func (p *Part) Reset(startIndex float64) {
	p.SendNoteOffNow()
	p.res = p.pendingRes
	p.length = p.pendingLength
	p.tick = int(math.Floor(float64(p.TicksPerStep()) * startIndex))
}

// SetLength changes the loop length at the next step boundary, or at once
// while muted.
func (p *Part) SetLength(length int) {
	p.pendingLength = max(length, 1)
	if p.muted {
		p.length = p.pendingLength
	}
}

// SetResolution changes the step size at the next loop wrap, or at once
// while muted.
func (p *Part) SetResolution(res Resolution) {
	p.pendingRes = res.clamp()
	if p.muted {
		p.res = p.pendingRes
	}
}

func (p *Part) SetMuted(muted bool) {
	p.muted = muted
}

func (p *Part) Muted() bool {
	return p.muted
}

func (p *Part) Length() int {
	return p.length
}

func (p *Part) PendingLength() int {
	return p.pendingLength
}

func (p *Part) Resolution() Resolution {
	return p.res
}

func (p *Part) CurrentTick() int {
	return p.tick
}

func (p *Part) TicksPerStep() int {
	return p.res.Ticks()
}

func (p *Part) halfStep() int {
	return p.TicksPerStep() / 2
}

// StepIndex is the step that owns the current tick.
func (p *Part) StepIndex() int {
	return floorDiv(p.tick+p.halfStep(), p.TicksPerStep())
}

// IsOnGrid reports whether the current tick sits exactly on a step line.
func (p *Part) IsOnGrid() bool {
	return posMod(p.tick, p.TicksPerStep()) == 0
}

// IsOnOddStep reports whether the current tick lies in an odd grid step.
func (p *Part) IsOnOddStep() bool {
	return posMod(floorDiv(p.tick, p.TicksPerStep()), 2) == 1
}

// Pending returns the number of queued events.
func (p *Part) Pending() int {
	return len(p.queue)
}

// Sounding reports how many unreleased note-ons this part has emitted for note.
func (p *Part) Sounding(note int) int {
	if note < 0 || note > 127 {
		return 0
	}
	return p.sounding[note]
}

func posMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
