package sequencer

import (
	"math"
	"math/rand"

	"go-polyarp/debug"
	"go-polyarp/midi"
)

// maxTicksPerProcess bounds catch-up work after a long stall.
const maxTicksPerProcess = 4096

// StepObserver is told about step content changed by overdub or recording.
type StepObserver interface {
	StepChanged(index int, step PolyStep)
}

// StepObserverFunc adapts a function to StepObserver.
type StepObserverFunc func(index int, step PolyStep)

func (f StepObserverFunc) StepChanged(index int, step PolyStep) {
	f(index, step)
}

// Options wires an ArpSeq to its collaborators. Zero values are usable:
// output is discarded, time is monotonic and randomness is clock-seeded.
type Options struct {
	Output   midi.Sink
	Clock    Clock
	Rand     *rand.Rand
	Observer StepObserver
	Channel  uint8 // 0-based output channel
}

// ArpSeq conducts one arpeggiator and one step sequencer from a single
// Process call. Keyboard and sequencer notes both pass the voice limiter
// before they reach the arpeggiator, which either plays them through or
// arpeggiates them.
//
// ArpSeq is not safe for concurrent use; the host serialises calls.
type ArpSeq struct {
	arp      *Arpeggiator
	seq      *PolyTrack
	limiter  *VoiceLimiter
	keyboard KeyboardState
	noteStep [128]int

	bpm     float64
	swing   float64
	elapsed float64
	policy  StealingPolicy

	seqTicking   bool
	seqArmed     bool
	quantize     bool
	seqStartTime float64
	seqPauseTime float64

	keyTrigger     bool
	keyTriggerMode KeyTriggerMode
	hold           bool
	arpOn          bool

	params Params

	out      midi.Sink
	clock    Clock
	observer StepObserver
	channel  uint8
}

func NewArpSeq(opts Options) *ArpSeq {
	if opts.Output == nil {
		opts.Output = midi.Discard
	}
	if opts.Clock == nil {
		opts.Clock = NewMonotonicClock()
	}

	a := &ArpSeq{
		limiter:  NewVoiceLimiter(MaxVoices),
		arp:      NewArpeggiator(opts.Rand),
		bpm:      120,
		policy:   StealClosest,
		quantize: true,
		out:      opts.Output,
		clock:    opts.Clock,
		observer: opts.Observer,
		channel:  opts.Channel & 0x0F,
	}
	a.seq = NewPolyTrack(a.limiter)
	a.seq.SetStealingPolicy(a.policy)
	a.arp.SetOutput(midi.SinkFunc(a.fromArp))
	a.seq.SetOutput(midi.SinkFunc(a.fromSeq))

	a.params = DefaultParams()
	a.applyAll(a.params)
	return a
}

func (a *ArpSeq) Arp() *Arpeggiator {
	return a.arp
}

func (a *ArpSeq) Seq() *PolyTrack {
	return a.seq
}

func (a *ArpSeq) VoiceLimiter() *VoiceLimiter {
	return a.limiter
}

// Keyboard exposes the conductor's view of held keys.
func (a *ArpSeq) Keyboard() *KeyboardState {
	return &a.keyboard
}

func (a *ArpSeq) SetObserver(o StepObserver) {
	a.observer = o
}

func (a *ArpSeq) Now() float64 {
	return a.clock.Now()
}

// Process advances time by dt seconds, ticking the sequencer and then the
// arpeggiator once per elapsed tick.
func (a *ArpSeq) Process(dt float64) {
	if dt > 0 {
		a.elapsed += dt
	}
	for n := 0; ; n++ {
		t := a.tickTime()
		if a.elapsed < t {
			return
		}
		if n == maxTicksPerProcess {
			debug.Log("clock", "dropping %.3fs of backlog", a.elapsed)
			a.elapsed = 0
			return
		}
		a.elapsed -= t
		a.tick()
	}
}

func (a *ArpSeq) tick() {
	if a.seqTicking {
		a.seq.Tick()
		a.notifyChanged()
	}
	// the sequencer feeds the arpeggiator, so it ticks first
	a.arp.Tick()
}

func (a *ArpSeq) oneTickTime() float64 {
	return 15.0 / a.bpm / TicksPer16th
}

// tickTime stretches ticks on odd steps and shrinks them on even ones.
func (a *ArpSeq) tickTime() float64 {
	t := a.oneTickTime()
	if a.swing == 0 {
		return t
	}
	odd := a.arp.IsOnOddStep()
	if a.seqTicking {
		odd = a.seq.IsOnOddStep()
	}
	if odd {
		return t * (1 + a.swing)
	}
	return t * (1 - a.swing)
}

func (a *ArpSeq) notifyChanged() {
	for _, i := range a.seq.TakeChanged() {
		if a.observer != nil {
			a.observer.StepChanged(i, a.seq.Step(i))
		}
	}
}

// HandleEvent routes an input event. Only notes and CC 123 (all notes off)
// are understood.
func (a *ArpSeq) HandleEvent(ev midi.Event) {
	switch {
	case ev.IsNoteOn():
		a.NoteOn(ev)
	case ev.IsNoteOff():
		a.NoteOff(ev)
	case ev.Type == midi.CC && ev.Note == 123:
		a.AllNotesOff()
	}
}

// NoteOn handles a keyboard press.
func (a *ArpSeq) NoteOn(ev midi.Event) {
	n := int(ev.Note & 0x7F)
	first := a.keyboard.Empty()
	a.keyboard.NoteOn(Key{Note: n, Velocity: int(ev.Velocity), Channel: int(ev.Channel), Time: ev.Time})

	swallowed := false
	if a.keyTrigger {
		switch a.keyTriggerMode {
		case KeyTriggerLast:
			a.StartSequencer(true)
			a.updateTranspose()
			swallowed = true
		case KeyTriggerTranspose:
			if first {
				a.StartSequencer(true)
			}
			a.updateTranspose()
			swallowed = true
		case KeyTriggerFirst:
			if first {
				a.StartSequencer(true)
				a.updateTranspose()
				swallowed = true
			}
		}
	}
	a.noteStep[n] = a.seq.StepIndex()

	if !swallowed {
		a.toVoiceLimiter(ev, PriorityKeyboard)
	}
}

// NoteOff handles a keyboard release.
func (a *ArpSeq) NoteOff(ev midi.Event) {
	a.noteOff(ev, true)
}

func (a *ArpSeq) noteOff(ev midi.Event, record bool) {
	if a.hold {
		return
	}
	n := int(ev.Note & 0x7F)
	if !a.keyboard.IsKeyDown(n) {
		return
	}

	earliest, _ := a.keyboard.EarliestNote()
	latest, _ := a.keyboard.LatestNote()
	pressed, _ := a.keyboard.NoteOff(n)

	if a.keyTrigger {
		switch a.keyTriggerMode {
		case KeyTriggerFirst:
			if n == earliest {
				a.StopSequencer()
			}
		case KeyTriggerLast:
			a.updateTranspose()
			if n == latest {
				a.StopSequencer()
			}
		case KeyTriggerTranspose:
			a.updateTranspose()
			if a.keyboard.Empty() {
				a.StopSequencer()
			}
		}
	}

	if record && a.seqArmed && a.seqTicking {
		a.record(pressed, ev)
	}

	a.toVoiceLimiter(ev, PriorityKeyboard)
}

// record writes a played note into the step it was pressed in.
func (a *ArpSeq) record(on Key, off midi.Event) {
	stepTime := float64(a.seq.TicksPerStep()) * a.oneTickTime()

	offset := 0.0
	if !a.quantize {
		steps := (on.Time - a.seqStartTime) / stepTime
		offset = wrapOffset(steps - math.Round(steps))
	}
	length := (off.Time - on.Time) / stepTime
	length = math.Min(length, float64(a.seq.Length()))
	length = math.Max(length, 1/float64(a.seq.TicksPerStep()))

	index := a.noteStep[on.Note]
	a.seq.AddNote(index, Note{
		Number:   on.Note,
		Velocity: on.Velocity,
		Offset:   offset,
		Length:   length,
	}, a.limiter.NumVoices())
	debug.Log("record", "note %d step %d offset %.2f length %.2f", on.Note, index, offset, length)

	if a.observer != nil {
		a.observer.StepChanged(index, a.seq.Step(index))
	}
}

// updateTranspose retargets the sequencer to the key that leads it.
func (a *ArpSeq) updateTranspose() {
	var lead int
	var ok bool
	if a.keyTriggerMode == KeyTriggerFirst {
		lead, ok = a.keyboard.EarliestNote()
	} else {
		lead, ok = a.keyboard.LatestNote()
	}
	if !ok {
		a.seq.SetTransposeInterval(0)
		return
	}
	a.seq.SetTransposeInterval(lead - a.seq.RootNoteNumber())
}

func (a *ArpSeq) fromSeq(ev midi.Event) error {
	a.toVoiceLimiter(ev.At(a.clock.Now()), PrioritySequencer)
	return nil
}

func (a *ArpSeq) fromArp(ev midi.Event) error {
	a.emit(ev.At(a.clock.Now()))
	return nil
}

func (a *ArpSeq) toVoiceLimiter(ev midi.Event, p Priority) {
	n := int(ev.Note)
	switch {
	case ev.IsNoteOn():
		adm := a.limiter.NoteOn(n, p, a.policy)
		if !adm.Admitted {
			debug.Log("voice", "%s note %d dropped: no voice", p, n)
			return
		}
		if adm.Stole {
			a.toArp(midi.NewNoteOff(ev.Channel, uint8(adm.Stolen)).At(ev.Time))
		}
		a.toArp(ev)
	case ev.IsNoteOff():
		if !a.limiter.NoteOff(n, p) {
			debug.Log("voice", "%s note-off %d ignored: not owned", p, n)
			return
		}
		a.toArp(ev)
	}
}

// toArp feeds the arpeggiator and plays the note through while it is muted.
func (a *ArpSeq) toArp(ev midi.Event) {
	switch {
	case ev.IsNoteOn():
		a.arp.NoteOn(Key{Note: int(ev.Note), Velocity: int(ev.Velocity), Channel: int(ev.Channel), Time: ev.Time})
		if a.arpOn {
			a.startArp()
		}
	case ev.IsNoteOff():
		a.arp.NoteOff(int(ev.Note))
	}
	if a.arp.Muted() {
		a.emit(ev)
	}
}

func (a *ArpSeq) emit(ev midi.Event) {
	ev.Channel = a.channel
	if err := a.out.Send(ev); err != nil {
		debug.Log("sink", "emit %s: %v", ev, err)
	}
}

func (a *ArpSeq) startArp() {
	if a.arp.Muted() {
		a.arp.Start()
	}
}

// StartSequencer starts ticking the sequencer. With reset it restarts from
// step 0; without, it resumes where it paused and does nothing if running.
func (a *ArpSeq) StartSequencer(reset bool) {
	if !reset && a.seqTicking {
		return
	}
	now := a.clock.Now()
	if reset {
		preRoll := a.seq.PreRoll()
		a.seq.Reset(preRoll)
		a.seqStartTime = now - preRoll*float64(a.seq.TicksPerStep())*a.oneTickTime()
	} else {
		a.seqStartTime += now - a.seqPauseTime
	}
	a.seqTicking = true
	a.elapsed = 0
}

// StopSequencer stops ticking and releases the sequencer's notes.
func (a *ArpSeq) StopSequencer() {
	a.seqTicking = false
	a.seq.SendNoteOffNow()
	a.seqPauseTime = a.clock.Now()
}

// SetSequencerPlay is the transport toggle: play restarts from the top,
// stop rewinds and stops.
func (a *ArpSeq) SetSequencerPlay(play bool) {
	a.StartSequencer(true)
	if !play {
		a.StopSequencer()
	}
}

func (a *ArpSeq) SequencerTicking() bool {
	return a.seqTicking
}

func (a *ArpSeq) SetSequencerArmed(on bool) {
	a.seqArmed = on
	a.seq.SetOverdub(on)
}

func (a *ArpSeq) SetSequencerRest(on bool) {
	a.seq.SetRest(on)
}

func (a *ArpSeq) SetQuantizeRec(on bool) {
	a.quantize = on
}

// SetArp switches arpeggiation. Turning it on lifts the voice budget,
// silences what is sounding and arpeggiates the held keys.
func (a *ArpSeq) SetArp(on bool) {
	a.arpOn = on
	if on {
		a.limiter.SetBypass(true)
		a.sendAllNotesOffToOutput()
		a.startArp()
		return
	}
	a.arp.Stop(true)
	for _, n := range a.limiter.SetBypass(false) {
		a.releaseVoice(n)
	}
}

func (a *ArpSeq) ArpOn() bool {
	return a.arpOn
}

// SetHold ignores key releases while on. Turning it off releases every key.
func (a *ArpSeq) SetHold(on bool) {
	a.hold = on
	if !on {
		a.releaseKeys()
	}
}

func (a *ArpSeq) SetKeyTrigger(on bool) {
	a.keyTrigger = on
	if !on {
		a.StopSequencer()
		a.seq.SetTransposeInterval(0)
	}
}

func (a *ArpSeq) SetKeyTriggerMode(m KeyTriggerMode) {
	a.keyTriggerMode = m
}

func (a *ArpSeq) SetBpm(bpm float64) {
	a.bpm = clampFloat(bpm, MinBpm, MaxBpm)
}

func (a *ArpSeq) Bpm() float64 {
	return a.bpm
}

func (a *ArpSeq) SetSwing(swing float64) {
	a.swing = clampFloat(swing, -MaxSwing, MaxSwing)
}

// SetNumVoices changes the voice budget; voices that no longer fit are
// released.
func (a *ArpSeq) SetNumVoices(n int) {
	for _, note := range a.limiter.SetNumVoices(n) {
		a.releaseVoice(note)
	}
}

func (a *ArpSeq) SetStealingPolicy(p StealingPolicy) {
	a.policy = p
	a.seq.SetStealingPolicy(p)
}

// AllNotesOff releases every key, flushes both parts and silences any voice
// still marked as sounding.
func (a *ArpSeq) AllNotesOff() {
	hold := a.hold
	a.hold = false
	a.releaseKeys()
	a.hold = hold

	a.seq.SendNoteOffNow()
	a.arp.Stop(true)
	a.sendAllNotesOffToOutput()
	a.limiter.Reset()
}

func (a *ArpSeq) releaseKeys() {
	now := a.clock.Now()
	for _, k := range a.keyboard.Keys() {
		a.noteOff(midi.NewNoteOff(uint8(k.Channel), uint8(k.Note)).At(now), false)
	}
}

// releaseVoice sends the note-off for a voice the limiter dropped.
func (a *ArpSeq) releaseVoice(note int) {
	a.toArp(midi.NewNoteOff(a.channel, uint8(note)).At(a.clock.Now()))
}

func (a *ArpSeq) sendAllNotesOffToOutput() {
	now := a.clock.Now()
	for _, n := range a.limiter.ActiveNotes() {
		a.emit(midi.NewNoteOff(a.channel, uint8(n)).At(now))
	}
}

// SetStep replaces step content, e.g. from a loaded project.
func (a *ArpSeq) SetStep(index int, s PolyStep) {
	a.seq.SetStep(index, s)
}

// Params returns the last applied control-surface snapshot.
func (a *ArpSeq) Params() Params {
	return a.params
}

// ApplyParams pushes a control-surface snapshot. Toggles that start or stop
// something only act when their value changes.
func (a *ArpSeq) ApplyParams(p Params) {
	p = p.Clamped()
	prev := a.params
	a.params = p

	a.applyContinuous(p)

	if p.Hold != prev.Hold {
		a.SetHold(p.Hold)
	}
	if p.KeyTrigger != prev.KeyTrigger {
		a.SetKeyTrigger(p.KeyTrigger)
	}
	if p.SeqPlay != prev.SeqPlay {
		a.SetSequencerPlay(p.SeqPlay)
	}
	if p.ArpOn != prev.ArpOn {
		a.SetArp(p.ArpOn)
	}
}

func (a *ArpSeq) applyAll(p Params) {
	a.applyContinuous(p)
	a.hold = p.Hold
	a.keyTrigger = p.KeyTrigger
	a.arpOn = p.ArpOn
	a.limiter.SetBypass(p.ArpOn)
}

func (a *ArpSeq) applyContinuous(p Params) {
	a.SetBpm(p.Bpm)
	a.SetSwing(p.Swing)

	a.arp.SetType(p.ArpType)
	a.arp.SetOctave(p.ArpOctave)
	a.arp.SetGate(p.ArpGate)
	a.arp.SetResolution(p.ArpResolution)
	a.arp.SetEuclid(p.Euclid)
	a.arp.SetEuclidLegato(p.EuclidLegato)
	a.arp.SetVelocityMode(p.VelocityMode)
	a.arp.SetFixedVelocity(p.FixedVelocity)
	a.arp.SetLatch(p.Latch)

	a.seq.SetLength(p.SeqLength)
	a.seq.SetResolution(p.SeqResolution)
	a.SetSequencerArmed(p.Armed)
	a.SetSequencerRest(p.Rest)
	a.SetQuantizeRec(p.Quantize)
	a.SetKeyTriggerMode(p.KeyTriggerMode)
	a.SetStealingPolicy(p.StealingPolicy)
	a.SetNumVoices(p.NumVoices)
}
