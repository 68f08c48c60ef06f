package sequencer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-polyarp/debug"
	"go-polyarp/midi"
)

// LED refresh rate
const ledFPS = 30

// DefaultTickRate is how often the runtime loop advances the engine.
const DefaultTickRate = time.Millisecond

// Manager hosts an ArpSeq on a goroutine: it serialises input, advances time
// from the engine clock and keeps the TUI and the step grid up to date.
type Manager struct {
	mu   sync.Mutex
	core *ArpSeq

	tickRate time.Duration
	input    chan midi.Event
	lastTime float64
	lastStep int

	store       *ProjectStore
	projectName string

	// LED rendering at fixed FPS
	controller midi.Controller
	ledDirty   bool
	prevLEDs   map[[2]int]LEDState

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wraps core. A zero tickRate uses DefaultTickRate; store may be
// nil when projects are not needed.
func NewManager(core *ArpSeq, tickRate time.Duration, store *ProjectStore) *Manager {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	m := &Manager{
		core:        core,
		tickRate:    tickRate,
		input:       make(chan midi.Event, 64),
		lastStep:    -1,
		store:       store,
		projectName: "default",
		prevLEDs:    make(map[[2]int]LEDState),
		UpdateChan:  make(chan struct{}, 1),
	}
	// the core only calls back while mu is held
	core.SetObserver(StepObserverFunc(func(int, PolyStep) { m.ledDirty = true }))
	return m
}

// Run advances the engine until ctx is done, then silences everything.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tickRate)
	defer ticker.Stop()

	ledCtx, stopLEDs := context.WithCancel(ctx)
	defer stopLEDs()
	go m.ledLoop(ledCtx)

	m.mu.Lock()
	m.lastTime = m.core.Now()
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.core.AllNotesOff()
			m.mu.Unlock()
			return
		case ev := <-m.input:
			m.mu.Lock()
			m.core.HandleEvent(ev)
			m.mu.Unlock()
			m.notifyUpdate()
		case <-ticker.C:
			m.advance()
		}
	}
}

// advance processes the time elapsed since the last call.
func (m *Manager) advance() {
	m.mu.Lock()
	now := m.core.Now()
	m.core.Process(now - m.lastTime)
	m.lastTime = now

	step := -1
	if m.core.SequencerTicking() {
		step = m.playhead()
	}
	changed := step != m.lastStep
	m.lastStep = step
	m.mu.Unlock()

	if changed {
		m.notifyUpdate()
	}
}

func (m *Manager) playhead() int {
	seq := m.core.Seq()
	return posMod(seq.StepIndex(), seq.Length())
}

// HandleNote queues a keyboard event, stamped with the engine clock. Events
// are dropped when the queue is full.
func (m *Manager) HandleNote(ev midi.Event) {
	ev = ev.At(m.core.Now())
	select {
	case m.input <- ev:
	default:
		debug.Log("keys", "input queue full, dropped %s", ev)
	}
}

// SetMIDIInput forwards a controller's notes into the engine until its
// channel closes.
func (m *Manager) SetMIDIInput(ctrl midi.Controller) {
	if ctrl == nil {
		return
	}
	go func() {
		for ev := range ctrl.NoteEvents() {
			m.HandleNote(ev)
		}
	}()
}

// SetController attaches a step grid. Its pads edit steps and its LEDs
// follow the playhead.
func (m *Manager) SetController(c midi.Controller) {
	debug.Log("device", "SetController %v, resetting diff state", c != nil)
	m.mu.Lock()
	m.controller = c
	m.prevLEDs = make(map[[2]int]LEDState)
	m.ledDirty = c != nil
	m.mu.Unlock()

	if c == nil {
		return
	}
	go func() {
		for ev := range c.PadEvents() {
			if ev.Pressed {
				m.HandlePad(ev.Row, ev.Col)
			}
		}
	}()
}

// HandlePad applies a grid press.
func (m *Manager) HandlePad(row, col int) {
	m.mu.Lock()
	handled := handleGridPad(m.core, row, col)
	m.mu.Unlock()
	if handled {
		m.notifyUpdate()
	}
}

func (m *Manager) markLEDsDirty() {
	m.mu.Lock()
	m.ledDirty = true
	m.mu.Unlock()
}

// ledLoop runs at fixed FPS and flushes LED updates
func (m *Manager) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flushLEDs()
		}
	}
}

// flushLEDs sends only changed LEDs to the controller (diffing + batching)
func (m *Manager) flushLEDs() {
	m.mu.Lock()
	if !m.ledDirty || m.controller == nil {
		m.mu.Unlock()
		return
	}
	m.ledDirty = false
	ctrl := m.controller
	newLEDs := renderGridLEDs(m.core, m.lastStep)
	updates := diffLEDs(m.prevLEDs, newLEDs)
	m.prevLEDs = make(map[[2]int]LEDState, len(newLEDs))
	for _, led := range newLEDs {
		m.prevLEDs[[2]int{led.Row, led.Col}] = led
	}
	m.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	debug.LogEvery(50, "device", "flushLEDs: batch=%d", len(updates))
	if err := ctrl.SetLEDBatch(updates); err != nil {
		debug.Log("device", "led batch: %v", err)
	}
}

// notifyUpdate refreshes LEDs and notifies TUI
func (m *Manager) notifyUpdate() {
	m.markLEDsDirty()
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Params returns the current control snapshot.
func (m *Manager) Params() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Params()
}

// SetParams applies a full control snapshot.
func (m *Manager) SetParams(p Params) {
	m.mu.Lock()
	m.core.ApplyParams(p)
	m.mu.Unlock()
	m.notifyUpdate()
}

// UpdateParams edits the current snapshot in place and applies it.
func (m *Manager) UpdateParams(edit func(p *Params)) {
	m.mu.Lock()
	p := m.core.Params()
	edit(&p)
	m.core.ApplyParams(p)
	m.mu.Unlock()
	m.notifyUpdate()
}

func (m *Manager) ToggleStep(index int) {
	m.mu.Lock()
	m.core.Seq().ToggleStep(index)
	m.mu.Unlock()
	m.notifyUpdate()
}

func (m *Manager) ClearStep(index int) {
	m.mu.Lock()
	m.core.Seq().ResetStep(index)
	m.mu.Unlock()
	m.notifyUpdate()
}

// AllNotesOff is the panic button.
func (m *Manager) AllNotesOff() {
	m.mu.Lock()
	m.core.AllNotesOff()
	m.mu.Unlock()
	m.notifyUpdate()
}

// View is a read-only copy of engine state for display.
type View struct {
	Params      Params
	Playhead    int // -1 while stopped
	Ticking     bool
	Length      int
	Steps       [MaxLength]PolyStep
	HeldNotes   []int
	ArpNotes    []int
	Voices      []int
	Transpose   int
	ProjectName string
}

// Snapshot copies what the TUI needs.
func (m *Manager) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq := m.core.Seq()
	return View{
		Params:      m.core.Params(),
		Playhead:    m.lastStep,
		Ticking:     m.core.SequencerTicking(),
		Length:      seq.PendingLength(),
		Steps:       seq.Steps(),
		HeldNotes:   m.core.Keyboard().Notes(),
		ArpNotes:    m.core.Arp().HeldNotes(),
		Voices:      m.core.VoiceLimiter().ActiveNotes(),
		Transpose:   seq.TransposeInterval(),
		ProjectName: m.projectName,
	}
}

var errNoStore = errors.New("no project store")

// SaveProject writes the current state as a new save of name.
func (m *Manager) SaveProject(name string) (string, error) {
	if m.store == nil {
		return "", errNoStore
	}
	m.mu.Lock()
	p := m.core.Project()
	m.mu.Unlock()

	file, err := m.store.Save(name, "", p)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.projectName = name
	m.mu.Unlock()
	debug.Log("project", "saved %s/%s", name, file)
	return file, nil
}

// LoadProject loads a save of name (the latest if filename is empty).
func (m *Manager) LoadProject(name, filename string) error {
	if m.store == nil {
		return errNoStore
	}
	p, err := m.store.Load(name, filename)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.core.LoadProject(p)
	m.projectName = name
	m.mu.Unlock()
	debug.Log("project", "loaded %s", name)
	m.notifyUpdate()
	return nil
}
