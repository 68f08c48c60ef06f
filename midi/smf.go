package midi

import (
	"fmt"
	"io"
	"math"
	"sync"

	"gitlab.com/gomidi/midi/v2/smf"
)

// SMFResolution is the ticks-per-quarter of recorded files.
const SMFResolution = 960

// SMFRecorder is a Sink that captures emitted events and writes them out as
// a single-track Standard MIDI File. Event times are wall-clock seconds; the
// first captured event becomes time zero.
type SMFRecorder struct {
	mu     sync.Mutex
	bpm    float64
	events []Event
}

func NewSMFRecorder(bpm float64) *SMFRecorder {
	if bpm <= 0 {
		bpm = 120
	}
	return &SMFRecorder{bpm: bpm}
}

func (r *SMFRecorder) Send(ev Event) error {
	if ev.Message() == nil {
		return nil
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *SMFRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// SetTempo changes the tempo used to convert seconds into file ticks.
func (r *SMFRecorder) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	r.mu.Lock()
	r.bpm = bpm
	r.mu.Unlock()
}

// Build assembles the captured events into an SMF.
func (r *SMFRecorder) Build() (*smf.SMF, error) {
	r.mu.Lock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	bpm := r.bpm
	r.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(SMFResolution)

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(bpm))

	ticksPerSecond := bpm / 60 * SMFResolution
	var last int64
	for i, ev := range events {
		abs := int64(math.Round((ev.Time - events[0].Time) * ticksPerSecond))
		if abs < last {
			abs = last
		}
		delta := uint32(abs - last)
		last = abs
		if i == 0 {
			delta = 0
		}
		track.Add(delta, ev.Message())
	}
	track.Close(0)

	if err := sm.Add(track); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}
	return sm, nil
}

// WriteTo writes the file to w.
func (r *SMFRecorder) WriteTo(w io.Writer) (int64, error) {
	sm, err := r.Build()
	if err != nil {
		return 0, err
	}
	return sm.WriteTo(w)
}

// WriteFile writes the file to path.
func (r *SMFRecorder) WriteFile(path string) error {
	sm, err := r.Build()
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
