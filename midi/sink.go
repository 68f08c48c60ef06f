package midi

import (
	"sync"

	"go.uber.org/multierr"
)

// Sink accepts events in emission order. There is no ack or backpressure;
// an error only reports that this particular event was lost.
type Sink interface {
	Send(ev Event) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ev Event) error

func (f SinkFunc) Send(ev Event) error {
	return f(ev)
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(Event) error { return nil })

// Collector buffers events until drained. Safe for one writer and one
// reader on different goroutines.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Send(ev Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

// Drain returns and clears everything collected so far.
func (c *Collector) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

// Events returns a copy without clearing.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Tee fans one event out to several sinks. Every sink is tried; the
// failures are combined.
type Tee []Sink

func (t Tee) Send(ev Event) error {
	var err error
	for _, s := range t {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Send(ev))
	}
	return err
}
