package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrPortNotFound = errors.New("midi port not found")
	// ErrPortTimeout means the driver did not answer. CoreMIDI can hang;
	// the fix is usually: sudo killall coreaudiod midiserver
	ErrPortTimeout = errors.New("midi port scan timed out")
)

// PortScanTimeout bounds every port enumeration.
const PortScanTimeout = 3 * time.Second

// ListPorts enumerates input and output ports, giving up after timeout.
func ListPorts(timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(timeout):
		return nil, nil, ErrPortTimeout
	}
}

// FindInPort returns the first input whose name contains name (case-insensitive).
func FindInPort(name string) (drivers.In, error) {
	ins, _, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	for _, p := range ins {
		if matchPort(p.String(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("input %q: %w", name, ErrPortNotFound)
}

// FindOutPort returns the first output whose name contains name (case-insensitive).
func FindOutPort(name string) (drivers.Out, error) {
	_, outs, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	for _, p := range outs {
		if matchPort(p.String(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("output %q: %w", name, ErrPortNotFound)
}

func matchPort(portName, want string) bool {
	if want == "" {
		return false
	}
	return strings.Contains(strings.ToLower(portName), strings.ToLower(want))
}

// PortSink writes events to a hardware or virtual output port.
type PortSink struct {
	name string
	send func(msg gomidi.Message) error
}

// NewPortSink opens out for sending.
func NewPortSink(out drivers.Out) (*PortSink, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out.String(), err)
	}
	return &PortSink{name: out.String(), send: send}, nil
}

// OpenPortSink finds an output by name and opens it.
func OpenPortSink(name string) (*PortSink, error) {
	out, err := FindOutPort(name)
	if err != nil {
		return nil, err
	}
	return NewPortSink(out)
}

func (p *PortSink) Name() string {
	return p.name
}

func (p *PortSink) Send(ev Event) error {
	msg := ev.Message()
	if msg == nil {
		return nil
	}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", p.name, err)
	}
	return nil
}
