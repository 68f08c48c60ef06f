package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-polyarp/debug"

	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of the step grid and the note
// input keyboard.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	gridMatch     string
	keyboardMatch string
}

// NewDeviceManager watches for inputs whose names contain gridMatch or
// keyboardMatch. An empty pattern matches nothing.
func NewDeviceManager(gridMatch, keyboardMatch string) *DeviceManager {
	return &DeviceManager{
		controllers:   make(map[string]Controller),
		events:        make(chan DeviceEvent, 16),
		pollRate:      time.Second,
		gridMatch:     gridMatch,
		keyboardMatch: keyboardMatch,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, err := ListPorts(PortScanTimeout)
	if err != nil {
		// skip this round; a hung driver usually recovers
		debug.Log("device", "scan: %v", err)
		return
	}

	seen := make(map[string]bool)
	for _, in := range inPorts {
		id := in.String()
		kind := classifyPort(id, dm.gridMatch, dm.keyboardMatch)
		if kind == ControllerUnknown {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := openController(kind, id, in, outPorts)
		if err != nil {
			debug.Log("device", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		debug.Log("device", "connected %s (%s)", id, kind)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	var gone []string
	for id, c := range dm.controllers {
		if !seen[id] {
			c.Close()
			delete(dm.controllers, id)
			gone = append(gone, id)
		}
	}
	dm.mu.Unlock()

	for _, id := range gone {
		debug.Log("device", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

func openController(kind ControllerType, id string, in drivers.In, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboardController(id, in)
	}
	var out drivers.Out
	for _, op := range outs {
		if strings.EqualFold(op.String(), id) {
			out = op
			break
		}
	}
	return NewLaunchpadController(id, in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// classifyPort decides what an input port is. The grid pattern wins when
// both match; Launchpads only count on their MIDI interface, not DAW/DIN.
func classifyPort(name, gridMatch, keyboardMatch string) ControllerType {
	if matchPort(name, gridMatch) {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "launchpad") || strings.Contains(lower, "midi") {
			return ControllerLaunchpad
		}
		return ControllerUnknown
	}
	if matchPort(name, keyboardMatch) {
		return ControllerKeyboard
	}
	return ControllerUnknown
}
