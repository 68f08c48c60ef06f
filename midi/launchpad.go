package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go-polyarp/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/multierr"
)

var ledSendCount atomic.Uint64

// Launchpad X SysEx: header F0 00 20 29 02 0C, then command bytes.
var launchpadInit = [][]byte{
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F},       // programmer mode
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F},       // max brightness
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}, // external LED feedback
}

// LaunchpadController drives a Novation Launchpad X used as a step grid.
type LaunchpadController struct {
	id       string
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan  chan PadEvent
	noteChan chan Event

	closeOnce sync.Once
}

// NewLaunchpadController switches the device to programmer mode and starts
// listening for pads.
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:       id,
		padChan:  make(chan PadEvent, 32),
		noteChan: make(chan Event),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send

		var errs error
		for _, msg := range launchpadInit {
			errs = multierr.Append(errs, lp.send(gomidi.SysEx(msg)))
		}
		if errs != nil {
			debug.Log("device", "%s init: %v", id, errs)
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if ev, ok := padEventFromMessage(msg); ok {
				trySend(lp.padChan, ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// padEventFromMessage decodes grid notes and top-row CCs.
func padEventFromMessage(msg gomidi.Message) (PadEvent, bool) {
	var channel, key, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		if row, col := noteToRowCol(key); row >= 0 {
			return PadEvent{Row: row, Col: col, Velocity: value, Pressed: true}, true
		}
	case msg.GetNoteEnd(&channel, &key):
		if row, col := noteToRowCol(key); row >= 0 {
			return PadEvent{Row: row, Col: col}, true
		}
	case msg.GetControlChange(&channel, &key, &value):
		if row, col := ccToRowCol(key); row >= 0 {
			return PadEvent{Row: row, Col: col, Velocity: value, Pressed: value > 0}, true
		}
	}
	return PadEvent{}, false
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) NoteEvents() <-chan Event {
	return lp.noteChan // pads are not played as notes
}

// SetLEDBatch sends one NoteOn per update; the caller diffs so only changes
// arrive here.
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	var errs error
	for _, u := range updates {
		note := rowColToNote(u.Row, u.Col)
		color := mapRGBToLaunchpad(u.Color)
		errs = multierr.Append(errs, lp.send(gomidi.NoteOn(u.Channel, note, color)))
	}

	count := ledSendCount.Add(uint64(len(updates)))
	if count%100 < uint64(len(updates)) {
		debug.Log("device", "led batch count=%d (this batch=%d)", count, len(updates))
	}

	return errs
}

// launchpadPalette approximates Launchpad X palette entries: {velocity, R, G, B}.
var launchpadPalette = [][4]uint8{
	{0, 0, 0, 0},         // off
	{5, 255, 0, 0},       // red
	{6, 255, 80, 80},     // bright red
	{7, 180, 60, 60},     // dim red
	{9, 255, 100, 0},     // orange
	{11, 180, 80, 40},    // dim orange
	{13, 255, 200, 0},    // yellow
	{17, 0, 180, 0},      // green
	{19, 0, 100, 0},      // dim green
	{21, 0, 255, 0},      // bright green
	{37, 0, 200, 200},    // cyan
	{43, 40, 60, 120},    // dim blue
	{45, 0, 100, 255},    // blue
	{47, 80, 150, 255},   // bright blue
	{49, 150, 0, 200},    // purple
	{53, 255, 80, 180},   // pink
	{78, 100, 100, 255},  // light blue
	{84, 255, 150, 50},   // bright orange
	{87, 150, 255, 100},  // lime
	{97, 180, 180, 60},   // dim yellow
	{119, 255, 255, 255}, // white
}

// mapRGBToLaunchpad finds the nearest palette velocity for an RGB value.
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	best := uint8(0)
	bestDist := 1 << 30

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range launchpadPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			bestDist = dist
			best = p[0]
		}
	}
	return best
}

// Close blanks the grid and stops listening.
func (lp *LaunchpadController) Close() error {
	var err error
	lp.closeOnce.Do(func() {
		if lp.send != nil {
			var updates []LEDUpdate
			for row := 0; row < 9; row++ {
				for col := 0; col < 9; col++ {
					if row == 8 && col == 8 {
						continue // no LED at 8,8
					}
					updates = append(updates, LEDUpdate{Row: row, Col: col})
				}
			}
			err = lp.SetLEDBatch(updates)
		}
		if lp.stopFunc != nil {
			lp.stopFunc()
		}
		close(lp.padChan)
		close(lp.noteChan)
	})
	return err
}

// Launchpad X note mapping
// 8x8 Grid:  Row 0 (bottom) = notes 11-18, Row 7 = notes 81-88
// Side col:  Col 8 (right side scene buttons) = notes 19, 29, ... 89
// Top row:   Row 8 = CC 91-98 in, notes 91-98 for LEDs

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
