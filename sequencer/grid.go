package sequencer

import "go-polyarp/midi"

// LEDState describes the state of a single LED
type LEDState struct {
	Row, Col int
	Color    [3]uint8 // RGB color - controller maps to its palette
	Channel  uint8    // 0=static, 2=pulse
}

// Grid layout on a Launchpad: steps 1-8 on row 7, steps 9-16 on row 6, and
// transport toggles on the top CC row.
const (
	gridTopRow   = 7
	gridCols     = 8
	controlRow   = 8
	ctrlPlay     = 0
	ctrlArp      = 1
	ctrlArm      = 2
	ctrlHold     = 3
	ctrlKeyTrig  = 4
	ctrlPanic    = 7
	gridStepRows = MaxLength / gridCols
)

var (
	colorOff       = [3]uint8{0, 0, 0}
	colorStepEmpty = [3]uint8{40, 60, 120}
	colorStepOn    = [3]uint8{0, 255, 0}
	colorPlayhead  = [3]uint8{255, 255, 255}
	colorPlay      = [3]uint8{0, 180, 0}
	colorArp       = [3]uint8{0, 200, 200}
	colorArm       = [3]uint8{255, 0, 0}
	colorHold      = [3]uint8{255, 200, 0}
	colorKeyTrig   = [3]uint8{150, 0, 200}
	colorPanic     = [3]uint8{180, 60, 60}
)

// stepPad is where step index lives on the grid.
func stepPad(index int) (row, col int) {
	return gridTopRow - index/gridCols, index % gridCols
}

// padStep is the inverse of stepPad.
func padStep(row, col int) (int, bool) {
	if col < 0 || col >= gridCols || row > gridTopRow || row <= gridTopRow-gridStepRows {
		return 0, false
	}
	return (gridTopRow-row)*gridCols + col, true
}

// renderGridLEDs draws the step bank and the control row. Steps beyond the
// loop length stay dark.
func renderGridLEDs(a *ArpSeq, playhead int) []LEDState {
	seq := a.Seq()
	length := seq.PendingLength()
	steps := seq.Steps()

	leds := make([]LEDState, 0, MaxLength+8)
	for i := 0; i < MaxLength; i++ {
		row, col := stepPad(i)
		led := LEDState{Row: row, Col: col, Color: colorOff}
		switch {
		case i >= length:
		case i == playhead:
			led.Color = colorPlayhead
		case steps[i].Enabled:
			led.Color = colorStepOn
		default:
			led.Color = colorStepEmpty
		}
		leds = append(leds, led)
	}

	p := a.Params()
	toggle := func(col int, on bool, color [3]uint8) {
		if on {
			leds = append(leds, LEDState{Row: controlRow, Col: col, Color: color})
		}
	}
	toggle(ctrlPlay, a.SequencerTicking(), colorPlay)
	toggle(ctrlArp, p.ArpOn, colorArp)
	toggle(ctrlArm, p.Armed, colorArm)
	toggle(ctrlHold, p.Hold, colorHold)
	toggle(ctrlKeyTrig, p.KeyTrigger, colorKeyTrig)
	leds = append(leds, LEDState{Row: controlRow, Col: ctrlPanic, Color: colorPanic})
	return leds
}

// diffLEDs returns the updates that turn prev into next; LEDs missing from
// next are switched off.
func diffLEDs(prev map[[2]int]LEDState, next []LEDState) []midi.LEDUpdate {
	var updates []midi.LEDUpdate
	seen := make(map[[2]int]bool, len(next))

	for _, led := range next {
		key := [2]int{led.Row, led.Col}
		seen[key] = true
		if old, ok := prev[key]; !ok || old != led {
			updates = append(updates, midi.LEDUpdate{
				Row:     led.Row,
				Col:     led.Col,
				Color:   led.Color,
				Channel: led.Channel,
			})
		}
	}

	for key := range prev {
		if !seen[key] {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1], Color: colorOff})
		}
	}
	return updates
}

// handleGridPad maps a pad press to an engine action.
func handleGridPad(a *ArpSeq, row, col int) bool {
	if i, ok := padStep(row, col); ok {
		a.Seq().ToggleStep(i)
		return true
	}
	if row != controlRow {
		return false
	}

	p := a.Params()
	switch col {
	case ctrlPlay:
		p.SeqPlay = !p.SeqPlay
	case ctrlArp:
		p.ArpOn = !p.ArpOn
	case ctrlArm:
		p.Armed = !p.Armed
	case ctrlHold:
		p.Hold = !p.Hold
	case ctrlKeyTrig:
		p.KeyTrigger = !p.KeyTrigger
	case ctrlPanic:
		a.AllNotesOff()
		return true
	default:
		return false
	}
	a.ApplyParams(p)
	return true
}

// PadLegendEntry explains one grid colour.
type PadLegendEntry struct {
	Color [3]uint8
	Name  string
	Desc  string
}

// PadLegend lists the grid colours in display order.
func PadLegend() []PadLegendEntry {
	return []PadLegendEntry{
		{colorStepOn, "step", "enabled step"},
		{colorStepEmpty, "empty", "disabled step inside the loop"},
		{colorPlayhead, "playhead", "current step"},
		{colorPlay, "play", "top row 1: sequencer transport"},
		{colorArp, "arp", "top row 2: arpeggiator on"},
		{colorArm, "arm", "top row 3: overdub recording"},
		{colorHold, "hold", "top row 4: hold keys"},
		{colorKeyTrig, "trigger", "top row 5: keys start the sequencer"},
		{colorPanic, "panic", "top row 8: all notes off"},
	}
}
