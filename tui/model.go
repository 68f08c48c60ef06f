package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-polyarp/midi"
	"go-polyarp/sequencer"
	"go-polyarp/theme"
	"go-polyarp/widgets"
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // nil without hardware
	Theme     *theme.Theme

	keys     keyMap
	help     help.Model
	cursor   int
	status   string
	grid     string // connected step grid id
	keyboard string // connected keyboard id
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

type statusMsg string

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Accent())
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		keys:      newKeyMap(),
		help:      h,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case statusMsg:
		m.status = string(msg)

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m *Model) handleDevice(event midi.DeviceEvent) {
	switch event.Type {
	case midi.DeviceConnected:
		switch event.Controller.Type() {
		case midi.ControllerLaunchpad:
			m.grid = event.ID
			m.Manager.SetController(event.Controller)
		case midi.ControllerKeyboard:
			m.keyboard = event.ID
			m.Manager.SetMIDIInput(event.Controller)
		}
		m.status = "connected " + event.ID
	case midi.DeviceDisconnected:
		switch event.ID {
		case m.grid:
			m.grid = ""
			m.Manager.SetController(nil)
		case m.keyboard:
			m.keyboard = ""
		}
		m.status = "disconnected " + event.ID
	}
}

// reverse reports whether a key is the shifted (decrementing) form.
func reverse(msg tea.KeyMsg) bool {
	switch s := msg.String(); s {
	case "-", "_", "[":
		return true
	default:
		return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dir := 1
	if reverse(msg) {
		dir = -1
	}
	update := m.Manager.UpdateParams

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Manager.AllNotesOff()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Play):
		update(func(p *sequencer.Params) { p.SeqPlay = !p.SeqPlay })
	case key.Matches(msg, m.keys.Arp):
		update(func(p *sequencer.Params) { p.ArpOn = !p.ArpOn })
	case key.Matches(msg, m.keys.ArpType):
		update(func(p *sequencer.Params) {
			p.ArpType = sequencer.ArpType(cycle(int(p.ArpType), dir, sequencer.NumArpTypes))
		})
	case key.Matches(msg, m.keys.Octave):
		update(func(p *sequencer.Params) { p.ArpOctave += dir })
	case key.Matches(msg, m.keys.Gate):
		update(func(p *sequencer.Params) { p.ArpGate += 0.05 * float64(dir) })
	case key.Matches(msg, m.keys.ArpRes):
		update(func(p *sequencer.Params) {
			p.ArpResolution = sequencer.Resolution(cycle(int(p.ArpResolution), 1, len(sequencer.Resolutions())))
		})
	case key.Matches(msg, m.keys.Euclid):
		update(func(p *sequencer.Params) {
			p.Euclid = sequencer.EuclidPattern(cycle(int(p.Euclid), dir, sequencer.NumEuclidPatterns))
		})
	case key.Matches(msg, m.keys.Velocity):
		update(func(p *sequencer.Params) {
			p.VelocityMode = sequencer.VelocityMode(cycle(int(p.VelocityMode), 1, sequencer.NumVelocityModes))
		})
	case key.Matches(msg, m.keys.Latch):
		update(func(p *sequencer.Params) { p.Latch = !p.Latch })
	case key.Matches(msg, m.keys.Tempo):
		update(func(p *sequencer.Params) { p.Bpm += 5 * float64(dir) })
	case key.Matches(msg, m.keys.Swing):
		update(func(p *sequencer.Params) { p.Swing += 0.05 * float64(dir) })
	case key.Matches(msg, m.keys.Length):
		update(func(p *sequencer.Params) { p.SeqLength += dir })
	case key.Matches(msg, m.keys.SeqRes):
		update(func(p *sequencer.Params) {
			p.SeqResolution = sequencer.Resolution(cycle(int(p.SeqResolution), 1, len(sequencer.Resolutions())))
		})
	case key.Matches(msg, m.keys.Cursor):
		step := 1
		if s := msg.String(); s == "left" || s == "h" {
			step = -1
		}
		m.cursor = cycle(m.cursor, step, sequencer.MaxLength)
	case key.Matches(msg, m.keys.Toggle):
		m.Manager.ToggleStep(m.cursor)
	case key.Matches(msg, m.keys.Clear):
		m.Manager.ClearStep(m.cursor)
	case key.Matches(msg, m.keys.Arm):
		update(func(p *sequencer.Params) { p.Armed = !p.Armed })
	case key.Matches(msg, m.keys.Quantize):
		update(func(p *sequencer.Params) { p.Quantize = !p.Quantize })
	case key.Matches(msg, m.keys.Rest):
		update(func(p *sequencer.Params) { p.Rest = !p.Rest })
	case key.Matches(msg, m.keys.Hold):
		update(func(p *sequencer.Params) { p.Hold = !p.Hold })
	case key.Matches(msg, m.keys.KeyTrigger):
		update(func(p *sequencer.Params) { p.KeyTrigger = !p.KeyTrigger })
	case key.Matches(msg, m.keys.Mode):
		update(func(p *sequencer.Params) {
			p.KeyTriggerMode = sequencer.KeyTriggerMode(cycle(int(p.KeyTriggerMode), 1, sequencer.NumKeyTriggerModes))
		})
	case key.Matches(msg, m.keys.Voices):
		update(func(p *sequencer.Params) { p.NumVoices += dir })
	case key.Matches(msg, m.keys.Policy):
		update(func(p *sequencer.Params) { p.StealingPolicy = 1 - p.StealingPolicy })
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Load):
		return m, m.load()
	case key.Matches(msg, m.keys.Panic):
		m.Manager.AllNotesOff()
		m.status = "all notes off"
	}
	return m, nil
}

func (m Model) save() tea.Cmd {
	name := m.Manager.Snapshot().ProjectName
	return func() tea.Msg {
		file, err := m.Manager.SaveProject(name)
		if err != nil {
			return statusMsg("save failed: " + err.Error())
		}
		return statusMsg("saved " + name + "/" + file)
	}
}

func (m Model) load() tea.Cmd {
	name := m.Manager.Snapshot().ProjectName
	return func() tea.Msg {
		if err := m.Manager.LoadProject(name, ""); err != nil {
			return statusMsg("load failed: " + err.Error())
		}
		return statusMsg("loaded " + name)
	}
}

func cycle(v, delta, n int) int {
	v = (v + delta) % n
	if v < 0 {
		v += n
	}
	return v
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.Manager.Snapshot()
	p := v.Params

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	valueStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	onStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	flag := func(name string, on bool) string {
		if on {
			return onStyle.Render(name)
		}
		return labelStyle.Render(name)
	}
	field := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}

	playState := "STOP"
	if v.Ticking {
		playState = "PLAY"
	}
	devices := ""
	if m.grid != "" {
		devices += "  grid"
	}
	if m.keyboard != "" {
		devices += "  keys"
	}
	header := headerStyle.Render(fmt.Sprintf("go-polyarp  %s  %3.0fbpm  %s%s", playState, p.Bpm, v.ProjectName, devices))

	arpLine := strings.Join([]string{
		flag("ARP", p.ArpOn),
		field("type", p.ArpType.String()),
		field("oct", fmt.Sprint(p.ArpOctave)),
		field("gate", fmt.Sprintf("%.2f", p.ArpGate)),
		field("rate", p.ArpResolution.String()),
		field("euclid", p.Euclid.String()),
		field("vel", p.VelocityMode.String()),
		flag("latch", p.Latch),
	}, "  ")

	seqLine := strings.Join([]string{
		flag("SEQ", v.Ticking),
		field("len", fmt.Sprint(v.Length)),
		field("rate", p.SeqResolution.String()),
		field("swing", fmt.Sprintf("%+.2f", p.Swing)),
		field("transpose", fmt.Sprintf("%+d", v.Transpose)),
		flag("arm", p.Armed),
		flag("quant", p.Quantize),
		flag("rest", p.Rest),
	}, "  ")

	keysLine := strings.Join([]string{
		flag("hold", p.Hold),
		flag("trigger", p.KeyTrigger),
		field("mode", p.KeyTriggerMode.String()),
		field("voices", fmt.Sprintf("%d/%d", len(v.Voices), p.NumVoices)),
		field("steal", p.StealingPolicy.String()),
	}, "  ")

	cells := make([]widgets.StepCell, sequencer.MaxLength)
	for i, s := range v.Steps {
		notes := s.EnabledNotes()
		vel := 0
		for _, n := range notes {
			vel = max(vel, n.Velocity)
		}
		cells[i] = widgets.StepCell{
			Notes:    len(notes),
			Velocity: vel,
			Enabled:  s.Enabled,
			Playhead: i == v.Playhead,
			Cursor:   i == m.cursor,
			Beyond:   i >= v.Length,
		}
	}
	grid := widgets.RenderSteps(cells, m.Theme)

	cur := v.Steps[m.cursor]
	var curNotes []int
	for _, n := range cur.EnabledNotes() {
		curNotes = append(curNotes, n.Number)
	}
	stepLine := field(fmt.Sprintf("step %d", m.cursor+1), widgets.NoteList(curNotes))

	heldLine := field("held", widgets.NoteList(v.HeldNotes)) + "  " + field("arp", widgets.NoteList(v.ArpNotes))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(arpLine + "\n")
	out.WriteString(seqLine + "\n")
	out.WriteString(keysLine + "\n\n")
	out.WriteString(grid + "\n")
	out.WriteString(stepLine + "\n")
	out.WriteString(heldLine + "\n")
	if m.grid != "" && m.help.ShowAll {
		legend := make([]widgets.LegendItem, 0, 9)
		for _, e := range sequencer.PadLegend() {
			legend = append(legend, widgets.LegendItem{Color: e.Color, Name: e.Name, Desc: e.Desc})
		}
		out.WriteString("\n" + widgets.RenderLegend(legend) + "\n")
	}
	if m.status != "" {
		out.WriteString("\n" + warnStyle.Render(m.status) + "\n")
	}
	out.WriteString("\n" + m.help.View(m.keys))

	return out.String()
}
