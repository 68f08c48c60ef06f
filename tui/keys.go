package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play       key.Binding
	Arp        key.Binding
	ArpType    key.Binding
	Octave     key.Binding
	Gate       key.Binding
	ArpRes     key.Binding
	Euclid     key.Binding
	Velocity   key.Binding
	Latch      key.Binding
	Tempo      key.Binding
	Swing      key.Binding
	Length     key.Binding
	SeqRes     key.Binding
	Cursor     key.Binding
	Toggle     key.Binding
	Clear      key.Binding
	Arm        key.Binding
	Quantize   key.Binding
	Rest       key.Binding
	Hold       key.Binding
	KeyTrigger key.Binding
	Mode       key.Binding
	Voices     key.Binding
	Policy     key.Binding
	Save       key.Binding
	Load       key.Binding
	Panic      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Play:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/stop")),
		Arp:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "arp on/off")),
		ArpType:    key.NewBinding(key.WithKeys("t", "T"), key.WithHelp("t/T", "arp type")),
		Octave:     key.NewBinding(key.WithKeys("o", "O"), key.WithHelp("o/O", "octaves")),
		Gate:       key.NewBinding(key.WithKeys("g", "G"), key.WithHelp("g/G", "gate")),
		ArpRes:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "arp rate")),
		Euclid:     key.NewBinding(key.WithKeys("e", "E"), key.WithHelp("e/E", "euclid")),
		Velocity:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "velocity mode")),
		Latch:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "latch")),
		Tempo:      key.NewBinding(key.WithKeys("+", "=", "-", "_"), key.WithHelp("+/-", "tempo")),
		Swing:      key.NewBinding(key.WithKeys("w", "W"), key.WithHelp("w/W", "swing")),
		Length:     key.NewBinding(key.WithKeys("[", "]"), key.WithHelp("[/]", "seq length")),
		SeqRes:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "seq rate")),
		Cursor:     key.NewBinding(key.WithKeys("left", "right", "h", "l"), key.WithHelp("←/→", "cursor")),
		Toggle:     key.NewBinding(key.WithKeys("enter", "x"), key.WithHelp("enter", "toggle step")),
		Clear:      key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("del", "clear step")),
		Arm:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "arm record")),
		Quantize:   key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "quantize")),
		Rest:       key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "rest")),
		Hold:       key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hold")),
		KeyTrigger: key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "key trigger")),
		Mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "trigger mode")),
		Voices:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n/N", "voices")),
		Policy:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "stealing")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Load:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "load latest")),
		Panic:      key.NewBinding(key.WithKeys("!"), key.WithHelp("!", "all notes off")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Arp, k.ArpType, k.Cursor, k.Toggle, k.Arm, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Arp, k.ArpType, k.Octave, k.Gate, k.ArpRes, k.Euclid, k.Velocity, k.Latch},
		{k.Play, k.Length, k.SeqRes, k.Cursor, k.Toggle, k.Clear, k.Arm, k.Quantize, k.Rest},
		{k.Tempo, k.Swing, k.Hold, k.KeyTrigger, k.Mode, k.Voices, k.Policy},
		{k.Save, k.Load, k.Panic, k.Help, k.Quit},
	}
}
