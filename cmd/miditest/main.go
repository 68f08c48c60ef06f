package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"go-polyarp/config"
	"go-polyarp/debug"
	"go-polyarp/midi"
	"go-polyarp/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "monitor":
		err = monitor(arg(2, ""))
	case "poll":
		err = pollDevices()
	case "run":
		err = run(arg(2, ""), arg(3, ""))
	case "demo":
		err = demo(arg(2, "demo.mid"), arg(3, "Rise"))
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func usage() {
	fmt.Println("go-polyarp MIDI tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List all MIDI ports")
	fmt.Println("  monitor <in>          - Print notes arriving on an input")
	fmt.Println("  poll                  - Watch for grid/keyboard hot-plug")
	fmt.Println("  run [in] [out]        - Arpeggiate an input to an output, no TUI")
	fmt.Println("  demo [file] [type]    - Render a chord through the arp to a .mid file")
}

func listPorts() error {
	fmt.Printf("(waiting up to %s...)\n", midi.PortScanTimeout)
	ins, outs, err := midi.ListPorts(midi.PortScanTimeout)
	if err != nil {
		fmt.Println("Fix for a hung CoreMIDI: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func monitor(name string) error {
	in, err := midi.FindInPort(name)
	if err != nil {
		return err
	}
	kb, err := midi.NewKeyboardController(in.String(), in)
	if err != nil {
		return err
	}
	defer kb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.String())
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-kb.NoteEvents():
			fmt.Printf("%8.3f  %s\n", time.Since(start).Seconds(), ev.At(time.Since(start).Seconds()))
		}
	}
}

func pollDevices() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager(cfg.Ports.Grid, cfg.Ports.Input)
	go dm.Run(ctx)

	fmt.Printf("Watching for grid %q and keyboard %q. Ctrl+C to exit.\n", cfg.Ports.Grid, cfg.Ports.Input)
	for ev := range dm.Events() {
		stamp := time.Now().Format("15:04:05")
		switch ev.Type {
		case midi.DeviceConnected:
			fmt.Printf("[%s] + %s (%s)\n", stamp, ev.ID, ev.Controller.Type())
		case midi.DeviceDisconnected:
			fmt.Printf("[%s] - %s\n", stamp, ev.ID)
		}
	}
	return nil
}

// run hosts the engine headless with the arpeggiator on.
func run(inName, outName string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if inName == "" {
		inName = cfg.Ports.Input
	}
	if outName == "" {
		outName = cfg.Ports.Output
	}
	if cfg.Engine.Debug {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	out, err := midi.OpenPortSink(outName)
	if err != nil {
		return err
	}
	in, err := midi.FindInPort(inName)
	if err != nil {
		return err
	}
	kb, err := midi.NewKeyboardController(in.String(), in)
	if err != nil {
		return err
	}
	defer kb.Close()

	core := sequencer.NewArpSeq(sequencer.Options{Output: out, Channel: cfg.OutputChannel()})
	params := cfg.Defaults
	params.ArpOn = true
	core.ApplyParams(params)

	mgr := sequencer.NewManager(core, time.Second/time.Duration(cfg.Engine.TickRateHz), nil)
	mgr.SetMIDIInput(kb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("%s -> %s  %s %.0fbpm. Ctrl+C to exit.\n", in.String(), out.Name(), params.ArpType, params.Bpm)
	mgr.Run(ctx)
	return nil
}

// demo renders two bars of a held C major chord offline, then four bars of
// the step sequencer feeding the arpeggiator.
func demo(path, typeName string) error {
	typ, err := parseArpType(typeName)
	if err != nil {
		return err
	}

	clock := &sequencer.ManualClock{}
	rec := midi.NewSMFRecorder(120)
	core := sequencer.NewArpSeq(sequencer.Options{Output: rec, Clock: clock})

	p := sequencer.DefaultParams()
	p.ArpOn = true
	p.ArpType = typ
	p.ArpOctave = 2
	p.ArpResolution = sequencer.Res16
	core.ApplyParams(p)

	const dt = 0.001
	advance := func(seconds float64) {
		for t := 0.0; t < seconds; t += dt {
			clock.Advance(dt)
			core.Process(dt)
		}
	}

	chord := []uint8{60, 64, 67}
	for _, n := range chord {
		core.HandleEvent(midi.NewNoteOn(0, n, 100).At(clock.Now()))
	}
	advance(4) // two bars at 120
	for _, n := range chord {
		core.HandleEvent(midi.NewNoteOff(0, n).At(clock.Now()))
	}

	for i, n := range []int{48, 55, 52, 55, 50, 57, 53, 57} {
		s := sequencer.NewPolyStep()
		s.AddNote(sequencer.NewNote(n), sequencer.Polyphony, sequencer.StealClosest)
		s.AddNote(sequencer.NewNote(n+12), sequencer.Polyphony, sequencer.StealClosest)
		core.SetStep(i*2, s)
	}
	p.SeqPlay = true
	p.SeqLength = 16
	core.ApplyParams(p)
	advance(8)

	core.AllNotesOff()
	if err := rec.WriteFile(path); err != nil {
		return err
	}
	fmt.Printf("wrote %d events to %s\n", rec.Len(), path)
	return nil
}

func parseArpType(name string) (sequencer.ArpType, error) {
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < sequencer.NumArpTypes {
		return sequencer.ArpType(n), nil
	}
	var names []string
	for i := 0; i < sequencer.NumArpTypes; i++ {
		t := sequencer.ArpType(i)
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
		names = append(names, t.String())
	}
	return 0, fmt.Errorf("unknown arp type %q (one of %s)", name, strings.Join(names, ", "))
}
