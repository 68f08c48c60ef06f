package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"go-polyarp/config"
	"go-polyarp/debug"
	"go-polyarp/midi"
	"go-polyarp/sequencer"
	"go-polyarp/theme"
	"go-polyarp/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Engine.Debug {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}
	log := debug.Logger()

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		log.Warn("palette", zap.String("path", cfg.UI.Palette), zap.Error(err))
	}
	th := theme.New(palette)

	// The output port is optional; without one the engine still runs and
	// the TUI shows what it would play.
	var out midi.Sink = midi.Discard
	if cfg.Ports.Output != "" {
		ps, err := midi.OpenPortSink(cfg.Ports.Output)
		if err != nil {
			return fmt.Errorf("output %q: %w", cfg.Ports.Output, err)
		}
		log.Info("output open", zap.String("port", ps.Name()))
		out = ps
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	store := sequencer.NewProjectStore(filepath.Join(dir, "projects"))

	core := sequencer.NewArpSeq(sequencer.Options{Output: out, Channel: cfg.OutputChannel()})
	core.ApplyParams(cfg.Defaults)

	manager := sequencer.NewManager(core, time.Second/time.Duration(cfg.Engine.TickRateHz), store)
	if cfg.LastProject != "" {
		if err := manager.LoadProject(cfg.LastProject, ""); err != nil {
			log.Info("no project loaded", zap.String("project", cfg.LastProject), zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-plug for the step grid and the keyboard
	deviceMgr := midi.NewDeviceManager(cfg.Ports.Grid, cfg.Ports.Input)
	go deviceMgr.Run(ctx)

	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()

	m := tui.NewModel(manager, deviceMgr, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()

	cancel()
	<-done

	if name := manager.Snapshot().ProjectName; name != cfg.LastProject {
		cfg.LastProject = name
		if saveErr := cfg.Save(); saveErr != nil {
			log.Warn("config save", zap.Error(saveErr))
		}
	}
	return err
}
