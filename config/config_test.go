package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-polyarp/sequencer"
)

var envKeys = []string{
	"POLYARP_IN", "POLYARP_OUT", "POLYARP_GRID", "POLYARP_CHANNEL",
	"POLYARP_TICK_HZ", "POLYARP_DEBUG", "POLYARP_BPM", "POLYARP_PALETTE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFile_MissingGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "Launchpad", cfg.Ports.Grid)
	assert.Equal(t, uint8(0), cfg.OutputChannel())
	assert.Equal(t, 1000, cfg.Engine.TickRateHz)
	assert.Equal(t, sequencer.DefaultParams(), cfg.Defaults)
	assert.Equal(t, "default", cfg.LastProject)
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{
		"ports": {"output": "IAC Bus", "channel": 3},
		"engine": {"tickRateHz": -5},
		"defaults": {"bpm": 500, "arpType": 3}
	}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "IAC Bus", cfg.Ports.Output)
	assert.Equal(t, "Launchpad", cfg.Ports.Grid, "unset fields keep their default")
	assert.Equal(t, uint8(2), cfg.OutputChannel())
	assert.Equal(t, 1000, cfg.Engine.TickRateHz)
	assert.Equal(t, sequencer.MaxBpm, cfg.Defaults.Bpm)
	assert.Equal(t, sequencer.ArpRiseFall, cfg.Defaults.ArpType)
	assert.Equal(t, 1, cfg.Defaults.ArpOctave)
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "channel out of range", body: `{"ports": {"channel": 17}}`, invalid: true},
		{name: "negative channel", body: `{"ports": {"channel": -1}}`, invalid: true},
		{name: "corrupt json", body: `{"ports": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYARP_OUT", " Synth ")
	t.Setenv("POLYARP_CHANNEL", "10")
	t.Setenv("POLYARP_BPM", "95.5")
	t.Setenv("POLYARP_DEBUG", "true")
	t.Setenv("POLYARP_TICK_HZ", "fast")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "Synth", cfg.Ports.Output)
	assert.Equal(t, 10, cfg.Ports.Channel)
	assert.Equal(t, 95.5, cfg.Defaults.Bpm)
	assert.True(t, cfg.Engine.Debug)
	assert.Equal(t, 1000, cfg.Engine.TickRateHz, "unparsable values are ignored")
}

func TestSaveFile_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Ports.Input = "Keystation"
	cfg.LastProject = "song"
	cfg.Defaults.Swing = 0.25
	require.NoError(t, cfg.SaveFile(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
