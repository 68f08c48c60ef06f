package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"go-polyarp/debug"
	"go-polyarp/sequencer"
)

// ErrInvalid wraps values that cannot be used even after clamping.
var ErrInvalid = errors.New("invalid config")

// PortConfig names the MIDI ports to use. Names match by substring,
// case-insensitive.
type PortConfig struct {
	Input   string `json:"input,omitempty"`
	Output  string `json:"output,omitempty"`
	Grid    string `json:"grid,omitempty"`    // step-grid controller, e.g. "Launchpad"
	Channel int    `json:"channel,omitempty"` // output channel 1-16
}

// EngineConfig tunes the process loop.
type EngineConfig struct {
	TickRateHz int  `json:"tickRateHz,omitempty"`
	Debug      bool `json:"debug,omitempty"`
}

// UIConfig styles the terminal view.
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // GIMP .gpl file; empty uses the built-in ramp
}

// Config is the main configuration structure
type Config struct {
	Ports       PortConfig       `json:"ports"`
	Engine      EngineConfig     `json:"engine"`
	UI          UIConfig         `json:"ui"`
	Defaults    sequencer.Params `json:"defaults"`
	LastProject string           `json:"lastProject,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ports: PortConfig{
			Grid:    "Launchpad",
			Channel: 1,
		},
		Engine: EngineConfig{
			TickRateHz: 1000,
		},
		Defaults:    sequencer.DefaultParams(),
		LastProject: "default",
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-polyarp"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found, then
// applies environment overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads a config from path. A missing file gives the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads .env from the working directory if present, then lets
// POLYARP_* variables override the file.
func (c *Config) ApplyEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		debug.Log("config", ".env: %v", err)
	}

	c.Ports.Input = getEnv("POLYARP_IN", c.Ports.Input)
	c.Ports.Output = getEnv("POLYARP_OUT", c.Ports.Output)
	c.Ports.Grid = getEnv("POLYARP_GRID", c.Ports.Grid)
	c.Ports.Channel = getEnvInt("POLYARP_CHANNEL", c.Ports.Channel)
	c.Engine.TickRateHz = getEnvInt("POLYARP_TICK_HZ", c.Engine.TickRateHz)
	c.Engine.Debug = getEnvBool("POLYARP_DEBUG", c.Engine.Debug)
	c.Defaults.Bpm = getEnvFloat("POLYARP_BPM", c.Defaults.Bpm)
	c.UI.Palette = getEnv("POLYARP_PALETTE", c.UI.Palette)
}

// Validate clamps ranges and rejects what cannot be clamped.
func (c *Config) Validate() error {
	if c.Ports.Channel < 1 || c.Ports.Channel > 16 {
		return fmt.Errorf("%w: channel %d not in 1-16", ErrInvalid, c.Ports.Channel)
	}
	if c.Engine.TickRateHz <= 0 {
		c.Engine.TickRateHz = 1000
	}
	c.Defaults = c.Defaults.Clamped()
	return nil
}

// OutputChannel is the 0-based channel for the MIDI layer.
func (c *Config) OutputChannel() uint8 {
	return uint8(c.Ports.Channel - 1)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		debug.Log("config", "%s=%q: %v", key, v, err)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		debug.Log("config", "%s=%q: %v", key, v, err)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		debug.Log("config", "%s=%q: %v", key, v, err)
		return def
	}
	return b
}
