package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PortsConfig names the MIDI ports by substring match
type PortsConfig struct {
	Input      string `json:"input"`      // organ: clock, transport, notes, selectors
	Controller string `json:"controller"` // fader box: volumes, octave
	Output     string `json:"output"`     // synth
}

// ChannelsConfig holds 0-based MIDI channels
type ChannelsConfig struct {
	AcompInput uint8 `json:"acompInput"`
	DrumOut    uint8 `json:"drumOut"`
	AcompOut   uint8 `json:"acompOut"`
	Upper      uint8 `json:"upper"`
	Lower      uint8 `json:"lower"`
	Lead       uint8 `json:"lead"`
}

// FilesConfig points at the YAML style and sound libraries
type FilesConfig struct {
	Rhythms string `json:"rhythms"`
	Chords  string `json:"chords"`
	Sounds  string `json:"sounds"`
}

// Config is the main configuration structure
type Config struct {
	Ports       PortsConfig    `json:"ports"`
	Channels    ChannelsConfig `json:"channels"`
	Files       FilesConfig    `json:"files"`
	OutputQueue int            `json:"outputQueue,omitempty"`
	Debug       bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ports: PortsConfig{
			Input:      "Maple",
			Controller: "nanoKONTROL",
			Output:     "FLUID Synth",
		},
		Channels: ChannelsConfig{
			AcompInput: 1,
			DrumOut:    9,
			AcompOut:   4,
			Upper:      0,
			Lower:      1,
			Lead:       3,
		},
		Files: FilesConfig{
			Rhythms: "ritmos.yaml",
			Chords:  "chords.yaml",
			Sounds:  "sounds.yaml",
		},
		OutputQueue: 1024,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "electone"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields missing from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.OutputQueue <= 0 {
		cfg.OutputQueue = DefaultConfig().OutputQueue
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

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
