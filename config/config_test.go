package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"electone/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.DefaultConfig()) {
		t.Fatalf("got %+v, expected defaults", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"ports":{"output":"Yamaha"},"channels":{"drumOut":10}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ports.Output != "Yamaha" {
		t.Errorf("output port: got %q", cfg.Ports.Output)
	}
	if cfg.Channels.DrumOut != 10 {
		t.Errorf("drum channel: got %d", cfg.Channels.DrumOut)
	}
	// an object that is present replaces only the fields it names
	if cfg.Ports.Input != "Maple" {
		t.Errorf("input port: got %q", cfg.Ports.Input)
	}
	if cfg.Files.Rhythms != "ritmos.yaml" || cfg.OutputQueue != 1024 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := config.DefaultConfig()
	cfg.Debug = true
	cfg.Channels.AcompOut = 5
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("got %+v, expected %+v", got, cfg)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := config.LoadFile(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
