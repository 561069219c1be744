package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default configuration should be valid: %v", err)
	}
	if cfg.Volume.Dims != 3 {
		t.Errorf("Expected 3D default volume, got %d dims", cfg.Volume.Dims)
	}
	if cfg.Run.Workers <= 0 {
		t.Errorf("Expected positive default worker count, got %d", cfg.Run.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"tiny volume", func(c *Config) { c.Volume.Size = 1 }},
		{"bad dims", func(c *Config) { c.Volume.Dims = 4 }},
		{"no orientations", func(c *Config) { c.Run.Orientations = 0 }},
		{"negative workers", func(c *Config) { c.Run.Workers = -1 }},
		{"unknown symmetry", func(c *Config) { c.Run.Symmetry = "octahedral" }},
		{"icosahedral in 2D", func(c *Config) { c.Volume.Dims = 2; c.Run.Symmetry = SymmetryIcosahedral }},
		{"unknown scale", func(c *Config) { c.Output.Scale = "sqrt" }},
		{"unknown polarization", func(c *Config) { c.Detector.Polarization = "circular" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Volume.Dims = 2
	if err := cfg.Validate(); err != nil {
		t.Errorf("2D volume with Friedel symmetry should be valid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Volume.Size != DefaultConfig().Volume.Size {
		t.Errorf("Expected defaults for a missing file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Volume.Size = 17
	cfg.Run.Symmetry = SymmetryBoth
	cfg.Detector.Polarization = "x"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Volume.Size != 17 || loaded.Run.Symmetry != SymmetryBoth || loaded.Detector.Polarization != "x" {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("volume:\n  size: 9\nrun:\n  orientations: 12\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Volume.Size != 9 || cfg.Run.Orientations != 12 {
		t.Errorf("Expected size 9 and 12 orientations, got %d and %d", cfg.Volume.Size, cfg.Run.Orientations)
	}
	if cfg.Volume.Dims != 3 {
		t.Errorf("Unset fields should keep their defaults")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("run:\n  symmetry: octahedral\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}

	if err := os.WriteFile(path, []byte("volume: [unclosed"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected a parse error, got nil")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}
