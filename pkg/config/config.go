// Package config provides configuration loading and management for emcvolume.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for inconsistent settings.
var ErrInvalid = errors.New("config: invalid configuration")

// Symmetry modes applied to the merged volume.
const (
	SymmetryNone        = "none"
	SymmetryFriedel     = "friedel"
	SymmetryIcosahedral = "icosahedral"
	SymmetryBoth        = "both"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume describes the reciprocal-space grid
	Volume struct {
		// Size is the number of voxels along each axis
		Size int `yaml:"size"`

		// Dims is 3 for volumes or 2 for in-plane models
		Dims int `yaml:"dims"`
	} `yaml:"volume"`

	// Detector describes the flat panel whose pixels are mapped into the volume
	Detector struct {
		NX           int     `yaml:"nx"`
		NY           int     `yaml:"ny"`
		PixelSize    float64 `yaml:"pixelSize"`
		Distance     float64 `yaml:"distance"`
		EwaldRadius  float64 `yaml:"ewaldRadius"`
		Beamstop     float64 `yaml:"beamstop"`
		QMax         float64 `yaml:"qMax"`
		Polarization string  `yaml:"polarization"`
	} `yaml:"detector"`

	// Phantom describes the synthetic object used as ground truth
	Phantom struct {
		// Radius of every sphere in voxels
		Radius float64 `yaml:"radius"`

		// Spacing from the object center to each vertex sphere in voxels
		Spacing float64 `yaml:"spacing"`

		// Core adds a sphere at the object center
		Core bool `yaml:"core"`
	} `yaml:"phantom"`

	// Run controls the resampling run
	Run struct {
		// Workers is the number of goroutines per kernel call, 0 means all cores
		Workers int `yaml:"workers"`

		// Orientations is the number of random orientations merged
		Orientations int `yaml:"orientations"`

		// Seed makes the orientation sampling reproducible
		Seed uint64 `yaml:"seed"`

		// Symmetry is one of none, friedel, icosahedral or both
		Symmetry string `yaml:"symmetry"`
	} `yaml:"run"`

	// Output parameters
	Output struct {
		// SectionsDir receives PNG previews of the central sections when non-empty
		SectionsDir string `yaml:"sectionsDir"`

		// Scale is linear or log
		Scale string `yaml:"scale"`

		// Upscale enlarges each preview by this integer factor
		Upscale int `yaml:"upscale"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Volume.Size = 41
	cfg.Volume.Dims = 3

	cfg.Detector.NX = 41
	cfg.Detector.NY = 41
	cfg.Detector.PixelSize = 1.0
	cfg.Detector.Distance = 60.0
	cfg.Detector.EwaldRadius = 60.0
	cfg.Detector.Beamstop = 1.5
	cfg.Detector.QMax = 20.0
	cfg.Detector.Polarization = "none"

	cfg.Phantom.Radius = 2.0
	cfg.Phantom.Spacing = 8.0
	cfg.Phantom.Core = true

	cfg.Run.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Run.Orientations = 500
	cfg.Run.Seed = 1
	cfg.Run.Symmetry = SymmetryFriedel

	cfg.Output.SectionsDir = ""
	cfg.Output.Scale = "log"
	cfg.Output.Upscale = 4
	cfg.Output.Verbose = true

	return cfg
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Volume.Size < 2:
		return fmt.Errorf("volume size %d must be at least 2: %w", c.Volume.Size, ErrInvalid)
	case c.Volume.Dims != 2 && c.Volume.Dims != 3:
		return fmt.Errorf("volume dims %d must be 2 or 3: %w", c.Volume.Dims, ErrInvalid)
	case c.Run.Orientations <= 0:
		return fmt.Errorf("orientations %d must be positive: %w", c.Run.Orientations, ErrInvalid)
	case c.Run.Workers < 0:
		return fmt.Errorf("workers %d must not be negative: %w", c.Run.Workers, ErrInvalid)
	case c.Output.Upscale < 0:
		return fmt.Errorf("upscale %d must not be negative: %w", c.Output.Upscale, ErrInvalid)
	}

	switch c.Run.Symmetry {
	case SymmetryNone, SymmetryFriedel:
	case SymmetryIcosahedral, SymmetryBoth:
		if c.Volume.Dims != 3 {
			return fmt.Errorf("%s symmetry needs a 3D volume: %w", c.Run.Symmetry, ErrInvalid)
		}
	default:
		return fmt.Errorf("unknown symmetry %q: %w", c.Run.Symmetry, ErrInvalid)
	}

	switch c.Detector.Polarization {
	case "", "none", "x", "y":
	default:
		return fmt.Errorf("unknown polarization %q: %w", c.Detector.Polarization, ErrInvalid)
	}

	switch c.Output.Scale {
	case "", "linear", "log":
	default:
		return fmt.Errorf("unknown output scale %q: %w", c.Output.Scale, ErrInvalid)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
