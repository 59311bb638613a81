// Package config provides configuration loading and management for the
// factor engine. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/ppfile"
)

// Config represents the run configuration loaded from YAML.
type Config struct {
	// Structure parameters supply defaults for keys omitted from
	// STRUCTURE blocks in the definition file.
	Structure struct {
		// Nugget is the default variogram discontinuity at zero distance.
		Nugget float64 `yaml:"nugget"`

		// Transform is the default value-domain transform: "none" or "log".
		Transform string `yaml:"transform"`

		// MaxPowerVariance caps the power-model variance.
		MaxPowerVariance float64 `yaml:"maxPowerVariance"`
	} `yaml:"structure"`

	// Solver parameters tune the per-node weight computation.
	Solver struct {
		// KrigeType selects the kriging variant: "ordinary" or "simple".
		KrigeType string `yaml:"krigeType"`

		// SearchRadius bounds the candidate pilot point search per node.
		SearchRadius float64 `yaml:"searchRadius"`

		// MinPoints is the minimum number of pilot points a node needs
		// within the search radius.
		MinPoints int `yaml:"minPoints"`

		// MaxPoints caps the number of pilot points used per node.
		MaxPoints int `yaml:"maxPoints"`

		// IDWPoints is the number of pilot points used per target by the
		// inverse-distance-squared path.
		IDWPoints int `yaml:"idwPoints"`

		// SingularTolerance is the reciprocal condition number below which
		// a kriging system is treated as singular.
		SingularTolerance float64 `yaml:"singularTolerance"`

		// OnSingular selects the response to a singular system:
		// "abort" stops the run, "skip" records the node without
		// contributors and continues.
		OnSingular string `yaml:"onSingular"`
	} `yaml:"solver"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for the per-node
		// weight computation.
		NumCores int `yaml:"numCores"`

		// Verbose controls the level of command-line output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Structure.Nugget = 0.0
	cfg.Structure.Transform = "none"
	cfg.Structure.MaxPowerVariance = 1.0

	cfg.Solver.KrigeType = "ordinary"
	cfg.Solver.SearchRadius = 1e5
	cfg.Solver.MinPoints = 3
	cfg.Solver.MaxPoints = 10
	cfg.Solver.IDWPoints = 3
	cfg.Solver.SingularTolerance = 1e-10
	cfg.Solver.OnSingular = "abort"

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
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

// StructureDefaults converts the structure section into the defaults
// record the structure-file parser consumes. An unrecognized transform
// keyword is an error rather than a silent fallback.
func (c *Config) StructureDefaults() (ppfile.StructureDefaults, error) {
	tr, ok := models.ParseTransform(c.Structure.Transform)
	if !ok {
		return ppfile.StructureDefaults{}, fmt.Errorf("unknown default transform %q", c.Structure.Transform)
	}
	return ppfile.StructureDefaults{
		Nugget:           c.Structure.Nugget,
		Transform:        tr,
		MaxPowerVariance: c.Structure.MaxPowerVariance,
	}, nil
}
