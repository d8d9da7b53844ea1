// Package config provides configuration management for the portion CLI.
//
// Values are layered: defaults, then portion.yaml, then PORTION_* environment
// variables, then explicitly set command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string       `koanf:"output" validate:"omitempty,oneof=auto text markdown json yaml"`
	Style        string       `koanf:"style" validate:"omitempty,oneof=abbreviated short described long"`
	Verbose      bool         `koanf:"verbose"`
	StatePath    string       `koanf:"state_path"`
	Parse        ParseConfig  `koanf:"parse"`
	Serve        *ServeConfig `koanf:"serve"`
	Units        []UnitConfig `koanf:"units" validate:"dive"`
}

// ParseConfig tunes document scanning.
type ParseConfig struct {
	// Concurrency bounds how many files are scanned at once.
	Concurrency int `koanf:"concurrency" validate:"min=1,max=64"`
}

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	WatchDir        string        `koanf:"watch_dir"`
	SessionSecret   string        `koanf:"session_secret"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// UnitConfig declares a custom unit. Multiple is in the dimension's base
// unit: drops for volume, seconds for time.
type UnitConfig struct {
	Name         string         `koanf:"name" validate:"required"`
	Plural       string         `koanf:"plural"`
	Abbreviation string         `koanf:"abbreviation"`
	Aliases      []string       `koanf:"aliases"`
	Multiple     ratio.Ratio    `koanf:"multiple"`
	Dimension    unit.Dimension `koanf:"dimension"`
	Common       bool           `koanf:"common"`
}

// Default configuration values.
const (
	DefaultStateFile       = ".portion/state.db"
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultStyle           = "abbreviated"
	DefaultConcurrency     = 4
	DefaultServeAddr       = ":8765"
	DefaultShutdownTimeout = 5 * time.Second
)

// DefaultServeConfig returns a ServeConfig with default values.
func DefaultServeConfig() *ServeConfig {
	return &ServeConfig{
		Addr:            DefaultServeAddr,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// GetServeConfig returns the serve config with defaults applied for any unset values.
func (c *Config) GetServeConfig() *ServeConfig {
	if c.Serve == nil {
		return DefaultServeConfig()
	}
	s := *c.Serve
	if s.Addr == "" {
		s.Addr = DefaultServeAddr
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &s
}

// DisplayStyle returns the configured unit style.
func (c *Config) DisplayStyle() unit.Style {
	s, err := unit.ParseStyle(c.Style)
	if err != nil {
		return unit.Abbreviated
	}
	return s
}

// Resolver returns the default unit resolver extended with the configured
// custom units.
func (c *Config) Resolver() (*unit.Resolver, error) {
	if len(c.Units) == 0 {
		return unit.Default(), nil
	}
	units := make([]unit.Unit, 0, len(c.Units))
	for _, uc := range c.Units {
		u, err := unit.Define(unit.Definition{
			Name:         uc.Name,
			Plural:       uc.Plural,
			Abbreviation: uc.Abbreviation,
			Aliases:      uc.Aliases,
			Multiple:     uc.Multiple,
			Dimension:    uc.Dimension,
			Common:       uc.Common,
		})
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", uc.Name, err)
		}
		units = append(units, u)
	}
	return unit.Default().With(units...), nil
}
