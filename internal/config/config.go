// Package config loads simulation settings from YAML and holds the preset catalog.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultViewportW  = 1920
	DefaultViewportH  = 1080
	DefaultResolution = 10

	SeedUniform = "uniform"
	SeedCenter  = "center"

	// DefaultCenterU and DefaultCenterV seed the fill-center patch. Revisions
	// of the program used v=1.0 and v=1.2; any v > 0 starts growth.
	DefaultCenterU    = 0.50
	DefaultCenterV    = 1.0
	DefaultCenterHalf = 5

	DefaultTelemetryDir   = ".rdsim"
	DefaultTelemetryEvery = 10
)

type Config struct {
	Viewport      ViewportConfig  `yaml:"viewport"`
	Resolution    int             `yaml:"resolution"`
	Feed          float32         `yaml:"feed"`
	Kill          float32         `yaml:"kill"`
	DiffusionU    float32         `yaml:"diffusion_u"`
	DiffusionV    float32         `yaml:"diffusion_v"`
	Dt            float32         `yaml:"dt"`
	StepsPerTick  int             `yaml:"steps_per_tick"`
	Backend       string          `yaml:"backend"`
	ValidateState bool            `yaml:"validate_state"`
	Seed          SeedConfig      `yaml:"seed"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	LogLevel      string          `yaml:"log_level"`
}

type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SeedConfig selects how a fresh field is filled.
type SeedConfig struct {
	Strategy string  `yaml:"strategy"`
	CenterU  float32 `yaml:"center_u"`
	CenterV  float32 `yaml:"center_v"`
	HalfSize int     `yaml:"half_size"`
}

type TelemetryConfig struct {
	Dir   string `yaml:"dir"`
	Every int    `yaml:"every"`
}

func DefaultConfig() *Config {
	return &Config{
		Viewport:      ViewportConfig{Width: DefaultViewportW, Height: DefaultViewportH},
		Resolution:    DefaultResolution,
		Feed:          dynamo.DefaultFeed,
		Kill:          dynamo.DefaultKill,
		DiffusionU:    dynamo.DefaultDiffU,
		DiffusionV:    dynamo.DefaultDiffV,
		Dt:            dynamo.DefaultDt,
		StepsPerTick:  dynamo.DefaultSubSteps,
		Backend:       compute.BackendCPU,
		ValidateState: true,
		Seed: SeedConfig{
			Strategy: SeedUniform,
			CenterU:  DefaultCenterU,
			CenterV:  DefaultCenterV,
			HalfSize: DefaultCenterHalf,
		},
		Telemetry: TelemetryConfig{
			Dir:   DefaultTelemetryDir,
			Every: DefaultTelemetryEvery,
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport %dx%d: %w", c.Viewport.Width, c.Viewport.Height, dynamo.ErrInvalidDimension)
	}
	if c.Resolution < 1 {
		return fmt.Errorf("resolution %d: %w", c.Resolution, dynamo.ErrInvalidDimension)
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("dt=%v: %w", c.Dt, dynamo.ErrInvalidTimestep)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if !validBackend(c.Backend) {
		return fmt.Errorf("backend %q (available: %v): %w", c.Backend, compute.Names(), dynamo.ErrParameterBounds)
	}
	switch c.Seed.Strategy {
	case SeedUniform, SeedCenter:
	default:
		return fmt.Errorf("seed strategy %q: %w", c.Seed.Strategy, dynamo.ErrParameterBounds)
	}
	if c.Seed.HalfSize < 0 {
		return fmt.Errorf("seed half_size %d: %w", c.Seed.HalfSize, dynamo.ErrParameterBounds)
	}
	return nil
}

func validBackend(name string) bool {
	for _, n := range compute.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Params projects the reaction parameters.
func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		Feed:     c.Feed,
		Kill:     c.Kill,
		DiffU:    c.DiffusionU,
		DiffV:    c.DiffusionV,
		SubSteps: c.StepsPerTick,
	}
}

// ApplyPreset replaces feed and kill with the preset values.
func (c *Config) ApplyPreset(p Preset) {
	c.Feed, c.Kill = p.F, p.K
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
