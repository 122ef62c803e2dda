package config

import (
	"fmt"
	"os"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultX0        = 10.0
	DefaultY0        = 50.0
	DefaultPsi0Deg   = -90.0
	DefaultWheelbase = 4.0
	DefaultDt        = 0.2
	DefaultHorizon   = 10
	DefaultSpacing   = 1.0
)

type Config struct {
	Name       string        `yaml:"name"`
	Controller string        `yaml:"controller"`
	Integrator string        `yaml:"integrator"`
	Horizon    int           `yaml:"horizon"`
	MaxTicks   int           `yaml:"max_ticks"`
	Seed       int64         `yaml:"seed"`
	Vehicle    VehicleConfig `yaml:"vehicle"`
	Path       PathConfig    `yaml:"path"`
	MPC        mpc.Config    `yaml:"mpc"`
}

type VehicleConfig struct {
	X0        float64 `yaml:"x0"`
	Y0        float64 `yaml:"y0"`
	V0        float64 `yaml:"v0"`
	Psi0Deg   float64 `yaml:"psi0_deg"`
	Wheelbase float64 `yaml:"wheelbase"`
	Dt        float64 `yaml:"dt"`
	// Jitter is the half-width of the uniform start position noise used
	// by ensemble runs.
	Jitter float64 `yaml:"jitter"`
}

// PathConfig selects a generator by Kind. Fields that a generator does
// not use are ignored. Angles are in degrees.
type PathConfig struct {
	Kind    string  `yaml:"kind"`
	File    string  `yaml:"file,omitempty"`
	Spacing float64 `yaml:"spacing"`
	Length  float64 `yaml:"length"`
	Radius  float64 `yaml:"radius,omitempty"`
	Sweep   float64 `yaml:"sweep_deg,omitempty"`
	Offset  float64 `yaml:"offset,omitempty"`
	Shift   float64 `yaml:"shift,omitempty"`
	BayX    float64 `yaml:"bay_x,omitempty"`
	BayY    float64 `yaml:"bay_y,omitempty"`
	Depth   float64 `yaml:"depth,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "straight",
		Controller: "mpc",
		Integrator: "euler",
		Horizon:    DefaultHorizon,
		Vehicle: VehicleConfig{
			X0:        DefaultX0,
			Y0:        DefaultY0,
			Psi0Deg:   DefaultPsi0Deg,
			Wheelbase: DefaultWheelbase,
			Dt:        DefaultDt,
		},
		Path: PathConfig{
			Kind:    "straight",
			Spacing: DefaultSpacing,
			Length:  40,
		},
		MPC: mpc.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes path on top of cfg, so fields the file leaves out keep
// their current values, and validates the result.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if c.Horizon <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: horizon must be positive, got %d", dynamo.ErrInvalidParameter, c.Horizon))
	}
	if c.MaxTicks < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max_ticks must not be negative", dynamo.ErrInvalidParameter))
	}
	if c.Vehicle.Wheelbase <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: wheelbase must be positive, got %g", dynamo.ErrInvalidParameter, c.Vehicle.Wheelbase))
	}
	if c.Vehicle.Dt <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParameter, c.Vehicle.Dt))
	}
	if c.Vehicle.Jitter < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: jitter must not be negative", dynamo.ErrInvalidParameter))
	}
	if c.Path.Kind == "" {
		err = multierr.Append(err, fmt.Errorf("%w: path kind is required", dynamo.ErrInvalidParameter))
	}
	if c.Path.Kind == "file" && c.Path.File == "" {
		err = multierr.Append(err, fmt.Errorf("%w: path kind file needs a file", dynamo.ErrInvalidParameter))
	}
	if c.Path.Spacing <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: path spacing must be positive, got %g", dynamo.ErrInvalidParameter, c.Path.Spacing))
	}
	if c.Controller == "mpc" {
		err = multierr.Append(err, c.MPC.Validate())
	}
	return err
}

// Clone returns a deep copy; Config holds no reference types so a value
// copy suffices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
