package mpc

import (
	"fmt"
	"time"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

const (
	DefaultMaxAccel     = 5.0
	DefaultMaxSteerDeg  = 60.0
	DefaultMaxIter      = 200
	DefaultGradTol      = 1e-6
	DefaultFDStep       = 1e-6
	DefaultSolverBudget = 250 * time.Millisecond
)

// FailurePolicy decides what Optimize does when the solver stops without
// converging.
type FailurePolicy string

const (
	// PolicyAccept returns the best iterate the solver reached.
	PolicyAccept FailurePolicy = "accept"
	// PolicyStrict reports a *ControlFailure instead.
	PolicyStrict FailurePolicy = "strict"
)

// Weights are the diagonals of the 2x2 cost matrices. R penalizes
// [acc, steer] magnitude, Q penalizes [x, y] tracking error and Rd
// penalizes the change of [acc, steer] between consecutive steps.
type Weights struct {
	R  [2]float64 `yaml:"r"`
	Q  [2]float64 `yaml:"q"`
	Rd [2]float64 `yaml:"rd"`
}

func DefaultWeights() Weights {
	return Weights{
		R:  [2]float64{0.01, 0.01},
		Q:  [2]float64{1.0, 1.0},
		Rd: [2]float64{0.01, 1.0},
	}
}

type Config struct {
	Weights        Weights       `yaml:"weights"`
	MaxAccel       float64       `yaml:"max_accel"`
	MaxSteerDeg    float64       `yaml:"max_steer_deg"`
	Method         string        `yaml:"method"`
	MaxIterations  int           `yaml:"max_iterations"`
	MaxEvaluations int           `yaml:"max_evaluations"`
	Budget         time.Duration `yaml:"budget"`
	GradTol        float64       `yaml:"grad_tol"`
	FDStep         float64       `yaml:"fd_step"`
	FailurePolicy  FailurePolicy `yaml:"failure_policy"`
	WarmStart      bool          `yaml:"warm_start"`
}

func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		MaxAccel:      DefaultMaxAccel,
		MaxSteerDeg:   DefaultMaxSteerDeg,
		Method:        "lbfgs",
		MaxIterations: DefaultMaxIter,
		Budget:        DefaultSolverBudget,
		GradTol:       DefaultGradTol,
		FDStep:        DefaultFDStep,
		FailurePolicy: PolicyAccept,
	}
}

func (c Config) Validate() error {
	if c.MaxAccel <= 0 {
		return fmt.Errorf("%w: max_accel must be positive, got %g", dynamo.ErrInvalidParameter, c.MaxAccel)
	}
	if c.MaxSteerDeg <= 0 || c.MaxSteerDeg >= 90 {
		return fmt.Errorf("%w: max_steer_deg must be in (0, 90), got %g", dynamo.ErrInvalidParameter, c.MaxSteerDeg)
	}
	for name, w := range map[string][2]float64{"r": c.Weights.R, "q": c.Weights.Q, "rd": c.Weights.Rd} {
		if w[0] < 0 || w[1] < 0 {
			return fmt.Errorf("%w: weight %s must be non-negative, got %v", dynamo.ErrInvalidParameter, name, w)
		}
	}
	if _, ok := methods[c.Method]; !ok {
		return fmt.Errorf("%w: unknown solver method %q", dynamo.ErrInvalidParameter, c.Method)
	}
	switch c.FailurePolicy {
	case PolicyAccept, PolicyStrict:
	default:
		return fmt.Errorf("%w: unknown failure policy %q", dynamo.ErrInvalidParameter, c.FailurePolicy)
	}
	if c.MaxIterations < 0 || c.MaxEvaluations < 0 || c.Budget < 0 {
		return fmt.Errorf("%w: solver budgets must be non-negative", dynamo.ErrInvalidParameter)
	}
	return nil
}

var _ dynamo.Configurable = (*Config)(nil)

// GetParams exposes the tunable weights by name.
func (c *Config) GetParams() map[string]float64 {
	return map[string]float64{
		"r_accel":  c.Weights.R[0],
		"r_steer":  c.Weights.R[1],
		"q_x":      c.Weights.Q[0],
		"q_y":      c.Weights.Q[1],
		"rd_accel": c.Weights.Rd[0],
		"rd_steer": c.Weights.Rd[1],
	}
}

func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "r_accel":
		c.Weights.R[0] = value
	case "r_steer":
		c.Weights.R[1] = value
	case "q", "q_xy":
		c.Weights.Q = [2]float64{value, value}
	case "q_x":
		c.Weights.Q[0] = value
	case "q_y":
		c.Weights.Q[1] = value
	case "rd_accel":
		c.Weights.Rd[0] = value
	case "rd_steer":
		c.Weights.Rd[1] = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
