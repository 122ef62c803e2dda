package mpc

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/vehicle"
	"go.uber.org/zap"
)

// Plan is the full result of one solve. Only Controls[0] is ever applied;
// the rest is kept for rendering and diagnostics.
type Plan struct {
	Controls    []dynamo.Control
	Predicted   []dynamo.Point
	Cost        float64
	Status      string
	Converged   bool
	Iterations  int
	Evaluations int
	Runtime     time.Duration
}

// First returns the command to apply now.
func (p *Plan) First() dynamo.Control {
	if p == nil || len(p.Controls) == 0 {
		return dynamo.Control{0, 0}
	}
	return p.Controls[0]
}

type Option func(*Optimizer)

func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// Optimizer is the receding-horizon controller. Apart from the optional
// warm-start buffer it keeps no state between calls.
type Optimizer struct {
	cfg      Config
	maxSteer float64
	log      *zap.Logger

	mu    sync.Mutex
	prevZ []float64
	last  *Plan
}

func New(cfg Config, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		cfg:      cfg,
		maxSteer: cfg.MaxSteerDeg * math.Pi / 180,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Optimizer) Config() Config { return o.cfg }

// Optimize returns the first command of the optimal control sequence
// over len(targets) steps. car is never mutated.
func (o *Optimizer) Optimize(ctx context.Context, car *vehicle.Car, targets []dynamo.Point) (dynamo.Control, error) {
	plan, err := o.Plan(ctx, car, targets)
	if err != nil {
		return nil, err
	}
	return plan.First(), nil
}

// Plan runs one solve and returns the whole optimized sequence.
func (o *Optimizer) Plan(ctx context.Context, car *vehicle.Car, targets []dynamo.Point) (*Plan, error) {
	if len(targets) == 0 {
		return nil, dynamo.ErrEmptyHorizon
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	h := len(targets)
	oc := NewOptimizationContext(car, targets, o.cfg.Weights)
	b := newBox(h, o.cfg.MaxAccel, o.maxSteer)

	sol := o.solve(ctx, oc, b, o.initialGuess(h))
	u := o.clamp(sol.u)

	plan := &Plan{
		Controls:    lo.Map(lo.Chunk(u, 2), func(p []float64, _ int) dynamo.Control { return dynamo.Control(p) }),
		Predicted:   oc.Rollout(u),
		Cost:        sol.cost,
		Status:      sol.status.String(),
		Converged:   sol.converged(),
		Iterations:  sol.iterations,
		Evaluations: sol.evaluations,
		Runtime:     sol.runtime,
	}

	fields := []zap.Field{
		zap.Int("horizon", h),
		zap.Float64("cost", plan.Cost),
		zap.String("status", plan.Status),
		zap.Int("iterations", plan.Iterations),
		zap.Int("evaluations", plan.Evaluations),
		zap.Duration("runtime", plan.Runtime),
		zap.Float64("accel", plan.First().Accel()),
		zap.Float64("steer", plan.First().Steer()),
	}

	o.mu.Lock()
	o.last = plan
	o.mu.Unlock()

	if !plan.Converged {
		if o.cfg.FailurePolicy == PolicyStrict {
			o.log.Warn("solver did not converge", append(fields, zap.Error(sol.err))...)
			return nil, &ControlFailure{Status: plan.Status, Best: plan.First(), Cause: sol.err}
		}
		o.log.Warn("solver did not converge; using best iterate", append(fields, zap.Error(sol.err))...)
	} else {
		o.log.Debug("mpc solve", fields...)
	}

	o.remember(sol.z)
	return plan, nil
}

func (o *Optimizer) clamp(u []float64) []float64 {
	out := make([]float64, len(u))
	for i := 0; i < len(u); i += 2 {
		out[i] = lo.Clamp(u[i], -o.cfg.MaxAccel, o.cfg.MaxAccel)
		out[i+1] = lo.Clamp(u[i+1], -o.maxSteer, o.maxSteer)
	}
	return out
}

// initialGuess is all zeros, or with warm start the previous free
// solution shifted one step and padded with its last pair.
func (o *Optimizer) initialGuess(h int) []float64 {
	z0 := make([]float64, 2*h)
	if !o.cfg.WarmStart {
		return z0
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.prevZ) < 4 {
		return z0
	}
	tail := o.prevZ[2:]
	for i := 0; i < 2*h; i++ {
		if i < len(tail) {
			z0[i] = tail[i]
		} else {
			z0[i] = tail[len(tail)-2+i%2]
		}
	}
	return z0
}

func (o *Optimizer) remember(z []float64) {
	if !o.cfg.WarmStart {
		return
	}
	o.mu.Lock()
	o.prevZ = append(o.prevZ[:0], z...)
	o.mu.Unlock()
}

// Last returns the most recent plan, including one rejected under the
// strict policy. It is kept for display only and never seeds a solve.
func (o *Optimizer) Last() *Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Reset drops the warm-start buffer and the last plan.
func (o *Optimizer) Reset() {
	o.mu.Lock()
	o.prevZ = nil
	o.last = nil
	o.mu.Unlock()
}
