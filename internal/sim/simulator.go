package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/path"
	"github.com/san-kum/mpcdrive/internal/vehicle"
	"go.uber.org/zap"
)

// Controller picks the command to apply for the next tick given the car
// and the upcoming waypoints.
type Controller interface {
	Optimize(ctx context.Context, car *vehicle.Car, targets []dynamo.Point) (dynamo.Control, error)
}

type Simulator struct {
	car        *vehicle.Car
	controller Controller
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        *zap.Logger
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIntegrator replaces the default forward Euler update with integ.
func WithIntegrator(integ dynamo.Integrator) Option {
	return func(s *Simulator) { s.integrator = integ }
}

func WithMetrics(ms ...dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, ms...) }
}

func WithObservers(obs ...dynamo.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, obs...) }
}

func New(car *vehicle.Car, controller Controller, opts ...Option) *Simulator {
	s := &Simulator{
		car:        car,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Car() *vehicle.Car { return s.car }

func (s *Simulator) Controller() Controller { return s.controller }

// Run drives the car along p, one waypoint per tick. The car is advanced
// in place. A controller failure is replaced by zero control and recorded
// in Result.Failures; any other error stops the run and is returned as a
// *dynamo.SimulationError next to the partial result.
func (s *Simulator) Run(ctx context.Context, p path.Path, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	ticks := len(p)
	if cfg.MaxTicks > 0 && cfg.MaxTicks < ticks {
		ticks = cfg.MaxTicks
	}

	result := &dynamo.Result{
		Samples:  make([]dynamo.Sample, 0, ticks),
		Metrics:  make(map[string]float64),
		Failures: make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	for i := 0; i < ticks; i++ {
		sample, err := s.Step(ctx, p, i, t, cfg)
		if err != nil {
			if !errors.Is(err, dynamo.ErrControlFailure) {
				s.collect(result)
				return result, err
			}
			result.Failures = append(result.Failures, err)
		}
		t = sample.Time

		result.Samples = append(result.Samples, sample)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}
	}

	s.collect(result)
	s.log.Debug("run finished",
		zap.Int("ticks", result.StepsTaken),
		zap.Int("failures", len(result.Failures)))
	return result, nil
}

// Step advances the car by one tick towards waypoint i of p; t is the
// time before the tick. When the controller fails the car coasts and the
// valid sample is returned together with an error wrapping
// dynamo.ErrControlFailure. Any other error leaves the sample empty.
// Step does not notify metrics or observers.
func (s *Simulator) Step(ctx context.Context, p path.Path, i int, t float64, cfg dynamo.Config) (dynamo.Sample, error) {
	if i < 0 || i >= len(p) {
		return dynamo.Sample{}, s.fail(i, t, fmt.Errorf("%w: tick %d outside path of %d waypoints", dynamo.ErrInvalidParameter, i, len(p)))
	}
	select {
	case <-ctx.Done():
		return dynamo.Sample{}, s.fail(i, t, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()))
	default:
	}

	var failure error
	u, err := s.control(ctx, p.Window(i, cfg.Horizon))
	if err != nil {
		if !errors.Is(err, dynamo.ErrControlFailure) {
			return dynamo.Sample{}, s.fail(i, t, err)
		}
		s.log.Warn("control failure, coasting",
			zap.Int("tick", i),
			zap.Error(err))
		failure = s.fail(i, t, err)
		u = dynamo.Control{0, 0}
	}

	s.apply(u)
	t += s.car.Dt()

	if cfg.ValidateState && !s.car.State().IsValid() {
		return dynamo.Sample{}, s.fail(i, t, dynamo.ErrInvalidState)
	}

	sample := dynamo.Sample{
		Tick:    i,
		Time:    t,
		Target:  p[i],
		State:   s.car.State(),
		Control: u,
	}
	if failure != nil {
		return sample, failure
	}
	return sample, nil
}

func (s *Simulator) control(ctx context.Context, targets []dynamo.Point) (dynamo.Control, error) {
	u, err := s.controller.Optimize(ctx, s.car, targets)
	if err != nil {
		return nil, err
	}
	if len(u) != vehicle.ControlDim {
		return nil, fmt.Errorf("%w: controller returned %d values", dynamo.ErrDimensionMismatch, len(u))
	}
	return u, nil
}

func (s *Simulator) apply(u dynamo.Control) {
	if s.integrator == nil {
		s.car.Integrate(s.car.Derivative(u.Accel(), u.Steer()))
		return
	}
	s.car.Step(u, s.integrator)
}

func (s *Simulator) fail(tick int, t float64, err error) *dynamo.SimulationError {
	return &dynamo.SimulationError{Step: tick, Time: t, State: s.car.State(), Wrapped: err}
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive, got %d", dynamo.ErrInvalidParameter, cfg.Horizon)
	}
	if cfg.MaxTicks < 0 {
		return fmt.Errorf("%w: max ticks must not be negative, got %d", dynamo.ErrInvalidParameter, cfg.MaxTicks)
	}
	return nil
}
