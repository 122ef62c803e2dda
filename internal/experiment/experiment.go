package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/path"
	"github.com/san-kum/mpcdrive/internal/sim"
	"github.com/san-kum/mpcdrive/internal/vehicle"
	"go.uber.org/zap"
)

// Experiment wires a run configuration into a car, a controller, a path
// and a simulator.
type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	log        *zap.Logger
	randSource *rand.Rand
	path       path.Path
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:        cfg,
		log:        zap.NewNop(),
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}

	p, err := e.registry.GetPath(cfg.Path, e.start(), e.heading())
	if err != nil {
		return nil, err
	}
	e.path = p
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Path() path.Path { return e.path }

func (e *Experiment) RunConfig() dynamo.Config {
	return dynamo.Config{
		Horizon:       e.cfg.Horizon,
		MaxTicks:      e.cfg.MaxTicks,
		ValidateState: true,
	}
}

func (e *Experiment) start() dynamo.Point {
	return dynamo.Point{X: e.cfg.Vehicle.X0, Y: e.cfg.Vehicle.Y0}
}

func (e *Experiment) heading() float64 {
	return deg(e.cfg.Vehicle.Psi0Deg)
}

// NewCar builds the car at its configured start, shifted by offset.
func (e *Experiment) NewCar(offset dynamo.Point) (*vehicle.Car, error) {
	v := e.cfg.Vehicle
	return vehicle.NewCar(v.X0+offset.X, v.Y0+offset.Y, v.V0, e.heading(), v.Wheelbase, v.Dt)
}

// Simulator builds a fresh car, controller and simulator with the default
// metrics attached. Extra options are applied after the defaults.
func (e *Experiment) Simulator(offset dynamo.Point, opts ...sim.Option) (*sim.Simulator, error) {
	car, err := e.NewCar(offset)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.registry.GetController(e.cfg, e.log)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	base := []sim.Option{
		sim.WithLogger(e.log),
		sim.WithIntegrator(integ),
		sim.WithMetrics(e.registry.DefaultMetrics(e.cfg)...),
	}
	return sim.New(car, ctrl, append(base, opts...)...), nil
}

func (e *Experiment) Run(ctx context.Context, opts ...sim.Option) (*dynamo.Result, error) {
	s, err := e.Simulator(dynamo.Point{}, opts...)
	if err != nil {
		return nil, err
	}

	e.log.Info("run started",
		zap.String("scenario", e.cfg.Name),
		zap.String("controller", e.cfg.Controller),
		zap.Int("waypoints", len(e.path)),
		zap.Int("horizon", e.cfg.Horizon))

	return s.Run(ctx, e.path, e.RunConfig())
}

// Jobs builds n independent runs whose start positions are perturbed
// uniformly within the configured jitter. The same seed yields the same
// perturbations.
func (e *Experiment) Jobs(n int) ([]sim.Job, error) {
	jitter := e.cfg.Vehicle.Jitter
	jobs := make([]sim.Job, 0, n)
	for i := 0; i < n; i++ {
		offset := dynamo.Point{
			X: (e.randSource.Float64() - 0.5) * 2 * jitter,
			Y: (e.randSource.Float64() - 0.5) * 2 * jitter,
		}

		s, err := e.Simulator(offset)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, sim.Job{
			Name:      fmt.Sprintf("%s#%d", e.cfg.Name, i),
			Simulator: s,
			Path:      e.path,
			Config:    e.RunConfig(),
		})
	}
	return jobs, nil
}
