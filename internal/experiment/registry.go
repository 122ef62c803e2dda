package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/control"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/integrators"
	"github.com/san-kum/mpcdrive/internal/metrics"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"github.com/san-kum/mpcdrive/internal/path"
	"github.com/san-kum/mpcdrive/internal/sim"
	"go.uber.org/zap"
)

// PathBuilder turns a path section into waypoints. start and heading
// (radians) are the car's initial pose.
type PathBuilder func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error)

type ControllerBuilder func(cfg *config.Config, log *zap.Logger) (sim.Controller, error)

type Registry struct {
	paths       map[string]PathBuilder
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerBuilder
}

func deg(d float64) float64 { return d * math.Pi / 180 }

func NewRegistry() *Registry {
	r := &Registry{
		paths:       make(map[string]PathBuilder),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerBuilder),
	}

	r.paths["straight"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		return path.Straight(start, heading, pc.Length, pc.Spacing), nil
	}
	r.paths["arc"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		return path.Arc(start, heading, pc.Radius, deg(pc.Sweep), pc.Spacing), nil
	}
	r.paths["lane_change"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		return path.LaneChange(start, heading, pc.Length, pc.Shift, pc.Offset, pc.Length, pc.Spacing), nil
	}
	r.paths["u_turn"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		return path.UTurn(start, heading, pc.Length, pc.Radius, pc.Spacing), nil
	}
	r.paths["parking"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		return path.Parking(start, dynamo.Point{X: pc.BayX, Y: pc.BayY}, pc.Depth, pc.Spacing), nil
	}
	r.paths["file"] = func(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
		p, err := path.Load(pc.File)
		if err != nil {
			return nil, err
		}
		return path.Interpolate(p, pc.Spacing), nil
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["mpc"] = func(cfg *config.Config, log *zap.Logger) (sim.Controller, error) {
		return mpc.New(cfg.MPC, mpc.WithLogger(log))
	}
	r.controllers["pursuit"] = func(cfg *config.Config, log *zap.Logger) (sim.Controller, error) {
		return control.NewPursuit(3, cfg.MPC.MaxAccel, cfg.MPC.MaxSteerDeg), nil
	}
	r.controllers["none"] = func(cfg *config.Config, log *zap.Logger) (sim.Controller, error) {
		return control.NewNone(), nil
	}

	return r
}

func (r *Registry) GetPath(pc config.PathConfig, start dynamo.Point, heading float64) (path.Path, error) {
	fn, ok := r.paths[pc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", pc.Kind)
	}
	p, err := fn(pc, start, heading)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", pc.Kind, err)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("path %s: %w", pc.Kind, dynamo.ErrEmptyHorizon)
	}
	return p, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(cfg *config.Config, log *zap.Logger) (sim.Controller, error) {
	fn, ok := r.controllers[cfg.Controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", cfg.Controller)
	}
	return fn(cfg, log)
}

func (r *Registry) ListPaths() []string       { return sortedKeys(r.paths) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

// DefaultMetrics builds a fresh set of every tracking metric, with
// saturation measured against the configured bounds.
func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingError(),
		metrics.NewMaxDeviation(),
		metrics.NewControlEffort(),
		metrics.NewSaturation(cfg.MPC.MaxAccel, deg(cfg.MPC.MaxSteerDeg), 1e-3),
		metrics.NewSmoothness(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
