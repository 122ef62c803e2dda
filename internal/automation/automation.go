package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/experiment"
	"github.com/san-kum/mpcdrive/internal/path"
	"github.com/san-kum/mpcdrive/internal/sim"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// fields that are set. Params are MPC weights by name.
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Controller string             `yaml:"controller"`
	Integrator string             `yaml:"integrator"`
	Horizon    int                `yaml:"horizon"`
	MaxTicks   int                `yaml:"max_ticks"`
	Method     string             `yaml:"method"`
	WarmStart  *bool              `yaml:"warm_start"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

type StepResult struct {
	Name   string
	Config *config.Config
	Path   path.Path
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a full run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}

	if s.Controller != "" {
		cfg.Controller = s.Controller
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Horizon > 0 {
		cfg.Horizon = s.Horizon
	}
	if s.MaxTicks > 0 {
		cfg.MaxTicks = s.MaxTicks
	}
	if s.Method != "" {
		cfg.MPC.Method = s.Method
	}
	if s.WarmStart != nil {
		cfg.MPC.WarmStart = *s.WarmStart
	}
	for k, v := range s.Params {
		if err := cfg.MPC.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Results of the steps that
// completed are returned alongside the first error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		log.Info("scenario step",
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", cfg.Name),
			zap.String("controller", cfg.Controller))

		exp, err := experiment.New(cfg, experiment.WithRegistry(registry), experiment.WithLogger(log))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: cfg.Name, Config: cfg, Path: exp.Path(), Result: result})
	}

	return results, nil
}

// ParameterSweep runs one base configuration across a range of values of
// a single parameter. "horizon" sets the window length; anything else is
// an MPC weight.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Failures   int
}

// RunSweep executes a parameter sweep. The runs are independent and go
// through sim.RunBatch.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log *zap.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", dynamo.ErrInvalidParameter)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	values := make([]float64, sweep.NumSteps)
	jobs := make([]sim.Job, 0, sweep.NumSteps)
	for i := range values {
		values[i] = sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if sweep.ParamName == "horizon" {
			cfg.Horizon = int(values[i])
		} else if err := cfg.MPC.SetParam(sweep.ParamName, values[i]); err != nil {
			return nil, err
		}

		exp, err := experiment.New(cfg, experiment.WithRegistry(registry), experiment.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", sweep.ParamName, values[i], err)
		}
		s, err := exp.Simulator(dynamo.Point{})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, sim.Job{
			Name:      fmt.Sprintf("%s=%g", sweep.ParamName, values[i]),
			Simulator: s,
			Path:      exp.Path(),
			Config:    exp.RunConfig(),
		})
	}

	runs, err := sim.RunBatch(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{ParamValue: values[i], Metrics: r.Metrics, Failures: len(r.Failures)}
	}
	return results, nil
}

// MonteCarloResult holds one perturbed-start trial
type MonteCarloResult struct {
	TrialID  int
	Start    dynamo.Point
	Final    dynamo.State
	Tracking float64
	// Converged is true when the car ended within tolerance of the last
	// waypoint it tracked.
	Converged bool
}

// RunMonteCarlo runs trials runs of cfg with start positions jittered by
// cfg.Vehicle.Jitter (seeded by cfg.Seed).
func RunMonteCarlo(ctx context.Context, cfg *config.Config, trials int, tolerance float64, registry *experiment.Registry, log *zap.Logger) ([]MonteCarloResult, error) {
	exp, err := experiment.New(cfg, experiment.WithRegistry(registry), experiment.WithLogger(log))
	if err != nil {
		return nil, err
	}

	jobs, err := exp.Jobs(trials)
	if err != nil {
		return nil, err
	}
	starts := make([]dynamo.Point, len(jobs))
	for i, j := range jobs {
		starts[i] = j.Simulator.Car().Position()
	}

	runs, err := sim.RunBatch(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		res := MonteCarloResult{TrialID: i, Start: starts[i], Tracking: r.Metrics["tracking_rms"]}
		if n := len(r.Samples); n > 0 {
			last := r.Samples[n-1]
			res.Final = last.State
			res.Converged = dynamo.Point{X: last.State[0], Y: last.State[1]}.Dist(last.Target) <= tolerance
		}
		results[i] = res
	}
	return results, nil
}

// MonteCarloStats counts converged and diverged trials
func MonteCarloStats(results []MonteCarloResult) (converged int, diverged int) {
	for _, r := range results {
		if r.Converged {
			converged++
		} else {
			diverged++
		}
	}
	return
}
