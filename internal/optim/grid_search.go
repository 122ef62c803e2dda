package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/experiment"
	"go.uber.org/multierr"
)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every combination of the grid and returns the parameters
// minimizing metricName, the best value and all trials in grid order.
// Trials that fail are skipped; Search only errors when none succeed.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("grid has %d names but %d ranges", len(g.paramNames), len(g.ranges))
	}

	trials := make([]Trial, 0)
	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &trials)

	best := math.Inf(1)
	var bestParams map[string]float64
	var errs error
	for _, tr := range trials {
		if tr.Err != nil {
			errs = multierr.Append(errs, tr.Err)
			continue
		}
		if tr.Value < best {
			best = tr.Value
			bestParams = tr.Params
		}
	}

	if bestParams == nil {
		if errs == nil {
			errs = fmt.Errorf("empty grid")
		}
		return nil, 0, trials, errs
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	trials *[]Trial,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		trial := Trial{Params: current}
		trial.Value, trial.Err = evaluate(ctx, current, buildExperiment, metricName)
		*trials = append(*trials, trial)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, trials)
	}
}

func evaluate(
	ctx context.Context,
	params map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (float64, error) {
	exp, err := buildExperiment(params)
	if err != nil {
		return 0, err
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %q not reported", metricName)
	}
	return val, nil
}

// WeightBuilder returns a builder that applies params to a copy of base's
// MPC weights.
func WeightBuilder(base *config.Config, opts ...experiment.Option) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := cfg.MPC.SetParam(name, params[name]); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg, opts...)
	}
}
