package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: smoke
description: coast then pursue
steps:
  - preset: straight
    controller: none
    max_ticks: 5
    save_as: coast
  - preset: lane_change
    controller: pursuit
    integrator: rk4
    max_ticks: 8
  - preset: straight
    controller: mpc
    horizon: 4
    max_ticks: 2
    warm_start: true
    params:
      q: 2
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	return name
}

func TestLoadAndRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 3)

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "coast", results[0].Name)
	assert.Equal(t, 5, results[0].Result.StepsTaken)
	assert.Equal(t, "rk4", results[1].Config.Integrator)
	assert.Equal(t, 8, results[1].Result.StepsTaken)

	mpcCfg := results[2].Config
	assert.Equal(t, 4, mpcCfg.Horizon)
	assert.True(t, mpcCfg.MPC.WarmStart)
	assert.Equal(t, [2]float64{2, 2}, mpcCfg.MPC.Weights.Q)
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\nsteps: []\n"))
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStepConfigErrors(t *testing.T) {
	_, err := ScenarioStep{Preset: "nope"}.Config()
	assert.Error(t, err)

	_, err = ScenarioStep{Params: map[string]float64{"bogus": 1}}.Config()
	assert.Error(t, err)
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "straight", Controller: "none", MaxTicks: 2},
		{Preset: "straight", Controller: "teleport"},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestRunSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Controller = "none"
	base.MaxTicks = 3

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base: base, ParamName: "horizon", ParamMin: 2, ParamMax: 6, NumSteps: 3,
	}, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []float64{2, 4, 6}, []float64{results[0].ParamValue, results[1].ParamValue, results[2].ParamValue})
	assert.Contains(t, results[0].Metrics, "tracking_rms")
	assert.Equal(t, 10, base.Horizon, "base must not change")

	_, err = RunSweep(context.Background(), &ParameterSweep{Base: base, ParamName: "q", NumSteps: 0}, experiment.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller = "none"
	cfg.MaxTicks = 1
	cfg.Vehicle.Jitter = 0.5
	cfg.Seed = 3

	results, err := RunMonteCarlo(context.Background(), cfg, 4, 1.0, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	converged, diverged := MonteCarloStats(results)
	assert.Equal(t, 4, converged+diverged)
	assert.Equal(t, 4, converged, "a coasting car stays within its jitter of the first waypoint")
}
