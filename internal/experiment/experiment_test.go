package experiment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsPath(t *testing.T) {
	exp, err := New(config.DefaultConfig())
	require.NoError(t, err)

	p := exp.Path()
	require.Len(t, p, 41)
	assert.Equal(t, dynamo.Point{X: 10, Y: 50}, p[0])
	assert.InDelta(t, 10, p[40].Y, 1e-9)
}

func TestNewRejectsInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Horizon = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, dynamo.ErrInvalidParameter)

	cfg = config.DefaultConfig()
	cfg.Path.Kind = "spiral"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestRunCollectsMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller = "none"

	exp, err := New(cfg)
	require.NoError(t, err)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 41, res.StepsTaken)
	for _, name := range []string{"tracking_rms", "max_deviation", "control_effort", "saturation", "smoothness"} {
		assert.Contains(t, res.Metrics, name)
	}
	assert.Zero(t, res.Metrics["control_effort"])
}

func TestRunMPCTracksStraightLine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxTicks = 5

	exp, err := New(cfg)
	require.NoError(t, err)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, res.StepsTaken)

	last := res.Samples[4].State
	assert.InDelta(t, 10, last[0], 1e-6, "heading south along x=10 needs no steering")
	assert.Less(t, last[1], 50.0)
	assert.Greater(t, last[2], 0.0)
}

func TestJobsAreDeterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller = "none"
	cfg.Vehicle.Jitter = 2
	cfg.Seed = 7

	starts := func() []dynamo.Point {
		exp, err := New(cfg)
		require.NoError(t, err)
		jobs, err := exp.Jobs(3)
		require.NoError(t, err)
		out := make([]dynamo.Point, len(jobs))
		for i, j := range jobs {
			out[i] = j.Simulator.Car().Position()
		}
		return out
	}

	a, b := starts(), starts()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[1])
	for _, p := range a {
		assert.LessOrEqual(t, p.Dist(dynamo.Point{X: 10, Y: 50}), 2*1.5)
	}
}

func TestJobsRunInBatch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller = "pursuit"
	cfg.MaxTicks = 10

	exp, err := New(cfg)
	require.NoError(t, err)
	jobs, err := exp.Jobs(4)
	require.NoError(t, err)

	results, err := sim.RunBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, 10, r.StepsTaken)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"euler", "rk4"}, r.ListIntegrators())
	assert.Equal(t, []string{"mpc", "none", "pursuit"}, r.ListControllers())
	assert.Contains(t, r.ListPaths(), "parking")

	_, err := r.GetIntegrator("verlet")
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.Controller = "lqr"
	_, err = r.GetController(cfg, nil)
	assert.Error(t, err)

	assert.Len(t, r.DefaultMetrics(cfg), 5)
}

func TestFilePath(t *testing.T) {
	name := filepath.Join(t.TempDir(), "route.csv")
	require.NoError(t, os.WriteFile(name, []byte("x,y\n0,0\n0,4\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Path = config.PathConfig{Kind: "file", File: name, Spacing: 1}

	exp, err := New(cfg)
	require.NoError(t, err)
	assert.Len(t, exp.Path(), 5)

	cfg.Path.File = filepath.Join(t.TempDir(), "missing.csv")
	_, err = New(cfg)
	assert.Error(t, err)
}
