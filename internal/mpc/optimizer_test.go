package mpc

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize_EmptyHorizon(t *testing.T) {
	opt, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = opt.Optimize(context.Background(), restingCar(t), nil)
	assert.ErrorIs(t, err, dynamo.ErrEmptyHorizon)
}

func TestOptimize_CanceledContext(t *testing.T) {
	opt, err := New(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = opt.Optimize(ctx, restingCar(t), []dynamo.Point{{X: 1}})
	assert.ErrorIs(t, err, dynamo.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = "unknown"
	_, err := New(cfg)
	assert.ErrorIs(t, err, dynamo.ErrInvalidParameter)
}

func TestPlan_FirstMatchesOptimize(t *testing.T) {
	opt, err := New(DefaultConfig())
	require.NoError(t, err)
	targets := []dynamo.Point{{X: 1}, {X: 2}, {X: 3}}

	plan, err := opt.Plan(context.Background(), restingCar(t), targets)
	require.NoError(t, err)
	require.Len(t, plan.Controls, 3)
	require.Len(t, plan.Predicted, 3)

	u, err := opt.Optimize(context.Background(), restingCar(t), targets)
	require.NoError(t, err)
	assert.InDelta(t, plan.First().Accel(), u.Accel(), 1e-9)
	assert.InDelta(t, plan.First().Steer(), u.Steer(), 1e-9)
}

func TestStrictPolicy_ReportsControlFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailurePolicy = PolicyStrict
	cfg.MaxIterations = 1
	opt, err := New(cfg)
	require.NoError(t, err)

	_, err = opt.Optimize(context.Background(), restingCar(t), []dynamo.Point{{X: 1}, {X: 2}, {X: 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrControlFailure)

	var cf *ControlFailure
	require.True(t, errors.As(err, &cf))
	assert.Len(t, cf.Best, 2)
}

func TestAcceptPolicy_ReturnsBestIterate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	opt, err := New(cfg)
	require.NoError(t, err)

	u, err := opt.Optimize(context.Background(), restingCar(t), []dynamo.Point{{X: 1}, {X: 2}, {X: 3}})
	require.NoError(t, err)
	assert.Len(t, u, 2)
}

func TestWarmStart_ShiftsPreviousSolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarmStart = true
	opt, err := New(cfg)
	require.NoError(t, err)

	opt.prevZ = []float64{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []float64{3, 4, 5, 6, 5, 6}, opt.initialGuess(3))
	assert.Equal(t, []float64{3, 4}, opt.initialGuess(1))

	opt.Reset()
	assert.Equal(t, []float64{0, 0}, opt.initialGuess(1))
}

func TestColdStart_IgnoresHistory(t *testing.T) {
	opt, err := New(DefaultConfig())
	require.NoError(t, err)

	opt.prevZ = []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{0, 0, 0, 0}, opt.initialGuess(2))
}

func TestLast_KeepsMostRecentPlan(t *testing.T) {
	opt, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, opt.Last())

	u, err := opt.Optimize(context.Background(), restingCar(t), []dynamo.Point{{X: 1}, {X: 2}})
	require.NoError(t, err)

	last := opt.Last()
	require.NotNil(t, last)
	assert.Len(t, last.Predicted, 2)
	assert.Equal(t, u, last.First())

	opt.Reset()
	assert.Nil(t, opt.Last())
}
