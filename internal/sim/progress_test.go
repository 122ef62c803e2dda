package sim

import (
	"context"
	"testing"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProgressLoggerEveryN(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(newCar(t), &constController{u: dynamo.Control{1, 0}},
		WithObservers(NewProgressLogger(zap.New(core), 4)))

	if _, err := s.Run(context.Background(), straight(10), dynamo.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("progress").All()
	if len(entries) != 2 {
		t.Fatalf("expected progress on ticks 3 and 7, got %d entries", len(entries))
	}
	if tick := entries[1].ContextMap()["tick"]; tick != int64(7) {
		t.Errorf("second entry tick = %v, want 7", tick)
	}
	if _, ok := entries[0].ContextMap()["error"]; !ok {
		t.Error("progress entry should carry the tracking error")
	}
}

func TestProgressLoggerDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProgressLogger(zap.New(core), 0)
	p.OnStep(dynamo.Sample{Tick: 0, State: dynamo.State{0, 0, 0, 0}})
	if logs.Len() != 0 {
		t.Errorf("every=0 should not log, got %d entries", logs.Len())
	}
	NewProgressLogger(nil, 1).OnStep(dynamo.Sample{State: dynamo.State{0, 0, 0, 0}})
}
