package control

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/vehicle"
)

func newCar(t *testing.T, v, psi float64) *vehicle.Car {
	t.Helper()
	car, err := vehicle.NewCar(0, 0, v, psi, 4, 0.2)
	if err != nil {
		t.Fatalf("NewCar: %v", err)
	}
	return car
}

func TestNone(t *testing.T) {
	ctrl := NewNone()
	u, err := ctrl.Optimize(context.Background(), newCar(t, 1, 0), []dynamo.Point{{X: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Accel() != 0 || u.Steer() != 0 {
		t.Errorf("expected zero control, got %v", u)
	}

	if _, err := ctrl.Optimize(context.Background(), newCar(t, 1, 0), nil); !errors.Is(err, dynamo.ErrEmptyHorizon) {
		t.Errorf("expected ErrEmptyHorizon, got %v", err)
	}
}

func TestPID(t *testing.T) {
	pid := NewPID(1.0, 0.1, 0.01)

	u := pid.Update(1.0, 0.1)
	if u != 1.0 {
		t.Errorf("first update should be proportional only, got %f", u)
	}

	u = pid.Update(1.0, 0.1)
	want := 1.0 + 0.1*0.1
	if math.Abs(u-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, u)
	}

	pid.Reset()
	if u := pid.Update(2.0, 0.1); u != 2.0 {
		t.Errorf("reset should clear history, got %f", u)
	}
}

func TestPIDWindupLimit(t *testing.T) {
	pid := NewPID(0, 1, 0)
	pid.WindupLimit = 0.5

	pid.Update(1, 1)
	var u float64
	for i := 0; i < 10; i++ {
		u = pid.Update(1, 1)
	}
	if u != 0.5 {
		t.Errorf("integral should be held at the limit, got %f", u)
	}

	if u := pid.Update(-2, 1); u != -0.5 {
		t.Errorf("integral should unwind from the limit, got %f", u)
	}
}

func TestPursuitSteersTowardsGoal(t *testing.T) {
	ctrl := NewPursuit(1, 5, 60)
	ctx := context.Background()

	left, _ := ctrl.Optimize(ctx, newCar(t, 1, 0), []dynamo.Point{{X: 2, Y: 2}})
	if left.Steer() <= 0 {
		t.Errorf("goal on the left should steer left, got %f", left.Steer())
	}

	ctrl.Reset()
	right, _ := ctrl.Optimize(ctx, newCar(t, 1, 0), []dynamo.Point{{X: 2, Y: -2}})
	if right.Steer() >= 0 {
		t.Errorf("goal on the right should steer right, got %f", right.Steer())
	}

	ctrl.Reset()
	ahead, _ := ctrl.Optimize(ctx, newCar(t, 0, 0), []dynamo.Point{{X: 5}})
	if ahead.Steer() != 0 || ahead.Accel() <= 0 {
		t.Errorf("goal straight ahead should accelerate without steering, got %v", ahead)
	}
}

func TestPursuitRespectsLimits(t *testing.T) {
	ctrl := NewPursuit(1, 2, 30)
	u, err := ctrl.Optimize(context.Background(), newCar(t, 0, 0), []dynamo.Point{{X: -50, Y: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(u.Accel()) > 2 || math.Abs(u.Steer()) > 30*math.Pi/180+1e-12 {
		t.Errorf("command outside limits: %v", u)
	}
}

func TestPursuitParams(t *testing.T) {
	ctrl := NewPursuit(3, 5, 60)
	if err := ctrl.SetParam("lookahead", 5); err != nil {
		t.Fatal(err)
	}
	if ctrl.GetParams()["lookahead"] != 5 {
		t.Errorf("lookahead not applied")
	}
	if err := ctrl.SetParam("lookahead", 0); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if err := ctrl.SetParam("bogus", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestPursuitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPursuit(1, 5, 60).Optimize(ctx, newCar(t, 0, 0), []dynamo.Point{{X: 1}})
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}
