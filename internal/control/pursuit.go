package control

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/vehicle"
)

var _ dynamo.Configurable = (*Pursuit)(nil)

// Pursuit is a geometric baseline: pure-pursuit steering towards the
// waypoint Lookahead steps into the window and a PID on speed. The speed
// setpoint is the distance to that waypoint covered in Lookahead ticks.
type Pursuit struct {
	Lookahead   int
	MaxAccel    float64
	MaxSteerDeg float64
	speed       *PID
}

func NewPursuit(lookahead int, maxAccel, maxSteerDeg float64) *Pursuit {
	speed := NewPID(1.0, 0.05, 0.1)
	speed.WindupLimit = 2 * maxAccel
	return &Pursuit{
		Lookahead:   lookahead,
		MaxAccel:    maxAccel,
		MaxSteerDeg: maxSteerDeg,
		speed:       speed,
	}
}

func (p *Pursuit) Optimize(ctx context.Context, car *vehicle.Car, targets []dynamo.Point) (dynamo.Control, error) {
	if len(targets) == 0 {
		return nil, dynamo.ErrEmptyHorizon
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	k := lo.Clamp(p.Lookahead, 1, len(targets))
	goal := targets[k-1]
	pos := car.Position()
	dist := goal.Dist(pos)

	alpha := math.Atan2(goal.Y-pos.Y, goal.X-pos.X) - car.Psi()
	steer := 0.0
	if dist > 1e-9 {
		steer = math.Atan2(2*car.Length()*math.Sin(alpha), dist)
	}

	want := dist / (float64(k) * car.Dt())
	acc := p.speed.Update(want-car.V(), car.Dt())

	maxSteer := p.MaxSteerDeg * math.Pi / 180
	return dynamo.Control{
		lo.Clamp(acc, -p.MaxAccel, p.MaxAccel),
		lo.Clamp(steer, -maxSteer, maxSteer),
	}, nil
}

func (p *Pursuit) Reset() { p.speed.Reset() }

func (p *Pursuit) GetParams() map[string]float64 {
	return map[string]float64{
		"lookahead": float64(p.Lookahead),
		"kp":        p.speed.Kp,
		"ki":        p.speed.Ki,
		"kd":        p.speed.Kd,
	}
}

func (p *Pursuit) SetParam(name string, value float64) error {
	switch name {
	case "lookahead":
		if value < 1 {
			return fmt.Errorf("%w: lookahead %v", dynamo.ErrInvalidParameter, value)
		}
		p.Lookahead = int(value)
	case "kp":
		p.speed.Kp = value
	case "ki":
		p.speed.Ki = value
	case "kd":
		p.speed.Kd = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidParameter, name)
	}
	return nil
}
