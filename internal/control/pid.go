package control

import "github.com/samber/lo"

// PID is a scalar feedback loop fed with the error and the time elapsed
// since the previous call. When WindupLimit is positive the integral term
// is held within ±WindupLimit, so a loop whose output saturates
// downstream does not keep accumulating.
type PID struct {
	Kp          float64
	Ki          float64
	Kd          float64
	WindupLimit float64

	integral float64
	prevErr  float64
	primed   bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd}
}

// Update returns the loop output. The first call after construction or
// Reset, and any call with dt <= 0, is proportional only.
func (p *PID) Update(e, dt float64) float64 {
	if !p.primed || dt <= 0 {
		p.prevErr = e
		p.primed = true
		return p.Kp * e
	}

	p.integral += e * dt
	if p.WindupLimit > 0 {
		p.integral = lo.Clamp(p.integral, -p.WindupLimit, p.WindupLimit)
	}
	rate := (e - p.prevErr) / dt
	p.prevErr = e

	return p.Kp*e + p.Ki*p.integral + p.Kd*rate
}

func (p *PID) Reset() {
	p.integral, p.prevErr, p.primed = 0, 0, false
}
