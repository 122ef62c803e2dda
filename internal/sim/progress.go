package sim

import (
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"go.uber.org/zap"
)

// ProgressLogger is an Observer that logs the car's pose and tracking
// error every n ticks.
type ProgressLogger struct {
	log   *zap.Logger
	every int
}

func NewProgressLogger(log *zap.Logger, every int) *ProgressLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressLogger{log: log, every: every}
}

func (p *ProgressLogger) OnStep(s dynamo.Sample) {
	if p.every <= 0 || (s.Tick+1)%p.every != 0 || len(s.State) < 4 {
		return
	}
	pos := dynamo.Point{X: s.State[0], Y: s.State[1]}
	p.log.Info("progress",
		zap.Int("tick", s.Tick),
		zap.Float64("time", s.Time),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Float64("v", s.State[2]),
		zap.Float64("error", pos.Dist(s.Target)))
}
