package viz

import (
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// RenderTrajectory draws the planned path as dots and the driven
// trajectory as a line on a w x h character canvas.
func RenderTrajectory(planned, driven []dynamo.Point, w, h int) string {
	c := NewCanvas(w, h)
	f := NewFrame(c, 1, planned, driven)
	c.Dots(f, planned)
	c.Polyline(f, driven)
	return c.String()
}

// Series is one named curve for PlotSeries.
type Series struct {
	Name   string
	Values []float64
}

// PlotSeries stacks one asciigraph chart per non-empty series.
func PlotSeries(series []Series, w, h int) string {
	var b strings.Builder
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		b.WriteString(asciigraph.Plot(s.Values, asciigraph.Height(h), asciigraph.Width(w), asciigraph.Caption(s.Name)))
		b.WriteString("\n\n")
	}
	return b.String()
}

// SampleSeries extracts speed, heading, acceleration and steering curves
// from a run.
func SampleSeries(samples []dynamo.Sample) []Series {
	speed := make([]float64, len(samples))
	psi := make([]float64, len(samples))
	acc := make([]float64, len(samples))
	steer := make([]float64, len(samples))
	for i, s := range samples {
		speed[i] = s.State[2]
		psi[i] = s.State[3]
		acc[i] = s.Control.Accel()
		steer[i] = s.Control.Steer()
	}
	return []Series{
		{Name: "speed", Values: speed},
		{Name: "heading (rad)", Values: psi},
		{Name: "acceleration", Values: acc},
		{Name: "steering (rad)", Values: steer},
	}
}
