// Package path produces the ordered waypoint sequences the controller
// tracks. It stands in for a route planner: generators build common
// maneuvers, Load reads a planned route from disk and Interpolate
// resamples coarse plans to the spacing the controller expects.
package path

import (
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

type Path []dynamo.Point

// Window returns the next horizon waypoints starting at i. Near the end of
// the path the window shrinks, and it is empty once i runs past the end.
func (p Path) Window(i, horizon int) []dynamo.Point {
	if i < 0 || i >= len(p) || horizon <= 0 {
		return nil
	}
	end := i + horizon
	if end > len(p) {
		end = len(p)
	}
	return p[i:end]
}

// Length is the polyline length.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i].Dist(p[i-1])
	}
	return total
}

// Concat joins paths, dropping a joint point that repeats exactly.
func Concat(parts ...Path) Path {
	out := make(Path, 0)
	for _, part := range parts {
		for _, pt := range part {
			if n := len(out); n > 0 && out[n-1] == pt {
				continue
			}
			out = append(out, pt)
		}
	}
	return out
}

// Reverse returns the waypoints in opposite order.
func (p Path) Reverse() Path {
	out := make(Path, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Interpolate resamples p with points roughly spacing apart along each
// segment. Input vertices are kept; repeated vertices collapse into one.
func Interpolate(p Path, spacing float64) Path {
	if len(p) < 2 || spacing <= 0 {
		return append(Path(nil), p...)
	}

	out := Path{p[0]}
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		d := a.Dist(b)
		if d == 0 {
			continue
		}
		n := int(math.Ceil(d / spacing))
		for k := 1; k <= n; k++ {
			f := float64(k) / float64(n)
			out = append(out, dynamo.Point{
				X: a.X + f*(b.X-a.X),
				Y: a.Y + f*(b.Y-a.Y),
			})
		}
	}
	return out
}
