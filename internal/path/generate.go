package path

import (
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// Straight runs length units from start along heading (radians).
func Straight(start dynamo.Point, heading, length, spacing float64) Path {
	end := dynamo.Point{
		X: start.X + length*math.Cos(heading),
		Y: start.Y + length*math.Sin(heading),
	}
	return Interpolate(Path{start, end}, spacing)
}

// Arc follows a circle of the given radius starting at start with the
// given heading, sweeping sweep radians (positive turns left).
func Arc(start dynamo.Point, heading, radius, sweep, spacing float64) Path {
	if radius <= 0 || spacing <= 0 {
		return Path{start}
	}
	side := 1.0
	if sweep < 0 {
		side = -1.0
	}
	cx := start.X - side*radius*math.Sin(heading)
	cy := start.Y + side*radius*math.Cos(heading)
	phi0 := math.Atan2(start.Y-cy, start.X-cx)

	n := int(math.Ceil(math.Abs(sweep) * radius / spacing))
	if n < 1 {
		n = 1
	}
	out := make(Path, 0, n+1)
	for k := 0; k <= n; k++ {
		phi := phi0 + sweep*float64(k)/float64(n)
		out = append(out, dynamo.Point{X: cx + radius*math.Cos(phi), Y: cy + radius*math.Sin(phi)})
	}
	out[0] = start
	return out
}

// LaneChange drives lead units straight, shifts sideways by offset over a
// smooth cosine ramp of length shift, then continues for tail units.
func LaneChange(start dynamo.Point, heading, lead, shift, offset, tail, spacing float64) Path {
	cos, sin := math.Cos(heading), math.Sin(heading)
	local := func(s, d float64) dynamo.Point {
		return dynamo.Point{X: start.X + s*cos - d*sin, Y: start.Y + s*sin + d*cos}
	}

	total := lead + shift + tail
	n := int(math.Ceil(total / spacing))
	if n < 1 {
		n = 1
	}
	out := make(Path, 0, n+1)
	for k := 0; k <= n; k++ {
		s := total * float64(k) / float64(n)
		d := 0.0
		switch {
		case s <= lead:
		case s >= lead+shift:
			d = offset
		default:
			d = offset * 0.5 * (1 - math.Cos(math.Pi*(s-lead)/shift))
		}
		out = append(out, local(s, d))
	}
	return out
}

// UTurn drives straight, turns around on a semicircle and drives back.
func UTurn(start dynamo.Point, heading, leg, radius, spacing float64) Path {
	out := Straight(start, heading, leg, spacing)
	turn := Arc(out[len(out)-1], heading, radius, math.Pi, spacing)
	back := Straight(turn[len(turn)-1], heading+math.Pi, leg, spacing)
	return Concat(out, turn, back)
}

// Parking approaches a bay along the aisle, then swings down a quarter
// circle into it. bay is the final parked position; the aisle runs depth
// units above it and the swing starts depth units past the bay along x.
func Parking(start, bay dynamo.Point, depth, spacing float64) Path {
	aisleY := bay.Y + depth
	pullPast := dynamo.Point{X: bay.X + depth, Y: aisleY}

	approach := Interpolate(Path{start, {X: start.X, Y: aisleY}, pullPast}, spacing)
	swing := Arc(pullPast, math.Pi, depth, math.Pi/2, spacing)
	swing[len(swing)-1] = bay
	return Concat(approach, swing)
}
