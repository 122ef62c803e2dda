package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// Layer is one polyline of a trajectory plot.
type Layer struct {
	Points []dynamo.Point
	Stroke string
	Dashed bool
}

// TrajectorySVG draws the layers top-down with a shared, aspect-preserving
// scale. World +y points up.
func TrajectorySVG(layers []Layer, width, height int) string {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, l := range layers {
		for _, p := range l.Points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return ""
	}

	rangeX := math.Max(maxX-minX, 1)
	rangeY := math.Max(maxY-minY, 1)
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2
	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, l := range layers {
		if len(l.Points) == 0 {
			continue
		}
		dash := ""
		if l.Dashed {
			dash = ` stroke-dasharray="4 3"`
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="`, l.Stroke, dash))
		for i, p := range l.Points {
			x := (p.X - minX) * scale
			y := float64(height) - (p.Y-minY)*scale
			if i == 0 {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteRunSVG writes the planned path dashed and the driven trajectory
// solid.
func WriteRunSVG(w io.Writer, planned, driven []dynamo.Point, width, height int) error {
	svg := TrajectorySVG([]Layer{
		{Points: planned, Stroke: "#666688", Dashed: true},
		{Points: driven, Stroke: "#00ff88"},
	}, width, height)
	if svg == "" {
		return fmt.Errorf("nothing to plot")
	}
	_, err := io.WriteString(w, svg)
	return err
}
