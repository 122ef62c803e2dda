package viz

import (
	"math"
	"strings"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set turns on the dot at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Frame maps world coordinates onto the canvas sub-pixel grid with equal
// scale on both axes. World +y points up.
type Frame struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	ch         int
}

// NewFrame fits the bounding box of every point in sets onto c, leaving a
// margin of pad sub-pixels.
func NewFrame(c *Canvas, pad int, sets ...[]dynamo.Point) Frame {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pts := range sets {
		for _, p := range pts {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	cw, ch := c.Width*2, c.Height*4
	spanX := math.Max(maxX-minX, 1e-9)
	spanY := math.Max(maxY-minY, 1e-9)
	usableW := float64(cw - 1 - 2*pad)
	usableH := float64(ch - 1 - 2*pad)
	scale := math.Min(usableW/spanX, usableH/spanY)

	return Frame{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  float64(pad) + (usableW-spanX*scale)/2,
		offY:  float64(pad) + (usableH-spanY*scale)/2,
		ch:    ch,
	}
}

// Project returns the sub-pixel position of p.
func (f Frame) Project(p dynamo.Point) (int, int) {
	x := f.offX + (p.X-f.minX)*f.scale
	y := f.offY + (p.Y-f.minY)*f.scale
	return int(math.Round(x)), f.ch - 1 - int(math.Round(y))
}

// Dots plots every point as a single dot.
func (c *Canvas) Dots(f Frame, pts []dynamo.Point) {
	for _, p := range pts {
		c.Set(f.Project(p))
	}
}

// Polyline joins consecutive points.
func (c *Canvas) Polyline(f Frame, pts []dynamo.Point) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := f.Project(pts[i-1])
		x1, y1 := f.Project(pts[i])
		c.DrawLine(x0, y0, x1, y1)
	}
	if len(pts) == 1 {
		c.Set(f.Project(pts[0]))
	}
}

// Car draws a short heading tick of length l sub-pixels from the car
// position plus a 3x3 marker.
func (c *Canvas) Car(f Frame, pos dynamo.Point, psi float64, l int) {
	x, y := f.Project(pos)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			c.Set(x+dx, y+dy)
		}
	}
	hx := x + int(math.Round(float64(l)*math.Cos(psi)))
	hy := y - int(math.Round(float64(l)*math.Sin(psi)))
	c.DrawLine(x, y, hx, hy)
}

// Lit reports whether the dot at (x, y) is on.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}
