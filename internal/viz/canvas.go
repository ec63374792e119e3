package viz

import (
	"math"
	"strings"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Braille patterns hold 2x4 dots per cell:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid of Width x Height cells, i.e.
// (Width*2) x (Height*4) dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	view          Viewport
}

// Viewport maps the transverse X-Y plane of the vehicle, in mm, onto the
// canvas. Y grows upwards.
type Viewport struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Fit returns the smallest viewport holding pts, padded by margin mm.
func Fit(margin float64, pts ...dynamo.Vec3) Viewport {
	v := Viewport{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range pts {
		v.MinX, v.MaxX = math.Min(v.MinX, p[0]), math.Max(v.MaxX, p[0])
		v.MinY, v.MaxY = math.Min(v.MinY, p[1]), math.Max(v.MaxY, p[1])
	}
	v.MinX -= margin
	v.MinY -= margin
	v.MaxX += margin
	v.MaxY += margin
	return v
}

func NewCanvas(w, h int, view Viewport) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		view:   view,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. Out of range dots are
// ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// project maps a point in mm to dot coordinates, keeping the aspect ratio.
func (c *Canvas) project(p dynamo.Vec3) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	spanX, spanY := c.view.MaxX-c.view.MinX, c.view.MaxY-c.view.MinY
	if spanX <= 0 || spanY <= 0 {
		return -1, -1
	}
	scale := math.Min(w/spanX, h/spanY)
	x := (p[0] - c.view.MinX) * scale
	y := h - (p[1]-c.view.MinY)*scale
	return int(math.Round(x)), int(math.Round(y))
}

// Segment draws the X-Y projection of the segment a-b.
func (c *Canvas) Segment(a, b dynamo.Vec3) {
	x0, y0 := c.project(a)
	x1, y1 := c.project(b)
	c.DrawLine(x0, y0, x1, y1)
}

// Joint draws a 3x3 dot blob at p.
func (c *Canvas) Joint(p dynamo.Vec3) {
	x, y := c.project(p)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
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
