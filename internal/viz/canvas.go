package viz

import (
	"strings"
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

// Canvas is a Braille pixel canvas with a longitude-latitude mapping, used
// to draw vortex tracks.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	// Lon0..Lon1 and Lat0..Lat1 (degrees) span the canvas; Lat1 is the top
	// edge.
	Lon0, Lon1 float64
	Lat0, Lat1 float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Lon0:   0, Lon1: 360,
		Lat0: -90, Lat1: 90,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Pixel maps a position in degrees to sub-pixel coordinates.
func (c *Canvas) Pixel(lat, lon float64) (x, y int) {
	fx := (lon - c.Lon0) / (c.Lon1 - c.Lon0)
	fy := (c.Lat1 - lat) / (c.Lat1 - c.Lat0)
	return int(fx * float64(c.Width*2-1)), int(fy * float64(c.Height*4-1))
}

// Plot sets the pixel at a position in degrees.
func (c *Canvas) Plot(lat, lon float64) {
	c.Set(c.Pixel(lat, lon))
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

// Track draws a polyline through positions in degrees. Segments that cross
// the canvas' longitude seam are skipped.
func (c *Canvas) Track(lats, lons []float64) {
	for i := range lats {
		x1, y1 := c.Pixel(lats[i], lons[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := c.Pixel(lats[i-1], lons[i-1])
		if absInt(x1-x0) > c.Width {
			c.Set(x1, y1)
			continue
		}
		c.DrawLine(x0, y0, x1, y1)
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
