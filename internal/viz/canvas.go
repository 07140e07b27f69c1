package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/nanosim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille grid. Each cell also remembers the last pen that
// touched it so agents can be told apart when rendered.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Ink           [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Ink:    make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Ink[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels; anything outside is ignored.
func (c *Canvas) Set(x, y, pen int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
	c.Ink[row][col] = pen
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Ink[i][j] = -1
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1, pen int) {
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
		c.Set(x0, y0, pen)
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

// Project maps a world position inside b to sub-pixel coordinates, y up.
func (c *Canvas) Project(b Bounds, x, y float64) (int, int) {
	w := float64(c.Width*2 - 1)
	h := float64(c.Height*4 - 1)
	px := (x - b.MinX) / (b.MaxX - b.MinX) * w
	py := (b.MaxY - y) / (b.MaxY - b.MinY) * h
	return int(px + 0.5), int(py + 0.5)
}

// Trace draws the polyline through the positions of states.
func (c *Canvas) Trace(b Bounds, states []dynamo.State, pen int) {
	if len(states) == 0 {
		return
	}
	x0, y0 := c.Project(b, states[0].X, states[0].Y)
	c.Set(x0, y0, pen)
	for _, st := range states[1:] {
		x1, y1 := c.Project(b, st.X, st.Y)
		c.DrawLine(x0, y0, x1, y1, pen)
		x0, y0 = x1, y1
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors each cell with the style of its pen.
func (c *Canvas) Render(pens []lipgloss.Style) string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			pen := c.Ink[i][j]
			if pen < 0 || pen >= len(pens) {
				b.WriteRune(r)
				continue
			}
			b.WriteString(pens[pen].Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Bounds is an axis-aligned world rectangle.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// Fit returns bounds enclosing every state, padded by 10% and never
// degenerate.
func Fit(tracks map[dynamo.AgentID][]dynamo.State) Bounds {
	var b Bounds
	first := true
	for _, states := range tracks {
		for _, st := range states {
			if first {
				b = Bounds{MinX: st.X, MaxX: st.X, MinY: st.Y, MaxY: st.Y}
				first = false
				continue
			}
			b.MinX = min(b.MinX, st.X)
			b.MaxX = max(b.MaxX, st.X)
			b.MinY = min(b.MinY, st.Y)
			b.MaxY = max(b.MaxY, st.Y)
		}
	}
	if first {
		return Bounds{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}
	}

	rangeX := b.MaxX - b.MinX
	rangeY := b.MaxY - b.MinY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return Bounds{
		MinX: b.MinX - rangeX*0.1,
		MaxX: b.MaxX + rangeX*0.1,
		MinY: b.MinY - rangeY*0.1,
		MaxY: b.MaxY + rangeY*0.1,
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
