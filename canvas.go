package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fractalforest/internal/geom"
	"fractalforest/internal/render"
	"fractalforest/internal/scene"
)

// Canvas rasterises a snapshot into terminal cells for the live preview.
// Positions are canvas pixels; Width and Height give the pixel size that
// the Cols x Rows cell grid covers.
type Canvas struct {
	Width, Height int
	Cols, Rows    int

	cells  [][]rune
	colors [][]string
	styles map[string]lipgloss.Style
}

// Preview holds the per-frame inputs of a render.
type Preview struct {
	Selected  render.Selection
	Pending   geom.Primitive
	Animate   bool
	Time      float64
	Frame     uint32
	WindAmp   float64 // degrees
	WindSpeed float64
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{Width: width, Height: height, styles: map[string]lipgloss.Style{}}
}

func (c *Canvas) reset(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	c.Cols, c.Rows = cols, rows
	c.cells = make([][]rune, rows)
	c.colors = make([][]string, rows)
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", cols))
		c.colors[i] = make([]string, cols)
	}
}

// cellSize returns the pixel width and height of one cell.
func (c *Canvas) cellSize() (float64, float64) {
	return float64(c.Width) / float64(c.Cols), float64(c.Height) / float64(c.Rows)
}

// toCell maps a canvas pixel to its cell.
func (c *Canvas) toCell(x, y float64) (int, int) {
	cw, ch := c.cellSize()
	return int(math.Floor(x / cw)), int(math.Floor(y / ch))
}

// toPixel maps a cell to the pixel at its centre.
func (c *Canvas) toPixel(col, row int) (float64, float64) {
	cw, ch := c.cellSize()
	return (float64(col) + 0.5) * cw, (float64(row) + 0.5) * ch
}

func (c *Canvas) isValidPos(col, row int) bool {
	return row >= 0 && row < c.Rows && col >= 0 && col < c.Cols
}

func (c *Canvas) set(col, row int, r rune, hex string) {
	if c.isValidPos(col, row) {
		c.cells[row][col] = r
		c.colors[row][col] = hex
	}
}

func (c *Canvas) plot(x, y float64, r rune, hex string) {
	col, row := c.toCell(x, y)
	c.set(col, row, r, hex)
}

// Draw rasterises snap in operation order, then the stroke being captured.
func (c *Canvas) Draw(snap scene.Snapshot, cols, rows int, pv Preview) {
	c.reset(cols, rows)
	tree := 0
	for _, op := range snap.Scene {
		c.drawOp(op.Data, snap, pv, tree)
		if op.Kind == geom.KindTree {
			tree++
		}
	}
	if pv.Pending != nil {
		c.drawOp(pv.Pending, snap, pv, -1)
	}
}

func (c *Canvas) drawOp(p geom.Primitive, snap scene.Snapshot, pv Preview, tree int) {
	switch r := p.(type) {
	case *geom.Tree:
		c.drawTree(r, snap, pv, tree)
	case *geom.Fern:
		hex := orColor(r.Color, geom.DefaultFernColor)
		r.EachPoint(func(x, y float64) { c.plot(x, y, '*', hex) })
	case *geom.Snowflake:
		c.drawLines(r.Segments, orColor(r.Color, geom.DefaultSnowflakeColor))
	case *geom.Flower:
		c.drawLines(r.Segments, orColor(r.Color, geom.DefaultFlowerColor))
		if r.HasBlossoms {
			for _, t := range r.Tips {
				c.plot(t.X, t.Y, '@', orColor(r.BlossomColor, geom.DefaultFlowerColor))
			}
		}
	case *geom.Vine:
		c.drawPolyline(r.Points, orColor(r.Color, geom.DefaultVineColor))
	case *geom.Cloud:
		dx := 0.0
		if pv.Animate && snap.AnimateClouds {
			dx = math.Mod(r.CX+r.Offset(pv.Time), float64(c.Width))
			if dx < 0 {
				dx += float64(c.Width)
			}
			dx -= r.CX
		}
		for _, k := range r.Circles {
			c.drawCircle(r.CX+dx+k.DX, r.CY+k.DY, k.Radius(), 'o', orColor(k.Color, geom.DefaultCloudColor))
		}
	case *geom.Mountain:
		c.drawMountain(r)
	case *geom.Celestial:
		c.fillDisc(r.CX, r.CY, math.Max(0.5, r.Size), 'O', orColor(r.Color, "#fff4c2"))
	case *geom.Path:
		for i := 1; i < len(r.Points); i++ {
			c.drawLine(r.Points[i-1], r.Points[i], '•', r.SegmentColor(i-1, snap.Palette))
		}
		if len(r.Points) == 1 {
			c.plot(r.Points[0].X, r.Points[0].Y, '•', r.SegmentColor(0, snap.Palette))
		}
	case *geom.Eraser:
		c.erase(r)
	}
}

func (c *Canvas) drawTree(t *geom.Tree, snap scene.Snapshot, pv Preview, idx int) {
	segs := t.Segments
	if pv.Animate && snap.AnimateWind {
		segs = t.Sway(pv.Time, pv.WindAmp*math.Pi/180, pv.WindSpeed)
	}
	colors := t.SegmentColors(pv.Frame)
	selected := idx >= 0 && pv.Selected.Tree == idx
	for i, s := range segs {
		if t.LevelAlpha(s.Level) <= 0 {
			continue
		}
		r := slopeRune(s.X2-s.X1, s.Y2-s.Y1)
		if selected && s.Level == pv.Selected.Level {
			r = '#'
		}
		c.drawLine(s.Start(), s.End(), r, colors[i])
	}
	if t.HasBlossoms {
		for _, s := range segs {
			if len(s.Children) == 0 {
				c.plot(s.X2, s.Y2, '@', orColor(t.BlossomColor, geom.DefaultFlowerColor))
			}
		}
	}
}

func (c *Canvas) drawLines(lines []geom.Line, hex string) {
	for _, l := range lines {
		c.drawLine(l.Start(), l.End(), slopeRune(l.X2-l.X1, l.Y2-l.Y1), hex)
	}
}

func (c *Canvas) drawPolyline(pts []geom.Point, hex string) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		c.drawLine(a, b, slopeRune(b.X-a.X, b.Y-a.Y), hex)
	}
}

// drawLine walks the cells between a and b with Bresenham's algorithm.
func (c *Canvas) drawLine(a, b geom.Point, r rune, hex string) {
	x0, y0 := c.toCell(a.X, a.Y)
	x1, y1 := c.toCell(b.X, b.Y)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, r, hex)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) drawCircle(cx, cy, radius float64, r rune, hex string) {
	cw, ch := c.cellSize()
	steps := max(12, int(2*math.Pi*radius/math.Min(cw, ch))*2)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.plot(cx+radius*math.Cos(a), cy+radius*math.Sin(a), r, hex)
	}
}

// eachCellIn calls fn for every cell whose centre lies within radius of
// (cx, cy).
func (c *Canvas) eachCellIn(cx, cy, radius float64, fn func(col, row int)) {
	c0, r0 := c.toCell(cx-radius, cy-radius)
	c1, r1 := c.toCell(cx+radius, cy+radius)
	for row := max(0, r0); row <= min(c.Rows-1, r1); row++ {
		for col := max(0, c0); col <= min(c.Cols-1, c1); col++ {
			x, y := c.toPixel(col, row)
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= radius*radius {
				fn(col, row)
			}
		}
	}
	// a disc smaller than a cell still covers the cell it sits in
	col, row := c.toCell(cx, cy)
	if c.isValidPos(col, row) {
		fn(col, row)
	}
}

func (c *Canvas) fillDisc(cx, cy, radius float64, r rune, hex string) {
	c.eachCellIn(cx, cy, radius, func(col, row int) { c.set(col, row, r, hex) })
}

func (c *Canvas) drawMountain(m *geom.Mountain) {
	if len(m.Points) < 2 {
		return
	}
	hex := "#2b3a4a"
	if len(m.Colors) > 0 {
		hex = orColor(m.Colors[0], hex)
	}
	for col := 0; col < c.Cols; col++ {
		x, _ := c.toPixel(col, 0)
		y, ok := ridgeAt(m.Points, x)
		if !ok {
			continue
		}
		_, top := c.toCell(x, y)
		c.set(col, top, '^', hex)
		for row := max(0, top+1); row < c.Rows; row++ {
			c.set(col, row, '░', hex)
		}
	}
}

// ridgeAt interpolates the ridge height at x.
func ridgeAt(pts []geom.Point, x float64) (float64, bool) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		lo, hi := math.Min(a.X, b.X), math.Max(a.X, b.X)
		if x < lo || x > hi {
			continue
		}
		if hi == lo {
			return math.Min(a.Y, b.Y), true
		}
		return a.Y + (b.Y-a.Y)*(x-a.X)/(b.X-a.X), true
	}
	return 0, false
}

// erase blanks every cell the eraser stroke covers.
func (c *Canvas) erase(e *geom.Eraser) {
	radius := math.Max(0.5, e.Size/2)
	blank := func(col, row int) { c.set(col, row, ' ', "") }
	if len(e.Points) == 1 {
		c.eachCellIn(e.Points[0].X, e.Points[0].Y, radius, blank)
		return
	}
	cw, ch := c.cellSize()
	step := math.Max(0.5, math.Min(cw, ch)/2)
	for i := 1; i < len(e.Points); i++ {
		a, b := e.Points[i-1], e.Points[i]
		n := max(1, int(math.Ceil(math.Hypot(b.X-a.X, b.Y-a.Y)/step)))
		for k := 0; k <= n; k++ {
			t := float64(k) / float64(n)
			c.eachCellIn(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t, radius, blank)
		}
	}
}

// slopeRune picks a glyph that follows the direction of a stroke.
func slopeRune(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ax < ay/2:
		return '│'
	case ay < ax/2:
		return '─'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

// Plain returns the grid without colour.
func (c *Canvas) Plain() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

// Lines returns the grid with colours applied and the cursor drawn at
// (cursorX, cursorY); a negative cursor is not drawn.
func (c *Canvas) Lines(cursorX, cursorY int) []string {
	out := make([]string, len(c.cells))
	var b strings.Builder
	for row := range c.cells {
		b.Reset()
		start := 0
		for col := 1; col <= c.Cols; col++ {
			if col < c.Cols && c.colors[row][col] == c.colors[row][start] && !(row == cursorY && (col == cursorX || start == cursorX)) {
				continue
			}
			run := string(c.cells[row][start:col])
			if row == cursorY && start == cursorX {
				run = "█"
			}
			b.WriteString(c.style(c.colors[row][start]).Render(run))
			start = col
		}
		out[row] = b.String()
	}
	return out
}

func (c *Canvas) style(hex string) lipgloss.Style {
	if st, ok := c.styles[hex]; ok {
		return st
	}
	st := lipgloss.NewStyle()
	if hex != "" {
		st = st.Foreground(lipgloss.Color(geom.ParseColor(hex, geom.DefaultBranchColor).Hex()))
	}
	c.styles[hex] = st
	return st
}

func orColor(hex, def string) string {
	if hex == "" {
		return def
	}
	return hex
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
