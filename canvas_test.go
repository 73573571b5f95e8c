package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fractalforest/internal/geom"
	"fractalforest/internal/render"
	"fractalforest/internal/scene"
)

func snapOf(ps ...geom.Primitive) scene.Snapshot {
	snap := scene.Baseline(nil)
	for _, p := range ps {
		snap.Scene = append(snap.Scene, scene.Op(p))
	}
	return snap
}

func TestCanvasCellMapping(t *testing.T) {
	c := NewCanvas(100, 50)
	c.reset(10, 5)
	col, row := c.toCell(15, 25)
	assert.Equal(t, 1, col)
	assert.Equal(t, 2, row)
	x, y := c.toPixel(1, 2)
	assert.Equal(t, 15.0, x)
	assert.Equal(t, 25.0, y)
}

func TestCanvasDrawsPathWithBresenham(t *testing.T) {
	c := NewCanvas(100, 100)
	path := &geom.Path{Points: []geom.Point{{X: 5, Y: 5}, {X: 95, Y: 95}}, StrokeWidth: 1}
	c.Draw(snapOf(path), 10, 10, Preview{Selected: render.NoSelection})
	lines := c.Plain()
	require.Len(t, lines, 10)
	for i, line := range lines {
		assert.Equal(t, '•', []rune(line)[i], "row %d", i)
	}
}

func TestCanvasEraserBlanksCells(t *testing.T) {
	c := NewCanvas(100, 100)
	path := &geom.Path{Points: []geom.Point{{X: 5, Y: 55}, {X: 95, Y: 55}}}
	eraser := &geom.Eraser{Size: 20, Points: []geom.Point{{X: 55, Y: 55}}}
	later := &geom.Path{Points: []geom.Point{{X: 55, Y: 5}, {X: 55, Y: 95}}}

	c.Draw(snapOf(path, eraser, later), 10, 10, Preview{Selected: render.NoSelection})
	row := []rune(c.Plain()[5])
	assert.Equal(t, '•', row[0])
	assert.Equal(t, ' ', row[4])
	assert.Equal(t, '•', row[5], "drawn after the eraser")
	assert.Equal(t, ' ', row[6])
	assert.Equal(t, '•', row[9])
}

func TestCanvasHighlightsSelectedLevel(t *testing.T) {
	tr := geom.NewTree(geom.TreeParams{X: 50, Y: 100, Levels: 2, BaseLen: 40, LenScale: 0.5, Angle: 30}, 42, nil, 1)
	c := NewCanvas(100, 100)
	c.Draw(snapOf(tr), 20, 20, Preview{Selected: render.Selection{Tree: 0, Level: 0}})
	joined := strings.Join(c.Plain(), "\n")
	assert.Contains(t, joined, "#")

	c.Draw(snapOf(tr), 20, 20, Preview{Selected: render.NoSelection})
	joined = strings.Join(c.Plain(), "\n")
	assert.NotContains(t, joined, "#")
	assert.Contains(t, joined, "│")
}

func TestCanvasHiddenLevelIsSkipped(t *testing.T) {
	tr := geom.NewTree(geom.TreeParams{X: 50, Y: 100, Levels: 1, BaseLen: 40, Angle: 30}, 42, nil, 1)
	tr.LevelAlphas[0] = 0
	c := NewCanvas(100, 100)
	c.Draw(snapOf(tr), 20, 20, Preview{Selected: render.NoSelection})
	assert.Equal(t, strings.Repeat(" ", 20), c.Plain()[15])
}

func TestCanvasMountainFillsBelowRidge(t *testing.T) {
	m := &geom.Mountain{Points: []geom.Point{{X: 0, Y: 50}, {X: 100, Y: 50}}, Colors: []string{"#333333"}}
	c := NewCanvas(100, 100)
	c.Draw(snapOf(m), 10, 10, Preview{Selected: render.NoSelection})
	lines := c.Plain()
	assert.Equal(t, strings.Repeat(" ", 10), lines[4])
	assert.Equal(t, strings.Repeat("^", 10), lines[5])
	assert.Equal(t, strings.Repeat("░", 10), lines[9])
}

func TestCanvasLinesDrawCursor(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Draw(snapOf(), 4, 2, Preview{Selected: render.NoSelection})
	lines := c.Lines(2, 1)
	assert.Contains(t, lines[1], "█")
	assert.NotContains(t, lines[0], "█")
}

func TestSlopeRune(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   rune
	}{
		{0, -10, '│'},
		{10, 0, '─'},
		{10, 10, '\\'},
		{10, -10, '/'},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slopeRune(tc.dx, tc.dy), "%v,%v", tc.dx, tc.dy)
	}
}
