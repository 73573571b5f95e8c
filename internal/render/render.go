// Package render draws snapshots to layered PNG images and to SVG.
package render

import (
	"errors"
	"image/color"
	"math"

	"fractalforest/internal/geom"
)

// ErrEmptyScene is returned when asked to export a snapshot with nothing
// drawn on it.
var ErrEmptyScene = errors.New("nothing to export")

// Selection marks a tree level to highlight. Tree is the index among the
// snapshot's trees, -1 for none.
type Selection struct {
	Tree  int
	Level int
}

// NoSelection highlights nothing.
var NoSelection = Selection{Tree: -1}

// Options control a raster render.
type Options struct {
	Width, Height int
	Caption       string

	// Animate applies wind sway and cloud drift at Time seconds for the
	// toggles stored in the snapshot. Frame feeds shimmering tree colours.
	Animate   bool
	Time      float64
	Frame     uint32
	WindAmp   float64 // degrees
	WindSpeed float64 // cycles per second

	Selected Selection
}

// DefaultOptions match the composer's initial wind controls.
func DefaultOptions(w, h int) Options {
	return Options{Width: w, Height: h, WindAmp: 4, WindSpeed: 0.2, Selected: NoSelection}
}

// nrgba parses hex and applies alpha, falling back to def.
func nrgba(hex, def string, alpha float64) color.NRGBA {
	r, g, b := geom.ParseColor(hex, def).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha8(alpha)}
}

func alpha8(a float64) uint8 {
	if math.IsNaN(a) {
		a = 1
	}
	return uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
}

// opacity reads a stored alpha, where zero means the field was absent.
func opacity(a float64) float64 {
	if a == 0 || math.IsNaN(a) {
		return 1
	}
	return math.Max(0, math.Min(1, a))
}

func orDefault(v, def float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
