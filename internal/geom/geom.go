// Package geom holds the primitive records of a composition and the pure
// generators that derive their geometry from parameters and a seed.
//
// Generators never fail: non-finite or out-of-range inputs are clamped or
// defaulted, so the worst case is degenerate but valid geometry.
package geom

import (
	"math"

	"github.com/jinzhu/copier"
)

// Kind names a primitive type. The string values are the ones stored in
// session files.
type Kind string

const (
	KindTree      Kind = "tree"
	KindFern      Kind = "fern"
	KindPath      Kind = "path"
	KindSnowflake Kind = "snowflake"
	KindFlower    Kind = "flower"
	KindVine      Kind = "vine"
	KindClouds    Kind = "clouds"
	KindEraser    Kind = "eraser"
	KindMountain  Kind = "mountain"
	KindCelestial Kind = "celestial"
)

// Kinds lists every primitive kind in the order the composer cycles them.
var Kinds = []Kind{
	KindTree, KindFern, KindPath, KindSnowflake, KindFlower,
	KindVine, KindClouds, KindEraser, KindMountain, KindCelestial,
}

// Primitive is implemented by every record that can sit in a scene.
type Primitive interface {
	Kind() Kind
}

// Point is a 2D position in canvas pixels, y growing downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a straight stroke between two points.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Start returns the first endpoint.
func (l Line) Start() Point { return Point{l.X1, l.Y1} }

// End returns the second endpoint.
func (l Line) End() Point { return Point{l.X2, l.Y2} }

// Clone returns a deep copy of a record. Slices inside the copy share no
// backing arrays with src.
func Clone[T any](src *T) *T {
	if src == nil {
		return nil
	}
	dst := new(T)
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched types, which cannot happen here.
		panic(err)
	}
	return dst
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// alphaOr normalises an opacity, treating non-finite values as opaque.
func alphaOr(a float64) float64 {
	return clampFloat(finiteOr(a, 1), 0, 1)
}

// jsRound rounds half up, matching the pixel snapping used by session files
// written by the browser version.
func jsRound(v float64) float64 {
	return math.Floor(v + 0.5)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
