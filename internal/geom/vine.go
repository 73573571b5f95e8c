package geom

import (
	"math"

	"fractalforest/internal/noise"
)

// MaxVinePoints bounds the length of a vine walk.
const MaxVinePoints = 20000

// Vine is a noise-steered random walk with a cached polyline.
type Vine struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Length int     `json:"length"`
	Noise  float64 `json:"noise"`
	Step   float64 `json:"step"`
	Stroke float64 `json:"stroke"`
	Color  string  `json:"color"`
	Alpha  float64 `json:"alpha,omitempty"`
	Seed   uint32  `json:"rngSeed"`
	Points []Point `json:"points"`
}

func (*Vine) Kind() Kind { return KindVine }

// Rebuild recomputes the cached polyline.
func (v *Vine) Rebuild() {
	v.Points = VinePolyline(v.CX, v.CY, v.Length, v.Noise, v.Step, v.Seed)
}

// VinePolyline walks max(10, length) points from (cx, cy). At every step the
// heading moves a quarter of the way towards the angle read from the seed's
// noise field at the current position.
func VinePolyline(cx, cy float64, length int, scale, step float64, seed uint32) []Point {
	n := clampInt(length, 10, MaxVinePoints)
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 0.01
	}
	scale = math.Max(0.001, scale)
	step = finiteOr(step, 4)
	field := noise.New(seed)

	x, y := finiteOr(cx, 0), finiteOr(cy, 0)
	ang := -math.Pi / 2
	pts := make([]Point, 1, n)
	pts[0] = Point{x, y}
	for i := 1; i < n; i++ {
		theta := (field.At(x*scale, y*scale)*0.5 + 0.5) * 2 * math.Pi
		ang = 0.75*ang + 0.25*theta
		x += step * math.Cos(ang)
		y += step * math.Sin(ang)
		pts = append(pts, Point{x, y})
	}
	return pts
}
