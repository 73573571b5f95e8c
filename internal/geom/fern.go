package geom

import (
	"math"

	"fractalforest/internal/rng"
)

// MaxFernPoints bounds the IFS iteration count of a single fern.
const MaxFernPoints = 500000

// Affine is one IFS map: (x, y) -> (a*x + b*y + e, c*x + d*y + f).
type Affine struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

func (m Affine) apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.E, m.C*x + m.D*y + m.F
}

// BarnsleyTransforms are the stem, leaflet, left and right maps of the
// classic fern, selected with probabilities 1%, 85%, 7% and 7%.
var BarnsleyTransforms = [4]Affine{
	{A: 0, B: 0, C: 0, D: 0.16, E: 0, F: 0},
	{A: 0.85, B: 0.04, C: -0.04, D: 0.85, E: 0, F: 1.6},
	{A: 0.2, B: -0.26, C: 0.23, D: 0.22, E: 0, F: 1.6},
	{A: -0.15, B: 0.28, C: 0.26, D: 0.24, E: 0, F: 0.44},
}

var fernThresholds = [3]float64{0.01, 0.86, 0.93}

// Fern is a Barnsley fern. Its points are not stored; they are regenerated
// from Seed on every paint.
type Fern struct {
	CX         float64    `json:"cx"`
	CY         float64    `json:"cy"`
	Size       float64    `json:"size"`
	Points     int        `json:"points"`
	Color      string     `json:"color"`
	Alpha      float64    `json:"alpha,omitempty"`
	Seed       uint32     `json:"rngSeed"`
	Transforms *[4]Affine `json:"transforms,omitempty"`
}

func (*Fern) Kind() Kind { return KindFern }

// JitterTransforms perturbs every coefficient of the classic maps by up to
// amount (relative), keeping the four-map structure.
func JitterTransforms(src rng.Source, amount float64) [4]Affine {
	out := BarnsleyTransforms
	j := func(v float64) float64 { return v + v*rng.Centered(src)*2*amount }
	for i := range out {
		m := &out[i]
		m.A, m.B, m.C, m.D = j(m.A), j(m.B), j(m.C), j(m.D)
		m.E, m.F = j(m.E), j(m.F)
	}
	return out
}

func (f *Fern) transforms() [4]Affine {
	if f.Transforms != nil {
		return *f.Transforms
	}
	return BarnsleyTransforms
}

// EachPoint runs the IFS and calls fn with every rounded pixel position in
// trajectory order.
func (f *Fern) EachPoint(fn func(px, py float64)) {
	n := clampInt(f.Points, 0, MaxFernPoints)
	ts := f.transforms()
	r := rng.Mulberry32(f.Seed)
	cx, cy, size := finiteOr(f.CX, 0), finiteOr(f.CY, 0), finiteOr(f.Size, 0)
	var x, y float64
	for i := 0; i < n; i++ {
		v := r.Float64()
		var m Affine
		switch {
		case v < fernThresholds[0]:
			m = ts[0]
		case v < fernThresholds[1]:
			m = ts[1]
		case v < fernThresholds[2]:
			m = ts[2]
		default:
			m = ts[3]
		}
		x, y = m.apply(x, y)
		if math.IsNaN(x) || math.IsNaN(y) {
			x, y = 0, 0
		}
		fn(jsRound(cx+x*size), jsRound(cy-y*size))
	}
}

// PointList collects the output of EachPoint.
func (f *Fern) PointList() []Point {
	out := make([]Point, 0, clampInt(f.Points, 0, MaxFernPoints))
	f.EachPoint(func(px, py float64) {
		out = append(out, Point{px, py})
	})
	return out
}
