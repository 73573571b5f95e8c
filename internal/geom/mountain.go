package geom

import (
	"math"

	"fractalforest/internal/rng"
)

// MaxMountainDetail bounds the number of subdivision passes.
const MaxMountainDetail = 12

// MountainParams configure a midpoint displacement ridge.
type MountainParams struct {
	Start      Point
	End        Point
	Detail     int
	Height     float64
	Jaggedness float64
	Smooth     bool
}

// Mountain is a filled ridge line between two anchors.
type Mountain struct {
	Start      Point    `json:"start"`
	End        Point    `json:"end"`
	Detail     int      `json:"detail"`
	Height     float64  `json:"height"`
	Jaggedness float64  `json:"jaggedness"`
	Smooth     bool     `json:"smooth,omitempty"`
	Colors     []string `json:"colors"`
	Alpha      float64  `json:"alpha,omitempty"`
	Points     []Point  `json:"points"`
}

func (*Mountain) Kind() Kind { return KindMountain }

// NewMountain builds the ridge with src. colors holds one fill colour, or
// the top and bottom of a vertical gradient.
func NewMountain(p MountainParams, colors []string, src rng.Source) *Mountain {
	m := &Mountain{
		Start:      p.Start,
		End:        p.End,
		Detail:     clampInt(p.Detail, 0, MaxMountainDetail),
		Height:     finiteOr(p.Height, 0),
		Jaggedness: clampFloat(finiteOr(p.Jaggedness, 0.5), 0, 1),
		Smooth:     p.Smooth,
		Colors:     append([]string(nil), colors...),
	}
	m.Points = MidpointDisplace(m.Start, m.End, m.Detail, m.Height, m.Jaggedness, src)
	if m.Smooth {
		m.Points = SmoothRidge(m.Points)
	}
	return m
}

// MidpointDisplace returns 2^detail+1 points. Every pass inserts a midpoint
// between each pair, shifted vertically by up to half the current
// displacement, then scales the displacement by jaggedness.
func MidpointDisplace(a, b Point, detail int, height, jaggedness float64, src rng.Source) []Point {
	detail = clampInt(detail, 0, MaxMountainDetail)
	pts := []Point{a, b}
	disp := height
	for i := 0; i < detail; i++ {
		next := make([]Point, 0, len(pts)*2-1)
		for j := 0; j < len(pts)-1; j++ {
			p, q := pts[j], pts[j+1]
			mid := Point{(p.X + q.X) / 2, (p.Y+q.Y)/2 + rng.Centered(src)*disp}
			next = append(next, p, mid)
		}
		next = append(next, pts[len(pts)-1])
		pts = next
		disp *= jaggedness
	}
	return pts
}

// SmoothRidge applies one (1/4, 1/2, 1/4) pass to the interior points.
func SmoothRidge(pts []Point) []Point {
	if len(pts) < 3 {
		return pts
	}
	out := make([]Point, len(pts))
	out[0], out[len(pts)-1] = pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		out[i] = Point{
			X: pts[i].X,
			Y: 0.25*pts[i-1].Y + 0.5*pts[i].Y + 0.25*pts[i+1].Y,
		}
	}
	return out
}

// Peak returns the smallest y on the ridge.
func (m *Mountain) Peak() float64 {
	top := math.Inf(1)
	for _, p := range m.Points {
		top = math.Min(top, p.Y)
	}
	return top
}
