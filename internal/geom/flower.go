package geom

import (
	"math"
	"strings"
)

// MaxFlowerIter bounds the L-system expansion depth.
const MaxFlowerIter = 7

const (
	flowerAxiom = "F"
	flowerRule  = "F[+F]F[-F]F"
)

// Flower is an L-system plant with cached segments and tips.
type Flower struct {
	CX           float64 `json:"cx"`
	CY           float64 `json:"cy"`
	Iter         int     `json:"iter"`
	Angle        float64 `json:"angle"`
	Step         float64 `json:"step"`
	Stroke       float64 `json:"stroke"`
	Color        string  `json:"color"`
	Alpha        float64 `json:"alpha,omitempty"`
	Seed         uint32  `json:"rngSeed"`
	HasBlossoms  bool    `json:"hasBlossoms,omitempty"`
	BlossomSize  float64 `json:"blossomSize,omitempty"`
	BlossomColor string  `json:"blossomColor,omitempty"`
	Segments     []Line  `json:"segments"`
	Tips         []Point `json:"tips"`
}

func (*Flower) Kind() Kind { return KindFlower }

// Rebuild recomputes the cached segments and tips.
func (f *Flower) Rebuild() {
	f.Segments = FlowerSegments(f.CX, f.CY, f.Iter, f.Angle, f.Step)
	f.Tips = Tips(f.Segments)
}

// ExpandLSystem rewrites every F with the plant rule iter times.
func ExpandLSystem(iter int) string {
	s := flowerAxiom
	for i := 0; i < clampInt(iter, 0, MaxFlowerIter); i++ {
		s = strings.ReplaceAll(s, "F", flowerRule)
	}
	return s
}

// FlowerSegments interprets the expanded string as turtle commands starting
// at (cx, cy) facing up. angle is in degrees.
func FlowerSegments(cx, cy float64, iter int, angle, step float64) []Line {
	type turtle struct{ x, y, ang float64 }
	prog := ExpandLSystem(iter)
	turn := degToRad(finiteOr(angle, 0))
	step = finiteOr(step, 0)
	cur := turtle{finiteOr(cx, 0), finiteOr(cy, 0), -math.Pi / 2}
	var stack []turtle
	segs := make([]Line, 0, strings.Count(prog, "F"))
	for _, c := range prog {
		switch c {
		case 'F':
			nx := cur.x + step*math.Cos(cur.ang)
			ny := cur.y + step*math.Sin(cur.ang)
			segs = append(segs, Line{cur.x, cur.y, nx, ny})
			cur.x, cur.y = nx, ny
		case '+':
			cur.ang += turn
		case '-':
			cur.ang -= turn
		case '[':
			stack = append(stack, cur)
		case ']':
			if n := len(stack); n > 0 {
				cur = stack[n-1]
				stack = stack[:n-1]
			}
		}
	}
	return segs
}

// Tips returns the distinct segment endpoints that are never the start of
// any segment, in segment order.
func Tips(segs []Line) []Point {
	starts := make(map[Point]struct{}, len(segs))
	for _, s := range segs {
		starts[s.Start()] = struct{}{}
	}
	seen := make(map[Point]struct{})
	var tips []Point
	for _, s := range segs {
		e := s.End()
		if _, ok := starts[e]; ok {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		tips = append(tips, e)
	}
	return tips
}
