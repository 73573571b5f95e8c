package geom

// Path colour modes.
const (
	PathSingle = "single"
	PathCycle  = "cycle"
)

// Path is a freehand stroke.
type Path struct {
	Points      []Point `json:"points"`
	StrokeWidth float64 `json:"strokeWidth"`
	Alpha       float64 `json:"alpha,omitempty"`
	ColorMode   string  `json:"colorMode"`
	SingleColor string  `json:"singleColor"`
}

func (*Path) Kind() Kind { return KindPath }

// SegmentColor returns the colour of the segment starting at point i. Cycle
// mode walks palette, wrapping around.
func (p *Path) SegmentColor(i int, palette []string) string {
	if p.ColorMode == PathCycle && len(palette) > 0 {
		return palette[i%len(palette)]
	}
	if p.SingleColor != "" {
		return p.SingleColor
	}
	return DefaultBranchColor
}

// Eraser clears everything drawn before it along its points.
type Eraser struct {
	Size   float64 `json:"size"`
	Points []Point `json:"points"`
}

func (*Eraser) Kind() Kind { return KindEraser }

// Bounds returns the axis-aligned box covered by the stroke.
func (e *Eraser) Bounds() (lo, hi Point) {
	if len(e.Points) == 0 {
		return
	}
	lo, hi = e.Points[0], e.Points[0]
	for _, p := range e.Points[1:] {
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
	}
	r := e.Size / 2
	lo.X, lo.Y = lo.X-r, lo.Y-r
	hi.X, hi.Y = hi.X+r, hi.Y+r
	return
}
