package geom

import "math"

// MaxSnowflakeIter bounds the Koch construction depth.
const MaxSnowflakeIter = 6

// Snowflake is a Koch snowflake with cached edges.
type Snowflake struct {
	CX       float64 `json:"cx"`
	CY       float64 `json:"cy"`
	Size     float64 `json:"size"`
	Iter     int     `json:"iter"`
	Stroke   float64 `json:"stroke"`
	Color    string  `json:"color"`
	Alpha    float64 `json:"alpha,omitempty"`
	Seed     uint32  `json:"rngSeed"`
	Segments []Line  `json:"segments"`
}

func (*Snowflake) Kind() Kind { return KindSnowflake }

// Rebuild recomputes the cached edges.
func (s *Snowflake) Rebuild() {
	s.Segments = KochSnowflake(s.CX, s.CY, s.Size, s.Iter)
}

// KochSnowflake returns the 3*4^iter edges of a snowflake whose starting
// triangle has side 2*size and is centred on (cx, cy).
func KochSnowflake(cx, cy, size float64, iter int) []Line {
	iter = clampInt(iter, 0, MaxSnowflakeIter)
	cx, cy, size = finiteOr(cx, 0), finiteOr(cy, 0), finiteOr(size, 0)
	side := size * 2
	h := math.Sqrt(3) / 2 * side
	a := Point{cx, cy - 2*h/3}
	b := Point{cx + side/2, cy + h/3}
	c := Point{cx - side/2, cy + h/3}
	edges := []Line{
		{a.X, a.Y, b.X, b.Y},
		{b.X, b.Y, c.X, c.Y},
		{c.X, c.Y, a.X, a.Y},
	}
	for i := 0; i < iter; i++ {
		next := make([]Line, 0, len(edges)*4)
		for _, e := range edges {
			next = append(next, kochSubdivide(e)...)
		}
		edges = next
	}
	return edges
}

// kochSubdivide trisects e and raises an outward bump on the middle third.
func kochSubdivide(e Line) []Line {
	dx, dy := e.X2-e.X1, e.Y2-e.Y1
	ax, ay := e.X1+dx/3, e.Y1+dy/3
	bx, by := e.X1+2*dx/3, e.Y1+2*dy/3
	ux, uy := bx-ax, by-ay
	cos, sin := 0.5, -math.Sqrt(3)/2
	px, py := ax+(ux*cos-uy*sin), ay+(ux*sin+uy*cos)
	return []Line{
		{e.X1, e.Y1, ax, ay},
		{ax, ay, px, py},
		{px, py, bx, by},
		{bx, by, e.X2, e.Y2},
	}
}
