package geom

import (
	"math"

	"fractalforest/internal/rng"
)

// MinBranchLength stops recursion once a branch gets shorter than this.
const MinBranchLength = 0.6

const (
	// DefaultLenScale applies when a record leaves lenScale out.
	DefaultLenScale = 0.68
	// DefaultAngle is the fork spread, in degrees, used when angle is zero
	// or missing.
	DefaultAngle = 25.0
)

// JitterMode selects how the random angle offset is shared between branches.
type JitterMode string

const (
	// JitterPerBranch samples a fresh offset for every fork.
	JitterPerBranch JitterMode = "perBranch"
	// JitterPerLevel samples one offset per depth level.
	JitterPerLevel JitterMode = "perLevel"
	// JitterUniform samples one offset for the whole tree.
	JitterUniform JitterMode = "uniform"
)

// TreeColorMode selects how branch colours are chosen at paint time.
type TreeColorMode string

const (
	// TreeColorByLevel uses BranchColors[level].
	TreeColorByLevel TreeColorMode = "level"
	// TreeColorRandom picks palette entries from a stream reseeded with the
	// tree's seed on every paint, so repeated paints agree.
	TreeColorRandom TreeColorMode = "random"
	// TreeColorShimmer mixes a frame counter into the seed, so colours
	// change from frame to frame.
	TreeColorShimmer TreeColorMode = "shimmer"
)

// TreeParams are the shape parameters of a fractal tree.
type TreeParams struct {
	X                float64    `json:"x"`
	Y                float64    `json:"y"`
	Levels           int        `json:"levels"`
	BaseLen          float64    `json:"baseLen"`
	LenScale         float64    `json:"lenScale"`
	LenRand          float64    `json:"lenRand"`
	Angle            float64    `json:"angle"`
	AngleRand        float64    `json:"angleRand"`
	UniformAngleRand bool       `json:"uniformAngleRand,omitempty"`
	AngleJitter      JitterMode `json:"angleJitter,omitempty"`
}

// DefaultTreeParams mirrors the composer's initial slider positions.
func DefaultTreeParams() TreeParams {
	return TreeParams{Levels: 5, BaseLen: 100, LenScale: DefaultLenScale, Angle: DefaultAngle}
}

// Jitter returns the effective jitter policy.
func (p TreeParams) Jitter() JitterMode {
	switch {
	case p.AngleJitter != "":
		return p.AngleJitter
	case p.UniformAngleRand:
		return JitterUniform
	default:
		return JitterPerBranch
	}
}

// Segment is one branch of a tree. Parent is -1 for the root.
type Segment struct {
	Level    int     `json:"level"`
	Len      float64 `json:"len"`
	BaseAng  float64 `json:"baseAng"`
	Parent   int     `json:"parent"`
	Children []int   `json:"children"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// Start returns the branch base.
func (s Segment) Start() Point { return Point{s.X1, s.Y1} }

// End returns the branch tip.
func (s Segment) End() Point { return Point{s.X2, s.Y2} }

// TreeSegments grows the branch list for p. The stream of seed is consumed in
// a fixed order: jitter presets first (one value for uniform, Levels values
// for per-level), then for every emitted branch the length draw followed by
// the angle draw when jitter is per-branch. Children are grown left first.
func TreeSegments(p TreeParams, seed uint32) []Segment {
	levels := clampInt(p.Levels, 0, MaxLevels)
	baseLen := finiteOr(p.BaseLen, 0)
	lenScale := math.Max(0, finiteOr(p.LenScale, DefaultLenScale))
	lenRand := finiteOr(p.LenRand, 0)
	angleRand := finiteOr(p.AngleRand, 0)
	angle := finiteOr(p.Angle, 0)
	if angle == 0 {
		angle = DefaultAngle
	}
	spread := degToRad(angle)
	x, y := finiteOr(p.X, 0), finiteOr(p.Y, 0)

	r := rng.Mulberry32(seed)
	mode := p.Jitter()
	var uniform float64
	var perLevel []float64
	switch mode {
	case JitterUniform:
		uniform = rng.Centered(r) * angleRand * 0.15
	case JitterPerLevel:
		perLevel = make([]float64, levels+1)
		for i := range perLevel {
			perLevel[i] = rng.Centered(r) * angleRand * 0.15
		}
	}

	segs := make([]Segment, 0, 1<<levels)
	var branch func(x, y, length, ang float64, depth, level, parent int) int
	branch = func(x, y, length, ang float64, depth, level, parent int) int {
		if depth <= 0 || length < MinBranchLength {
			return -1
		}
		x2 := x + length*math.Cos(ang)
		y2 := y - length*math.Sin(ang)
		idx := len(segs)
		segs = append(segs, Segment{
			Level: level, Len: length, BaseAng: ang, Parent: parent,
			Children: []int{}, X1: x, Y1: y, X2: x2, Y2: y2,
		})

		next := length * (lenScale + rng.Centered(r)*lenRand)
		var jitter float64
		switch mode {
		case JitterUniform:
			jitter = uniform
		case JitterPerLevel:
			jitter = perLevel[level]
		default:
			jitter = rng.Centered(r) * angleRand * 0.15
		}

		if left := branch(x2, y2, next, ang-spread+jitter, depth-1, level+1, idx); left >= 0 {
			segs[idx].Children = append(segs[idx].Children, left)
		}
		if right := branch(x2, y2, next, ang+spread+jitter, depth-1, level+1, idx); right >= 0 {
			segs[idx].Children = append(segs[idx].Children, right)
		}
		return idx
	}
	branch(x, y, baseLen, math.Pi/2, levels, 0, -1)
	return segs
}

// Tree is a stamped fractal tree with its style and cached branches.
type Tree struct {
	TreeParams
	BaseWidth    float64       `json:"baseWidth"`
	WidthScale   float64       `json:"widthScale"`
	BranchColors []string      `json:"branchColors"`
	LevelAlphas  []float64     `json:"levelAlphas"`
	RandomColor  bool          `json:"randomColor,omitempty"`
	ColorMode    TreeColorMode `json:"colorMode,omitempty"`
	HasBlossoms  bool          `json:"hasBlossoms,omitempty"`
	BlossomSize  float64       `json:"blossomSize,omitempty"`
	BlossomColor string        `json:"blossomColor,omitempty"`
	Seed         uint32        `json:"rngSeed"`
	Segments     []Segment     `json:"segments"`
}

func (*Tree) Kind() Kind { return KindTree }

// NewTree builds a tree whose palette and opacities have exactly Levels
// entries, taken from palette (padded with defaults) and alpha.
func NewTree(p TreeParams, seed uint32, palette []string, alpha float64) *Tree {
	p.Levels = clampInt(p.Levels, 0, MaxLevels)
	colors := make([]string, p.Levels)
	defaults := DefaultTreePalette(MaxLevels)
	for i := range colors {
		if i < len(palette) && palette[i] != "" {
			colors[i] = palette[i]
		} else {
			colors[i] = defaults[i]
		}
	}
	alphas := make([]float64, p.Levels)
	for i := range alphas {
		alphas[i] = alphaOr(alpha)
	}
	t := &Tree{
		TreeParams:   p,
		BaseWidth:    12,
		WidthScale:   0.68,
		BranchColors: colors,
		LevelAlphas:  alphas,
		Seed:         seed,
	}
	t.Rebuild()
	return t
}

// FitLevels trims or pads BranchColors and LevelAlphas to exactly Levels
// entries, filling colours from the default palette and opacities with 1.
func (t *Tree) FitLevels() {
	t.Levels = clampInt(t.Levels, 0, MaxLevels)
	defaults := DefaultTreePalette(MaxLevels)
	colors := make([]string, t.Levels)
	alphas := make([]float64, t.Levels)
	for i := range colors {
		colors[i], alphas[i] = defaults[i], 1
		if i < len(t.BranchColors) && t.BranchColors[i] != "" {
			colors[i] = t.BranchColors[i]
		}
		if i < len(t.LevelAlphas) {
			alphas[i] = t.LevelAlphas[i]
		}
	}
	t.BranchColors, t.LevelAlphas = colors, alphas
}

// Rebuild recomputes the cached branches from the parameters and seed.
func (t *Tree) Rebuild() {
	t.Segments = TreeSegments(t.TreeParams, t.Seed)
}

// Colors returns the effective colour mode.
func (t *Tree) Colors() TreeColorMode {
	switch {
	case t.ColorMode != "":
		return t.ColorMode
	case t.RandomColor:
		return TreeColorRandom
	default:
		return TreeColorByLevel
	}
}

// Width returns the stroke width of branches on level.
func (t *Tree) Width(level int) float64 {
	base := finiteOr(t.BaseWidth, 12)
	if base == 0 {
		base = 12
	}
	scale := finiteOr(t.WidthScale, 0.68)
	return math.Max(0.1, base*math.Pow(scale, float64(level)))
}

// LevelColor returns the palette entry for level.
func (t *Tree) LevelColor(level int) string {
	if level >= 0 && level < len(t.BranchColors) && t.BranchColors[level] != "" {
		return t.BranchColors[level]
	}
	return DefaultBranchColor
}

// LevelAlpha returns the opacity of level, 1 when unset.
func (t *Tree) LevelAlpha(level int) float64 {
	if level >= 0 && level < len(t.LevelAlphas) {
		return alphaOr(t.LevelAlphas[level])
	}
	return 1
}

// SegmentColors returns one colour per segment for a paint of frame. Only
// shimmer mode depends on frame.
func (t *Tree) SegmentColors(frame uint32) []string {
	out := make([]string, len(t.Segments))
	mode := t.Colors()
	if mode == TreeColorByLevel || len(t.BranchColors) == 0 {
		for i, s := range t.Segments {
			out[i] = t.LevelColor(s.Level)
		}
		return out
	}
	seed := t.Seed
	if mode == TreeColorShimmer {
		seed ^= frame * 0x9e3779b9
	}
	r := rng.Mulberry32(seed)
	n := float64(len(t.BranchColors))
	for i := range out {
		out[i] = t.BranchColors[int(math.Floor(r.Float64()*n))]
	}
	return out
}

// Leaves returns the branches of segs that have no children. Blossoms sit
// on their tips.
func Leaves(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if len(s.Children) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Sway returns a copy of the branches bent by wind at time seconds. amp is
// in radians; deeper levels bend less. The phase comes from the seed so
// neighbouring trees do not move in lockstep.
func (t *Tree) Sway(time, amp, speed float64) []Segment {
	out := make([]Segment, len(t.Segments))
	copy(out, t.Segments)
	phase := float64(t.Seed%1000) / 1000 * 2 * math.Pi
	sway := make([]float64, MaxLevels+1)
	for lvl := range sway {
		sway[lvl] = amp / (1 + float64(lvl)*0.6) * math.Sin(time*speed*2*math.Pi+phase)
	}
	var walk func(i int, sx, sy float64)
	walk = func(i int, sx, sy float64) {
		s := &out[i]
		ang := s.BaseAng
		if s.Level < len(sway) {
			ang += sway[s.Level]
		}
		s.X1, s.Y1 = sx, sy
		s.X2 = sx + s.Len*math.Cos(ang)
		s.Y2 = sy - s.Len*math.Sin(ang)
		for _, c := range s.Children {
			if c > i && c < len(out) {
				walk(c, s.X2, s.Y2)
			}
		}
	}
	for i, s := range out {
		if s.Parent == -1 {
			walk(i, s.X1, s.Y1)
		}
	}
	return out
}

// HitTest reports the level of the first branch within tol of p.
func (t *Tree) HitTest(p Point, tol float64) (int, bool) {
	tol2 := tol * tol
	for _, s := range t.Segments {
		vx, vy := s.X2-s.X1, s.Y2-s.Y1
		wx, wy := p.X-s.X1, p.Y-s.Y1
		c1, c2 := vx*wx+vy*wy, vx*vx+vy*vy
		b := 0.0
		if c2 > 0 {
			b = clampFloat(c1/c2, 0, 1)
		}
		dx, dy := p.X-(s.X1+b*vx), p.Y-(s.Y1+b*vy)
		if dx*dx+dy*dy <= tol2 {
			return s.Level, true
		}
	}
	return 0, false
}

// Widths returns the stroke width of every level.
func (t *Tree) Widths() []float64 {
	out := make([]float64, clampInt(t.Levels, 0, MaxLevels))
	for i := range out {
		out[i] = t.Width(i)
	}
	return out
}
