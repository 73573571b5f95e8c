package geom

import "math"

// Celestial is a sun or moon: a disc with a fading glow.
type Celestial struct {
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	Size  float64 `json:"size"`
	Glow  float64 `json:"glow"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha,omitempty"`
}

func (*Celestial) Kind() Kind { return KindCelestial }

// Ring is one glow band around a celestial body.
type Ring struct {
	R     float64
	Alpha float64
}

// GlowRings returns n rings from the disc edge out to Size+Glow, outermost
// first, with alpha falling linearly towards the edge of the glow.
func (c *Celestial) GlowRings(n int) []Ring {
	glow := math.Max(0, finiteOr(c.Glow, 0))
	if n <= 0 || glow == 0 {
		return nil
	}
	base := alphaOr(c.Alpha)
	size := math.Max(0, finiteOr(c.Size, 0))
	rings := make([]Ring, n)
	for i := 0; i < n; i++ {
		k := float64(n-i) / float64(n)
		rings[i] = Ring{R: size + glow*k, Alpha: base * (1 - k) * 0.6}
	}
	return rings
}
