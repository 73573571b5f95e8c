package geom

import (
	"math"

	"fractalforest/internal/rng"
)

// Circle is one ring of a cloud. DX and DY are its resting offset from the
// cloud centre.
type Circle struct {
	R     float64 `json:"r"`
	W     float64 `json:"w"`
	Color string  `json:"color"`
	DX    float64 `json:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty"`
}

// Cloud is a cluster of stroked circles with a soft shadow.
type Cloud struct {
	CX          float64  `json:"cx"`
	CY          float64  `json:"cy"`
	Circles     []Circle `json:"circles"`
	Blur        float64  `json:"blur"`
	ShadowColor string   `json:"shadowColor"`
	Alpha       float64  `json:"alpha,omitempty"`
	Drift       float64  `json:"drift,omitempty"`
	Seed        uint32   `json:"rngSeed,omitempty"`
}

func (*Cloud) Kind() Kind { return KindClouds }

// CloudParams are the sampling ranges for a new cloud.
type CloudParams struct {
	Count      int
	MinD, MaxD float64
	MinW, MaxW float64
	Spread     float64
	Blur       float64
	Shadow     string
	Drift      float64
}

// DefaultCloudParams matches the composer's initial cloud settings.
func DefaultCloudParams() CloudParams {
	return CloudParams{Count: 10, MinD: 20, MaxD: 120, MinW: 1, MaxW: 4, Blur: 8, Shadow: DefaultShadowColor}
}

// NewCloud samples circle sizes and widths from src and colours circle i
// with policy.Pick(seed+i). Inverted ranges are swapped.
func NewCloud(cx, cy float64, p CloudParams, seed uint32, policy ColorPolicy, src rng.Source) *Cloud {
	minD, maxD := finiteOr(p.MinD, 20), finiteOr(p.MaxD, 120)
	if maxD < minD {
		minD, maxD = maxD, minD
	}
	minW, maxW := finiteOr(p.MinW, 1), finiteOr(p.MaxW, 4)
	if maxW < minW {
		minW, maxW = maxW, minW
	}
	count := clampInt(p.Count, 0, 500)
	c := &Cloud{
		CX: cx, CY: cy,
		Circles:     make([]Circle, 0, count),
		Blur:        math.Max(0, finiteOr(p.Blur, 0)),
		ShadowColor: p.Shadow,
		Drift:       finiteOr(p.Drift, 0),
		Seed:        seed,
	}
	if c.ShadowColor == "" {
		c.ShadowColor = DefaultShadowColor
	}
	spread := math.Max(0, finiteOr(p.Spread, 0))
	for i := 0; i < count; i++ {
		d := rng.Range(src, minD, maxD)
		w := rng.Range(src, minW, maxW)
		circle := Circle{R: d / 2, W: w, Color: policy.Pick(seed + uint32(i))}
		if spread > 0 {
			circle.DX = rng.Centered(src) * spread
			circle.DY = rng.Centered(src) * spread / 2
		}
		c.Circles = append(c.Circles, circle)
	}
	return c
}

// Offset returns the horizontal drift at time seconds.
func (c *Cloud) Offset(t float64) float64 {
	return finiteOr(c.Drift*t, 0)
}

// Radius returns the drawn radius of circle k.
func (k Circle) Radius() float64 { return math.Max(0.5, k.R) }

// Width returns the drawn stroke width of circle k.
func (k Circle) Width() float64 {
	if k.W == 0 || math.IsNaN(k.W) {
		return 2
	}
	return k.W
}
