// Package noise provides seeded 2D gradient noise.
package noise

import (
	"math"

	"fractalforest/internal/rng"
)

// Perlin is a 2D lattice noise field. It is immutable after construction and
// safe for concurrent reads.
type Perlin struct {
	p [512]uint8
}

// New builds a field whose 256-entry permutation is shuffled by the
// mulberry32 stream of seed, then doubled so lookups never wrap.
func New(seed uint32) *Perlin {
	r := rng.Mulberry32(seed)
	var perm [256]uint8
	for i := range perm {
		perm[i] = uint8(i)
	}
	for i := 255; i > 0; i-- {
		j := int(math.Floor(r.Float64() * float64(i+1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	n := &Perlin{}
	for i := range n.p {
		n.p[i] = perm[i&255]
	}
	return n
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

func grad(hash uint8, x, y float64) float64 {
	h := hash & 3
	u, v := x, y
	if h >= 2 {
		u, v = y, x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		return u - 2*v
	}
	return u + 2*v
}

// At samples the field at (x, y).
func (n *Perlin) At(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	X, Y := int(fx)&255, int(fy)&255
	xf, yf := x-fx, y-fy
	u, v := fade(xf), fade(yf)
	p := &n.p
	aa := p[int(p[X])+Y]
	ab := p[int(p[X])+Y+1]
	ba := p[int(p[X+1])+Y]
	bb := p[int(p[X+1])+Y+1]
	x1 := lerp(grad(aa, xf, yf), grad(ba, xf-1, yf), u)
	x2 := lerp(grad(ab, xf, yf-1), grad(bb, xf-1, yf-1), u)
	return lerp(x1, x2, v)
}
