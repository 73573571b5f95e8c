package rng

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Ambient is the non-reproducible source used for one-off values that are
// baked into a record at creation time (instance scale, cloud radii, terrain
// displacement). It reads from crypto/rand and falls back to a linear
// congruential generator when the system source fails.
type Ambient struct {
	mu       sync.Mutex
	lcg      uint32
	fallback bool
	read     func([]byte) (int, error)
}

// NewAmbient returns an ambient source seeded from the wall clock for the
// fallback path.
func NewAmbient() *Ambient {
	return &Ambient{
		lcg:  uint32(time.Now().UnixMilli()) ^ 0x9e3779b9,
		read: rand.Read,
	}
}

// Float64 returns a value in [0, 1).
func (a *Ambient) Float64() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.fallback && a.read != nil {
		var buf [4]byte
		if _, err := a.read(buf[:]); err == nil {
			return float64(binary.LittleEndian.Uint32(buf[:])) / 4294967296
		}
		a.fallback = true
	}
	a.lcg = 1664525*a.lcg + 1013904223
	return float64(a.lcg) / 4294967296
}

// UsingFallback reports whether the LCG path has taken over.
func (a *Ambient) UsingFallback() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fallback
}
