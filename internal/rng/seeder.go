package rng

import (
	"sync"
	"time"
)

// Seeder hands out fresh 32-bit seeds for new primitives.
type Seeder struct {
	mu      sync.Mutex
	now     func() time.Time
	counter uint32
	stamps  uint32
}

// NewSeeder returns a Seeder driven by the wall clock.
func NewSeeder() *Seeder {
	return &Seeder{now: time.Now}
}

// NewSeederAt returns a Seeder driven by the given clock.
func NewSeederAt(now func() time.Time) *Seeder {
	return &Seeder{now: now}
}

// NewSeed returns now_ms + counter, truncated to 32 bits.
func (s *Seeder) NewSeed() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return uint32(s.now().UnixMilli()) + s.counter
}

// NextStampSeed returns now_ms ^ (stamp*0x9e3779b9), spreading consecutive
// stamps made within the same millisecond across the seed space.
func (s *Seeder) NextStampSeed() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps++
	k := s.stamps * 0x9e3779b9
	return uint32(s.now().UnixMilli()) ^ k
}
