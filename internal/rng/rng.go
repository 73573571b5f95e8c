package rng

// Source is anything that yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// Stream is a deterministic mulberry32 generator. Two streams built from the
// same seed yield the same infinite sequence, in any implementation that
// follows the same 32-bit mixing steps.
type Stream struct {
	state uint32
}

// Mulberry32 returns a stream seeded with seed.
func Mulberry32(seed uint32) *Stream {
	return &Stream{state: seed}
}

// Uint32 advances the stream and returns the raw 32-bit output.
func (s *Stream) Uint32() uint32 {
	s.state += 0x6D2B79F5
	t := s.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / 4294967296
}

// Centered returns a value in [-0.5, 0.5).
func Centered(src Source) float64 {
	return src.Float64() - 0.5
}

// Range returns a value uniformly sampled in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
