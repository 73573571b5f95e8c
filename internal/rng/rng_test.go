package rng

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulberry32Golden(t *testing.T) {
	cases := []struct {
		seed uint32
		want []float64
	}{
		{42, []float64{0.6011037519201636, 0.44829055899754167, 0.8524657934904099, 0.6697340414393693}},
		{1, []float64{0.6270739405881613, 0.002735721180215478, 0.5274470399599522, 0.9810509674716741}},
		{0, []float64{0.26642920868471265, 0.0003297457005828619, 0.2232720274478197, 0.1462021479383111}},
	}
	for _, c := range cases {
		s := Mulberry32(c.seed)
		for i, w := range c.want {
			assert.Equal(t, w, s.Float64(), "seed %d draw %d", c.seed, i)
		}
	}
}

func TestMulberry32Determinism(t *testing.T) {
	for _, seed := range []uint32{0, 7, 42, 0xdeadbeef, 0xffffffff} {
		a, b := Mulberry32(seed), Mulberry32(seed)
		for i := 0; i < 1000; i++ {
			va, vb := a.Float64(), b.Float64()
			require.Equal(t, va, vb, "seed %d diverged at draw %d", seed, i)
			require.GreaterOrEqual(t, va, 0.0)
			require.Less(t, va, 1.0)
		}
	}
}

func TestAmbientFallsBackToLCG(t *testing.T) {
	a := NewAmbient()
	a.read = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	v := a.Float64()
	assert.True(t, a.UsingFallback())
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
	assert.NotEqual(t, v, a.Float64())
}

func TestSeederStampsDiffer(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	s := NewSeederAt(func() time.Time { return fixed })
	a, b := s.NextStampSeed(), s.NextStampSeed()
	assert.NotEqual(t, a, b)
	assert.Equal(t, uint32(fixed.UnixMilli())+1, s.NewSeed())
	assert.Equal(t, uint32(fixed.UnixMilli())+2, s.NewSeed())
}

func TestRange(t *testing.T) {
	s := Mulberry32(9)
	for i := 0; i < 100; i++ {
		v := Range(s, 2, 5)
		assert.True(t, v >= 2 && v < 5)
	}
}
