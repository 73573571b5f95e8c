package geom

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"fractalforest/internal/rng"
)

// MaxLevels is the largest tree depth and the size of the tree palette.
const MaxLevels = 10

// Fallback colours used when a record carries none.
const (
	DefaultFernColor      = "#58c470"
	DefaultSnowflakeColor = "#a0d8ff"
	DefaultFlowerColor    = "#ff88cc"
	DefaultVineColor      = "#8fd18f"
	DefaultCloudColor     = "#ffffff"
	DefaultBranchColor    = "#ffffff"
	DefaultShadowColor    = "#555555"
	DefaultBackground     = "#000000"
	DefaultBackground2    = "#071022"
)

// ColorMode selects how non-tree primitives get their colour.
type ColorMode string

const (
	ColorSingle  ColorMode = "single"
	ColorPalette ColorMode = "palette"
)

// ColorPolicy is the active colour rule for non-tree stamps.
type ColorPolicy struct {
	Mode    ColorMode
	Single  string
	Palette []string
}

// Pick returns the colour for a stamp seeded with seed. In palette mode the
// index is the first draw of the seed's mulberry32 stream, so the same seed
// always lands on the same palette entry.
func (cp ColorPolicy) Pick(seed uint32) string {
	if cp.Mode != ColorPalette {
		if cp.Single != "" {
			return cp.Single
		}
		return DefaultFernColor
	}
	pal := cp.Palette
	if len(pal) == 0 {
		pal = []string{DefaultFernColor}
	}
	idx := int(math.Floor(rng.Mulberry32(seed).Float64()*float64(len(pal)))) % len(pal)
	return pal[idx]
}

// HSLHex converts hue (degrees), saturation and lightness (percent) to #rrggbb.
func HSLHex(h, s, l float64) string {
	return colorful.Hsl(math.Mod(h, 360), s/100, l/100).Hex()
}

// DefaultTreePalette returns n warm-to-cool defaults, one per level.
func DefaultTreePalette(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = HSLHex(float64((20+i*20)%360), 60, 60)
	}
	return out
}

// ChromaticPalette returns ten shades of one hue, dark to light.
func ChromaticPalette(hue float64) []string {
	out := make([]string, MaxLevels)
	for i := range out {
		out[i] = HSLHex(hue, 85, float64(15+i*8))
	}
	return out
}

// Presets are the named palettes offered by the composer.
var Presets = map[string][]string{
	"Default":    {"#6aa84f", "#a2c499", "#d9ead3", "#fce5cd", "#f4cccc", "#ea9999", "#e06666", "#cc0000", "#990000", "#660000"},
	"Forest":     {"#2d572c", "#3e783b", "#50994a", "#63bb5a", "#77dd6a", "#8be37c", "#a0e98f", "#b5efa2", "#caf5b5", "#dffbc8"},
	"Sunset":     {"#4c1a25", "#6f2633", "#933242", "#b73e51", "#db4a60", "#ff6b6b", "#ffa07a", "#ffcc66", "#fff2ac", "#ffffff"},
	"Ocean":      {"#003f5c", "#2f4b7c", "#665191", "#a05195", "#d45087", "#f95d6a", "#ff7c43", "#ffa600", "#d6e2f0", "#f0f8ff"},
	"Rainbow":    {"#ff0000", "#ff7f00", "#ffff00", "#00ff00", "#0000ff", "#4b0082", "#8b00ff", "#ff1493", "#00ced1", "#ff6347"},
	"Monochrome": {"#1a1a1a", "#333333", "#4d4d4d", "#666666", "#808080", "#999999", "#b3b3b3", "#cccccc", "#e6e6e6", "#ffffff"},
	"Neon":       {"#ff00ff", "#00ffff", "#00ff00", "#ffff00", "#ff0000", "#ff69b4", "#7b68ee", "#00bfff", "#32cd32", "#ffd700"},
	"Reds":       ChromaticPalette(0),
	"Greens":     ChromaticPalette(120),
	"Blues":      ChromaticPalette(240),
	"Yellows":    ChromaticPalette(60),
	"Cyans":      ChromaticPalette(180),
	"Magentas":   ChromaticPalette(300),
}

// ParseColor parses #rgb / #rrggbb, falling back to def on error.
func ParseColor(s, def string) colorful.Color {
	if c, err := colorful.Hex(expandHex(s)); err == nil {
		return c
	}
	c, _ := colorful.Hex(expandHex(def))
	return c
}

func expandHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}

// ScaleJitter returns a random instance scale in [lo, hi). Non-finite bounds
// fall back to 0.8 and 1.2, inverted bounds are swapped.
func ScaleJitter(src rng.Source, lo, hi float64) float64 {
	lo, hi = finiteOr(lo, 0.8), finiteOr(hi, 1.2)
	if hi < lo {
		lo, hi = hi, lo
	}
	return rng.Range(src, lo, hi)
}
