package compose

import (
	"fractalforest/internal/config"
	"fractalforest/internal/geom"
	"fractalforest/internal/scene"
)

// Settings are the stamp parameters the composer reads when it creates a
// primitive. Sizes marked as fractions are relative to the shorter canvas
// side.
type Settings struct {
	Width, Height int

	Tree          geom.TreeParams
	BaseWidth     float64
	WidthScale    float64
	TreeColorMode geom.TreeColorMode
	TreeBlossoms  bool
	BlossomSize   float64
	BlossomColor  string

	FernSize   float64 // fraction
	FernPoints int
	FernJitter float64

	SnowSize   float64 // fraction
	SnowIter   int
	SnowStroke float64

	FlowerIter     int
	FlowerAngle    float64
	FlowerStep     float64 // fraction
	FlowerStroke   float64
	FlowerBlossoms bool

	VineLength int
	VineNoise  float64
	VineStroke float64

	Cloud geom.CloudParams

	MountainSpan       float64 // fraction
	MountainDetail     int
	MountainHeight     float64
	MountainJaggedness float64
	MountainSmooth     bool
	MountainColors     []string

	CelestialSize  float64
	CelestialGlow  float64
	CelestialColor string

	PathWidth     float64
	PathColorMode string
	EraserSize    float64

	ScaleMin, ScaleMax float64
	DragSpacing        float64
	Alpha              float64
	ColorMode          geom.ColorMode
	SingleColor        string
}

// DefaultSettings mirror the composer's initial control values.
func DefaultSettings(width, height int) Settings {
	tp := geom.DefaultTreeParams()
	return Settings{
		Width:         width,
		Height:        height,
		Tree:          tp,
		BaseWidth:     12,
		WidthScale:    0.68,
		TreeColorMode: geom.TreeColorByLevel,
		BlossomSize:   3,
		BlossomColor:  "#ffc0cb",

		FernSize:   0.06,
		FernPoints: 20000,

		SnowSize:   0.05,
		SnowIter:   3,
		SnowStroke: 1.5,

		FlowerIter:   3,
		FlowerAngle:  25,
		FlowerStep:   0.008,
		FlowerStroke: 1.5,

		VineLength: 200,
		VineNoise:  0.01,
		VineStroke: 2,

		Cloud: geom.DefaultCloudParams(),

		MountainSpan:       0.6,
		MountainDetail:     7,
		MountainHeight:     160,
		MountainJaggedness: 0.55,
		MountainColors:     []string{"#3b4a5a", "#0e141b"},

		CelestialSize:  28,
		CelestialGlow:  40,
		CelestialColor: "#fff4c2",

		PathWidth:     3,
		PathColorMode: geom.PathSingle,
		EraserSize:    20,

		ScaleMin:    0.8,
		ScaleMax:    1.2,
		DragSpacing: DefaultDragSpacing,
		Alpha:       1,
		ColorMode:   geom.ColorSingle,
		SingleColor: geom.DefaultFernColor,
	}
}

// SettingsFromConfig applies the user's config on top of the defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings(cfg.Canvas.Width, cfg.Canvas.Height)
	s.ScaleMin, s.ScaleMax = cfg.Stamp.ScaleMin, cfg.Stamp.ScaleMax
	s.DragSpacing = cfg.Stamp.DragSpacing
	s.Alpha = cfg.Stamp.Alpha
	s.ColorMode = geom.ColorMode(cfg.Stamp.ColorMode)
	if cfg.Stamp.Color != "" {
		s.SingleColor = cfg.Stamp.Color
	}
	return s
}

// StyleFromConfig returns the initial background and palette.
func StyleFromConfig(cfg *config.Config) scene.Style {
	return scene.Style{
		Background:  cfg.Canvas.Background,
		Background2: cfg.Canvas.Background2,
		Gradient:    cfg.Canvas.Gradient,
		Palette:     cfg.Palette(),
	}.Normalize()
}
