package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fractalforest/internal/geom"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, `
save_directory = "`+filepath.ToSlash(dir)+`"

[canvas]
width = 640
background = "#102030"
gradient = true
palette = "Ocean"

[playback]
speed = 5000

[stamp]
color_mode = "palette"
alpha = 0.5

[export]
fern_thin = 0
compress_sessions = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Canvas.Width)
	assert.Equal(t, 800, cfg.Canvas.Height, "unset keys keep their defaults")
	assert.Equal(t, "#102030", cfg.Canvas.Background)
	assert.True(t, cfg.Canvas.Gradient)
	assert.Equal(t, 1000, cfg.Playback.Speed)
	assert.Equal(t, "palette", cfg.Stamp.ColorMode)
	assert.Equal(t, 0.5, cfg.Stamp.Alpha)
	assert.Equal(t, 1, cfg.Export.FernThin)
	assert.True(t, cfg.Export.CompressSessions)
	assert.Equal(t, geom.Presets["Ocean"], cfg.Palette())
	assert.Equal(t, filepath.Join(dir, "a.json"), cfg.SavePath("a.json"))
}

func TestLoadMalformed(t *testing.T) {
	cfg, err := Load(writeFile(t, "[canvas\nwidth = "))
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSavePathWithoutDirectory(t *testing.T) {
	assert.Equal(t, "x.png", Default().SavePath("x.png"))
	assert.Len(t, Default().Palette(), geom.MaxLevels)
}

func TestLoadNonFiniteStamp(t *testing.T) {
	cfg, err := Load(writeFile(t, `
[stamp]
alpha = nan
drag_spacing = nan
scale_min = -inf
scale_max = inf
`))
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Stamp.Alpha, cfg.Stamp.Alpha)
	assert.Equal(t, def.Stamp.DragSpacing, cfg.Stamp.DragSpacing)
	assert.Equal(t, def.Stamp.ScaleMin, cfg.Stamp.ScaleMin)
	assert.Equal(t, def.Stamp.ScaleMax, cfg.Stamp.ScaleMax)
}
