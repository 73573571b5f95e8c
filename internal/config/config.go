// Package config loads the user's ~/.fractalforest.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"fractalforest/internal/geom"
	"fractalforest/internal/playback"
)

const FileName = ".fractalforest.toml"

type Config struct {
	SaveDirectory string   `toml:"save_directory"`
	Canvas        Canvas   `toml:"canvas"`
	Playback      Playback `toml:"playback"`
	Stamp         Stamp    `toml:"stamp"`
	Export        Export   `toml:"export"`
}

type Canvas struct {
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	Background  string `toml:"background"`
	Background2 string `toml:"background2"`
	Gradient    bool   `toml:"gradient"`
	Palette     string `toml:"palette"`
}

type Playback struct {
	Speed          int `toml:"speed"`
	InitialDelayMS int `toml:"initial_delay_ms"`
}

type Stamp struct {
	ScaleMin    float64 `toml:"scale_min"`
	ScaleMax    float64 `toml:"scale_max"`
	DragSpacing float64 `toml:"drag_spacing"`
	Alpha       float64 `toml:"alpha"`
	ColorMode   string  `toml:"color_mode"`
	Color       string  `toml:"color"`
}

type Export struct {
	FernThin         int    `toml:"fern_thin"`
	Caption          string `toml:"caption"`
	CompressSessions bool   `toml:"compress_sessions"`
}

func Default() *Config {
	return &Config{
		Canvas: Canvas{
			Width:       1200,
			Height:      800,
			Background:  geom.DefaultBackground,
			Background2: geom.DefaultBackground2,
		},
		Playback: Playback{Speed: 500, InitialDelayMS: 500},
		Stamp: Stamp{
			ScaleMin:    0.8,
			ScaleMax:    1.2,
			DragSpacing: 4,
			Alpha:       1,
			ColorMode:   string(geom.ColorSingle),
			Color:       geom.DefaultFernColor,
		},
		Export: Export{FernThin: 1},
	}
}

// DefaultPath returns ~/.fractalforest.toml, or the bare file name when the
// home directory is unknown.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Load reads path on top of the defaults. A missing file is not an error.
// On a malformed file the defaults are returned along with the error.
func Load(path string) (*Config, error) {
	cfg := Default()
	p, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	parsed := Default()
	if err := toml.Unmarshal(data, parsed); err != nil {
		return cfg, fmt.Errorf("%s: %w", p, err)
	}
	parsed.normalize()
	return parsed, nil
}

func (c *Config) normalize() {
	if c.SaveDirectory != "" {
		if dir, err := homedir.Expand(c.SaveDirectory); err == nil {
			c.SaveDirectory = dir
		}
		if abs, err := filepath.Abs(c.SaveDirectory); err == nil {
			c.SaveDirectory = abs
		}
	}
	def := Default()
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = def.Canvas.Width
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = def.Canvas.Height
	}
	c.Playback.Speed = playback.ClampSpeed(c.Playback.Speed)
	if c.Playback.InitialDelayMS < 0 {
		c.Playback.InitialDelayMS = 0
	}
	if c.Stamp.ColorMode != string(geom.ColorPalette) {
		c.Stamp.ColorMode = string(geom.ColorSingle)
	}
	if !finite(c.Stamp.Alpha) || c.Stamp.Alpha <= 0 || c.Stamp.Alpha > 1 {
		c.Stamp.Alpha = def.Stamp.Alpha
	}
	if !finite(c.Stamp.DragSpacing) || c.Stamp.DragSpacing <= 0 {
		c.Stamp.DragSpacing = def.Stamp.DragSpacing
	}
	if !finite(c.Stamp.ScaleMin) || c.Stamp.ScaleMin <= 0 {
		c.Stamp.ScaleMin = def.Stamp.ScaleMin
	}
	if !finite(c.Stamp.ScaleMax) || c.Stamp.ScaleMax <= 0 {
		c.Stamp.ScaleMax = def.Stamp.ScaleMax
	}
	if c.Export.FernThin < 1 {
		c.Export.FernThin = 1
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Palette returns the configured preset palette, or the default tree
// palette when none or an unknown one is named.
func (c *Config) Palette() []string {
	if pal, ok := geom.Presets[c.Canvas.Palette]; ok {
		return append([]string(nil), pal...)
	}
	return geom.DefaultTreePalette(geom.MaxLevels)
}

// SavePath joins filename onto the save directory, creating it if needed.
func (c *Config) SavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0o755)
	return filepath.Join(c.SaveDirectory, filename)
}
