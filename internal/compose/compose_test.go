package compose

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fractalforest/internal/geom"
	"fractalforest/internal/playback"
	"fractalforest/internal/render"
	"fractalforest/internal/rng"
	"fractalforest/internal/scene"
	"fractalforest/internal/session"
)

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func newComposer(t *testing.T, opts ...Option) *Composer {
	t.Helper()
	clock := func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	base := []Option{
		WithSeeder(rng.NewSeederAt(clock)),
		WithAmbient(fixed(0.5)),
		WithPlayer(&playback.Player{InitialDelay: 0, StepUnit: time.Microsecond}),
	}
	return New(DefaultSettings(400, 300), append(base, opts...)...)
}

func TestNewStartsWithEmptyEntry(t *testing.T) {
	c := newComposer(t)
	assert.Equal(t, 1, c.History().Len())
	assert.Equal(t, 0, c.History().Index())
	assert.False(t, c.Undo())
	assert.Equal(t, 0, c.Len())
}

func TestStampCommitsOneSnapshotPerKind(t *testing.T) {
	c := newComposer(t)
	kinds := []geom.Kind{
		geom.KindTree, geom.KindFern, geom.KindSnowflake, geom.KindFlower,
		geom.KindVine, geom.KindClouds, geom.KindMountain, geom.KindCelestial,
	}
	for i, k := range kinds {
		p, err := c.Stamp(k, 200, 150)
		require.NoError(t, err, k)
		assert.Equal(t, k, p.Kind())
		assert.Equal(t, i+2, c.History().Len())
		assert.Equal(t, i+1, c.Len())
	}

	_, err := c.Stamp(geom.KindPath, 0, 0)
	assert.ErrorIs(t, err, ErrStroke)
	_, err = c.Stamp("spiral", 0, 0)
	assert.ErrorIs(t, err, scene.ErrUnknownKind)
	assert.Equal(t, len(kinds)+1, c.History().Len())
}

func TestStampUsesScaleAndColourPolicy(t *testing.T) {
	c := newComposer(t)
	c.Settings.ScaleMin, c.Settings.ScaleMax = 2, 2
	c.Settings.SingleColor = "#123456"

	p, err := c.Stamp(geom.KindFern, 10, 10)
	require.NoError(t, err)
	f := p.(*geom.Fern)
	assert.InDelta(t, 300*0.06*2, f.Size, 1e-9)
	assert.Equal(t, "#123456", f.Color)
	assert.Nil(t, f.Transforms)

	p, err = c.Stamp(geom.KindVine, 10, 10)
	require.NoError(t, err)
	v := p.(*geom.Vine)
	assert.Equal(t, 400, v.Length)
	assert.Equal(t, 8.0, v.Step)
	assert.NotEmpty(t, v.Points)

	c.Settings.ColorMode = geom.ColorPalette
	p, err = c.Stamp(geom.KindSnowflake, 10, 10)
	require.NoError(t, err)
	sf := p.(*geom.Snowflake)
	want := geom.ColorPolicy{Mode: geom.ColorPalette, Palette: c.Palette()}.Pick(sf.Seed)
	assert.Equal(t, want, sf.Color)
}

func TestTreeStampTakesPalette(t *testing.T) {
	c := newComposer(t, WithStyle(scene.Style{Palette: geom.Presets["Forest"]}))
	p, err := c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)
	tr := p.(*geom.Tree)
	assert.Equal(t, geom.Presets["Forest"][:5], tr.BranchColors)
	assert.Equal(t, 200.0, tr.X)
	assert.Len(t, tr.Segments, 31)
}

func TestDragSpacing(t *testing.T) {
	c := newComposer(t)
	c.SetMode(geom.KindSnowflake)
	c.Settings.DragSpacing = 10

	stamped, err := c.PointerDown(100, 100)
	require.NoError(t, err)
	assert.True(t, stamped)

	stamped, err = c.Drag(105, 105)
	require.NoError(t, err)
	assert.False(t, stamped, "moved less than the spacing")

	stamped, err = c.Drag(110, 100)
	require.NoError(t, err)
	assert.True(t, stamped)

	require.NoError(t, c.PointerUp())
	stamped, err = c.Drag(200, 200)
	require.NoError(t, err)
	assert.False(t, stamped, "no gesture in progress")
	assert.Equal(t, 2, c.Len())
}

func TestNonFiniteSettingsStillSave(t *testing.T) {
	c := newComposer(t)
	c.Settings.Alpha = math.NaN()
	c.Settings.DragSpacing = math.NaN()

	for _, k := range []geom.Kind{geom.KindFern, geom.KindSnowflake, geom.KindCelestial} {
		_, err := c.Stamp(k, 100, 100)
		require.NoError(t, err, k)
	}
	assert.Equal(t, 1.0, c.Snapshot().Scene[0].Data.(*geom.Fern).Alpha)

	c.SetMode(geom.KindSnowflake)
	_, err := c.PointerDown(200, 200)
	require.NoError(t, err)
	stamped, err := c.Drag(201, 200)
	require.NoError(t, err)
	assert.False(t, stamped, "falls back to the default spacing")
	require.NoError(t, c.PointerUp())

	c.SetMode(geom.KindPath)
	_, err = c.PointerDown(0, 0)
	require.NoError(t, err)
	require.NoError(t, c.PointerUp())
	assert.Equal(t, 1.0, c.Snapshot().Scene[4].Data.(*geom.Path).Alpha)

	require.NoError(t, c.SaveSession(filepath.Join(t.TempDir(), "s.json"), false))
}

func TestStrokeCommitsOnce(t *testing.T) {
	c := newComposer(t)
	c.SetMode(geom.KindPath)
	_, err := c.PointerDown(0, 0)
	require.NoError(t, err)
	assert.True(t, c.Stroking())
	for i := 1; i <= 5; i++ {
		_, err := c.Drag(float64(i*10), 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.History().Len(), "nothing committed mid-stroke")
	require.NoError(t, c.PointerUp())
	assert.Equal(t, 2, c.History().Len())

	p := c.Snapshot().Scene[0].Data.(*geom.Path)
	assert.Len(t, p.Points, 6)
	assert.Equal(t, geom.PathSingle, p.ColorMode)

	c.SetMode(geom.KindEraser)
	_, err = c.PointerDown(5, 5)
	require.NoError(t, err)
	require.NoError(t, c.PointerUp())
	assert.Equal(t, geom.KindEraser, c.Snapshot().Scene[1].Kind)

	assert.ErrorIs(t, c.EndStroke(), ErrNoStroke)
	assert.ErrorIs(t, c.ExtendStroke(1, 1), ErrNoStroke)
}

func TestHitTestSelectsTopmostTree(t *testing.T) {
	c := newComposer(t)
	_, err := c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)
	_, err = c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)

	tree, level, ok := c.HitTestBranch(geom.Point{X: 200, Y: 250})
	require.True(t, ok)
	assert.Equal(t, 1, tree)
	assert.Equal(t, 0, level)

	_, _, ok = c.HitTestBranch(geom.Point{X: 5, Y: 5})
	assert.False(t, ok)

	stamped, err := c.PointerDown(200, 250)
	require.NoError(t, err)
	assert.False(t, stamped)
	assert.Equal(t, render.Selection{Tree: 1, Level: 0}, c.Selection())
	assert.Equal(t, 2, c.Len())
}

func TestLevelEdits(t *testing.T) {
	c := newComposer(t)
	c.Settings.Tree.Levels = 3
	_, err := c.Stamp(geom.KindTree, 100, 290)
	require.NoError(t, err)
	c.Settings.Tree.Levels = 5
	_, err = c.Stamp(geom.KindTree, 300, 290)
	require.NoError(t, err)
	before := c.Snapshot()

	require.NoError(t, c.SetLevelAlpha(1, 4, 0.25, false))
	small, _ := c.scene.Tree(0)
	big, _ := c.scene.Tree(1)
	assert.Equal(t, 0.25, big.LevelAlphas[4])
	assert.Equal(t, []float64{1, 1, 1}, small.LevelAlphas)

	require.NoError(t, c.SetLevelColor(-1, 4, "#ff0000", true))
	small, _ = c.scene.Tree(0)
	big, _ = c.scene.Tree(1)
	assert.Equal(t, "#ff0000", big.BranchColors[4])
	assert.Len(t, small.BranchColors, 3, "level beyond the tree is skipped")

	assert.ErrorIs(t, c.SetLevelAlpha(-1, 0, 0.5, false), ErrNoSelection)

	// copy-on-write: earlier snapshots keep their records
	assert.Equal(t, 1.0, before.Trees()[1].LevelAlphas[4])
	assert.Equal(t, 5, c.History().Len())
}

func TestPaletteEdits(t *testing.T) {
	c := newComposer(t)
	_, err := c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)
	c.Select(0, 2)

	require.NoError(t, c.SetPaletteColor(2, "#abcdef", false))
	tr, _ := c.scene.Tree(0)
	assert.Equal(t, "#abcdef", c.Palette()[2])
	assert.Equal(t, "#abcdef", tr.BranchColors[2])

	require.NoError(t, c.ApplyPreset("Reds"))
	tr, _ = c.scene.Tree(0)
	assert.Equal(t, geom.Presets["Reds"], c.Palette())
	assert.Equal(t, geom.Presets["Reds"][:5], tr.BranchColors)

	assert.Error(t, c.ApplyPreset("Plaid"))
	assert.Error(t, c.SetPaletteColor(10, "#000", false))
	assert.Equal(t, 4, c.History().Len())
}

func TestPresetOnOversizedLoadedTree(t *testing.T) {
	doc := `{"history":[{"scene":[{"type":"tree","data":{"x":200,"y":290,"levels":3,"baseLen":60,
		"branchColors":["#1","#2","#3","#4","#5","#6","#7","#8","#9","#10","#11","#12"],"rngSeed":5}}]}],"histIndex":0}`
	path := filepath.Join(t.TempDir(), "big.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c := newComposer(t)
	require.NoError(t, c.LoadSession(path))
	c.Select(0, 0)
	require.NoError(t, c.ApplyPreset("Neon"))
	tr := c.Snapshot().Trees()[0]
	assert.Equal(t, geom.Presets["Neon"][:3], tr.BranchColors)
}

func TestClearThenUndo(t *testing.T) {
	c := newComposer(t)
	_, err := c.Stamp(geom.KindFern, 10, 10)
	require.NoError(t, err)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 3, c.History().Len())

	require.True(t, c.Undo())
	assert.Equal(t, 1, c.Len())
	require.True(t, c.Redo())
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Redo())
}

func TestUndoDropsStaleSelection(t *testing.T) {
	c := newComposer(t)
	_, err := c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)
	c.Select(0, 1)
	require.True(t, c.Undo())
	assert.Equal(t, render.NoSelection, c.Selection())
}

func TestBackgroundCommits(t *testing.T) {
	c := newComposer(t)
	c.SetBackground("#111111", "", true)
	st := c.Style()
	assert.Equal(t, "#111111", st.Background)
	assert.Equal(t, geom.DefaultBackground2, st.Background2)
	assert.True(t, st.Gradient)
	require.True(t, c.Undo())
	assert.False(t, c.Style().Gradient)
}

func TestSessionRoundTrip(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	c := newComposer(t, WithLogger(logger))
	_, err := c.Stamp(geom.KindTree, 200, 290)
	require.NoError(t, err)
	_, err = c.Stamp(geom.KindSnowflake, 50, 50)
	require.NoError(t, err)
	require.True(t, c.Undo())

	path := filepath.Join(t.TempDir(), session.FileName(time.Now(), true))
	require.NoError(t, c.SaveSession(path, true))
	assert.Contains(t, logs.String(), "session saved")

	d := newComposer(t)
	require.NoError(t, d.LoadSession(path))
	assert.Equal(t, 3, d.History().Len())
	assert.Equal(t, 1, d.History().Index())
	assert.Equal(t, 1, d.Len())
	require.True(t, d.Redo())
	assert.Equal(t, geom.KindSnowflake, d.Snapshot().Scene[1].Kind)
}

func TestLoadSessionFailureKeepsState(t *testing.T) {
	c := newComposer(t)
	_, err := c.Stamp(geom.KindFern, 10, 10)
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"history":[],"histIndex":3}`), 0o644))
	assert.ErrorIs(t, c.LoadSession(bad), session.ErrInvalidFormat)
	assert.Error(t, c.LoadSession(filepath.Join(t.TempDir(), "missing.json")))

	assert.Equal(t, 2, c.History().Len())
	assert.Equal(t, 1, c.Len())
}

func TestPlayReplaysHistory(t *testing.T) {
	c := newComposer(t)
	for i := 0; i < 3; i++ {
		_, err := c.Stamp(geom.KindSnowflake, float64(i*20), 10)
		require.NoError(t, err)
	}
	var lens []int
	started, err := c.Play(context.Background(), playback.MaxSpeed, func(i int, snap scene.Snapshot) {
		c.ApplySnapshot(snap)
		lens = append(lens, c.Len())
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, []int{0, 0, 1, 2, 3}, lens)
	assert.Equal(t, 4, c.History().Len(), "replay never commits")
}

func TestPlayNeedsTwoEntries(t *testing.T) {
	c := newComposer(t)
	started, err := c.Play(context.Background(), 500, func(int, scene.Snapshot) {
		t.Fatal("no steps expected")
	})
	require.NoError(t, err)
	assert.False(t, started)
}

func TestExports(t *testing.T) {
	c := newComposer(t)
	dir := t.TempDir()
	opts := render.DefaultOptions(400, 300)

	assert.ErrorIs(t, c.ExportPNG(filepath.Join(dir, "a.png"), opts), render.ErrEmptyScene)
	assert.ErrorIs(t, c.ExportSVG(filepath.Join(dir, "a.svg"), render.SVGOptions{Width: 400, Height: 300}), render.ErrEmptyScene)

	_, err := c.Stamp(geom.KindSnowflake, 200, 150)
	require.NoError(t, err)
	require.NoError(t, c.ExportPNG(filepath.Join(dir, "a.png"), opts))
	require.NoError(t, c.ExportSVG(filepath.Join(dir, "a.svg"), render.SVGOptions{Width: 400, Height: 300}))
	paths, err := c.ExportLayers(dir, "2024_01_01_00_00_00", opts)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
	for _, p := range append(paths, filepath.Join(dir, "a.png"), filepath.Join(dir, "a.svg")) {
		assert.FileExists(t, p)
	}
}

func TestRandomizeTreeParams(t *testing.T) {
	c := newComposer(t)
	p := c.RandomizeTreeParams()
	assert.InDelta(t, 0.675, p.LenScale, 1e-9)
	assert.InDelta(t, 32.5, p.Angle, 1e-9)
	assert.InDelta(t, 0.7, c.Settings.WidthScale, 1e-9)
	assert.Equal(t, 5, p.Levels)
	assert.Equal(t, p, c.Settings.Tree)
}

func TestNextModeCycles(t *testing.T) {
	c := newComposer(t)
	seen := map[geom.Kind]bool{}
	for range geom.Kinds {
		seen[c.NextMode()] = true
	}
	assert.Len(t, seen, len(geom.Kinds))
	assert.Equal(t, geom.KindTree, c.Mode())
}
