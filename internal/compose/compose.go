// Package compose is the application state behind the composer: the live
// scene, its history, the palette and stamp settings. Every edit commits
// exactly one history snapshot.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"fractalforest/internal/geom"
	"fractalforest/internal/history"
	"fractalforest/internal/playback"
	"fractalforest/internal/render"
	"fractalforest/internal/rng"
	"fractalforest/internal/scene"
	"fractalforest/internal/session"
)

// HitTolerance is the pick distance in pixels for branch selection.
const HitTolerance = 6

// DefaultDragSpacing is the minimum pointer travel, in pixels, between
// stamps while painting.
const DefaultDragSpacing = 4.0

var (
	ErrNoSelection = errors.New("no tree level selected")
	ErrStroke      = errors.New("paths and erasers are drawn as strokes")
	ErrNoStroke    = errors.New("no stroke in progress")
)

type Composer struct {
	Settings Settings

	log     *slog.Logger
	scene   *scene.Scene
	hist    *history.Manager
	style   scene.Style
	seeder  *rng.Seeder
	ambient rng.Source
	player  *playback.Player

	mode     geom.Kind
	sel      render.Selection
	lastDrag *geom.Point
	stroke   geom.Primitive
}

type Option func(*Composer)

func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.log = l }
}

func WithSeeder(s *rng.Seeder) Option {
	return func(c *Composer) { c.seeder = s }
}

// WithAmbient replaces the source used for instance scale, cloud sizes,
// terrain and randomized tree parameters.
func WithAmbient(src rng.Source) Option {
	return func(c *Composer) { c.ambient = src }
}

func WithStyle(st scene.Style) Option {
	return func(c *Composer) { c.style = st.Normalize() }
}

func WithPlayer(p *playback.Player) Option {
	return func(c *Composer) { c.player = p }
}

// New returns a composer on an empty canvas. The empty state is the first
// history entry.
func New(s Settings, opts ...Option) *Composer {
	c := &Composer{
		Settings: s,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		scene:    scene.New(),
		hist:     history.New(),
		style:    scene.DefaultStyle(),
		seeder:   rng.NewSeeder(),
		ambient:  rng.NewAmbient(),
		player:   playback.New(),
		mode:     geom.KindTree,
		sel:      render.NoSelection,
	}
	for _, o := range opts {
		o(c)
	}
	c.commit()
	return c
}

func (c *Composer) commit() {
	c.hist.Commit(c.scene.Snapshot(c.style))
}

// Snapshot returns the live state.
func (c *Composer) Snapshot() scene.Snapshot {
	return c.scene.Snapshot(c.style)
}

func (c *Composer) Style() scene.Style { return c.style }

func (c *Composer) Palette() []string {
	return append([]string(nil), c.style.Palette...)
}

func (c *Composer) Len() int { return c.scene.Len() }

func (c *Composer) History() *history.Manager { return c.hist }

func (c *Composer) Mode() geom.Kind { return c.mode }

// SetMode switches the active primitive kind and drops any stroke in
// progress.
func (c *Composer) SetMode(k geom.Kind) {
	c.mode = k
	c.stroke = nil
	c.lastDrag = nil
}

// NextMode cycles through geom.Kinds.
func (c *Composer) NextMode() geom.Kind {
	for i, k := range geom.Kinds {
		if k == c.mode {
			c.SetMode(geom.Kinds[(i+1)%len(geom.Kinds)])
			return c.mode
		}
	}
	c.SetMode(geom.KindTree)
	return c.mode
}

func (c *Composer) Selection() render.Selection { return c.sel }

func (c *Composer) Select(tree, level int) { c.sel = render.Selection{Tree: tree, Level: level} }

func (c *Composer) Deselect() { c.sel = render.NoSelection }

func (c *Composer) policy() geom.ColorPolicy {
	return geom.ColorPolicy{Mode: c.Settings.ColorMode, Single: c.Settings.SingleColor, Palette: c.style.Palette}
}

// stampAlpha keeps a stamp opacity in (0, 1]; zero reads as opaque in
// session files, so it never reaches a record.
func stampAlpha(a float64) float64 {
	if math.IsNaN(a) || a <= 0 {
		return 1
	}
	return math.Min(a, 1)
}

func (c *Composer) minSide() float64 {
	return float64(min(c.Settings.Width, c.Settings.Height))
}

func (c *Composer) scale() float64 {
	return geom.ScaleJitter(c.ambient, c.Settings.ScaleMin, c.Settings.ScaleMax)
}

// Build creates a record of kind k centred on (x, y) with the current
// settings, without adding it to the scene.
func (c *Composer) Build(k geom.Kind, x, y float64) (geom.Primitive, error) {
	s := c.Settings
	s.Alpha = stampAlpha(s.Alpha)
	switch k {
	case geom.KindTree:
		p := s.Tree
		p.X, p.Y = x, y
		t := geom.NewTree(p, c.seeder.NewSeed(), c.style.Palette, s.Alpha)
		t.BaseWidth, t.WidthScale = s.BaseWidth, s.WidthScale
		t.ColorMode = s.TreeColorMode
		t.RandomColor = s.TreeColorMode == geom.TreeColorRandom
		if s.TreeBlossoms {
			t.HasBlossoms, t.BlossomSize, t.BlossomColor = true, s.BlossomSize, s.BlossomColor
		}
		return t, nil
	case geom.KindFern:
		seed := c.seeder.NextStampSeed()
		f := &geom.Fern{
			CX:     x,
			CY:     y,
			Size:   c.minSide() * s.FernSize * c.scale(),
			Points: max(0, min(s.FernPoints, geom.MaxFernPoints)),
			Color:  c.policy().Pick(seed),
			Alpha:  s.Alpha,
			Seed:   seed,
		}
		if s.FernJitter > 0 {
			tr := geom.JitterTransforms(c.ambient, s.FernJitter)
			f.Transforms = &tr
		}
		return f, nil
	case geom.KindSnowflake:
		seed := c.seeder.NextStampSeed()
		sf := &geom.Snowflake{
			CX:     x,
			CY:     y,
			Size:   c.minSide() * s.SnowSize * c.scale(),
			Iter:   s.SnowIter,
			Stroke: s.SnowStroke,
			Color:  c.policy().Pick(seed),
			Alpha:  s.Alpha,
			Seed:   seed,
		}
		sf.Rebuild()
		return sf, nil
	case geom.KindFlower:
		seed := c.seeder.NextStampSeed()
		sc := c.scale()
		f := &geom.Flower{
			CX:     x,
			CY:     y,
			Iter:   s.FlowerIter,
			Angle:  s.FlowerAngle * sc,
			Step:   c.minSide() * s.FlowerStep * sc,
			Stroke: s.FlowerStroke,
			Color:  c.policy().Pick(seed),
			Alpha:  s.Alpha,
			Seed:   seed,
		}
		if s.FlowerBlossoms {
			f.HasBlossoms, f.BlossomSize, f.BlossomColor = true, s.BlossomSize, s.BlossomColor
		}
		f.Rebuild()
		return f, nil
	case geom.KindVine:
		seed := c.seeder.NextStampSeed()
		sc := c.scale()
		v := &geom.Vine{
			CX:     x,
			CY:     y,
			Length: max(10, int(math.Round(float64(s.VineLength)*sc))),
			Noise:  s.VineNoise,
			Step:   4 * sc,
			Stroke: s.VineStroke,
			Color:  c.policy().Pick(seed),
			Alpha:  s.Alpha,
			Seed:   seed,
		}
		v.Rebuild()
		return v, nil
	case geom.KindClouds:
		cl := geom.NewCloud(x, y, s.Cloud, c.seeder.NextStampSeed(), c.policy(), c.ambient)
		cl.Alpha = s.Alpha
		return cl, nil
	case geom.KindMountain:
		half := float64(s.Width) * s.MountainSpan / 2
		m := geom.NewMountain(geom.MountainParams{
			Start:      geom.Point{X: x - half, Y: y},
			End:        geom.Point{X: x + half, Y: y},
			Detail:     s.MountainDetail,
			Height:     s.MountainHeight * c.scale(),
			Jaggedness: s.MountainJaggedness,
			Smooth:     s.MountainSmooth,
		}, s.MountainColors, c.ambient)
		m.Alpha = s.Alpha
		return m, nil
	case geom.KindCelestial:
		col := s.CelestialColor
		if col == "" {
			col = c.policy().Pick(c.seeder.NextStampSeed())
		}
		sc := c.scale()
		return &geom.Celestial{CX: x, CY: y, Size: s.CelestialSize * sc, Glow: s.CelestialGlow * sc, Color: col, Alpha: s.Alpha}, nil
	case geom.KindPath, geom.KindEraser:
		return nil, ErrStroke
	default:
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownKind, k)
	}
}

// Stamp builds a k record at (x, y), appends it and commits.
func (c *Composer) Stamp(k geom.Kind, x, y float64) (geom.Primitive, error) {
	p, err := c.Build(k, x, y)
	if err != nil {
		return nil, err
	}
	c.scene.Append(p)
	c.commit()
	c.lastDrag = &geom.Point{X: x, Y: y}
	return p, nil
}

// PointerDown starts a gesture in the current mode. In tree mode a hit on
// an existing branch selects it instead of stamping; stamped reports which
// happened.
func (c *Composer) PointerDown(x, y float64) (stamped bool, err error) {
	switch c.mode {
	case geom.KindPath, geom.KindEraser:
		return false, c.BeginStroke(c.mode, x, y)
	case geom.KindTree:
		if tree, level, ok := c.HitTestBranch(geom.Point{X: x, Y: y}); ok {
			c.Select(tree, level)
			c.lastDrag = nil
			return false, nil
		}
	}
	if _, err := c.Stamp(c.mode, x, y); err != nil {
		return false, err
	}
	return true, nil
}

// Drag continues a gesture. Strokes collect the point; other modes stamp
// again once the pointer has moved at least DragSpacing since the last
// stamp.
func (c *Composer) Drag(x, y float64) (stamped bool, err error) {
	if c.stroke != nil {
		return false, c.ExtendStroke(x, y)
	}
	if c.lastDrag == nil {
		return false, nil
	}
	dx, dy := x-c.lastDrag.X, y-c.lastDrag.Y
	sp := c.Settings.DragSpacing
	if math.IsNaN(sp) || math.IsInf(sp, 0) || sp <= 0 {
		sp = DefaultDragSpacing
	}
	if dx*dx+dy*dy < sp*sp {
		return false, nil
	}
	if _, err := c.Stamp(c.mode, x, y); err != nil {
		return false, err
	}
	return true, nil
}

// PointerUp ends a gesture, committing a stroke in progress.
func (c *Composer) PointerUp() error {
	c.lastDrag = nil
	if c.stroke == nil {
		return nil
	}
	return c.EndStroke()
}

// BeginStroke starts capturing a path or eraser at (x, y).
func (c *Composer) BeginStroke(k geom.Kind, x, y float64) error {
	pt := geom.Point{X: x, Y: y}
	switch k {
	case geom.KindPath:
		c.stroke = &geom.Path{
			Points:      []geom.Point{pt},
			StrokeWidth: c.Settings.PathWidth,
			Alpha:       stampAlpha(c.Settings.Alpha),
			ColorMode:   c.Settings.PathColorMode,
			SingleColor: c.policy().Pick(c.seeder.NextStampSeed()),
		}
	case geom.KindEraser:
		c.stroke = &geom.Eraser{Size: c.Settings.EraserSize, Points: []geom.Point{pt}}
	default:
		return fmt.Errorf("%q is not a stroke kind", k)
	}
	return nil
}

// ExtendStroke appends a point to the stroke in progress.
func (c *Composer) ExtendStroke(x, y float64) error {
	pt := geom.Point{X: x, Y: y}
	switch s := c.stroke.(type) {
	case *geom.Path:
		s.Points = append(s.Points, pt)
	case *geom.Eraser:
		s.Points = append(s.Points, pt)
	default:
		return ErrNoStroke
	}
	return nil
}

// Stroking reports whether a stroke is being captured.
func (c *Composer) Stroking() bool { return c.stroke != nil }

// Pending returns the stroke being captured, or nil.
func (c *Composer) Pending() geom.Primitive { return c.stroke }

// EndStroke appends the captured stroke and commits.
func (c *Composer) EndStroke() error {
	if c.stroke == nil {
		return ErrNoStroke
	}
	c.scene.Append(c.stroke)
	c.stroke = nil
	c.commit()
	return nil
}

// HitTestBranch returns the tree index and level of the topmost branch
// within HitTolerance of p.
func (c *Composer) HitTestBranch(p geom.Point) (tree, level int, ok bool) {
	n := len(c.scene.Trees())
	for i := n - 1; i >= 0; i-- {
		t, _ := c.scene.Tree(i)
		if lv, hit := t.HitTest(p, HitTolerance); hit {
			return i, lv, true
		}
	}
	return -1, 0, false
}

// editTrees applies fn to tree, or to every tree when all is set.
func (c *Composer) editTrees(tree int, all bool, fn func(t *geom.Tree)) error {
	if !all {
		if tree < 0 {
			return ErrNoSelection
		}
		return c.scene.EditTree(tree, fn)
	}
	for i := range c.scene.Trees() {
		if err := c.scene.EditTree(i, fn); err != nil {
			return err
		}
	}
	return nil
}

// SetLevelAlpha sets the opacity of level on tree, or on every tree that
// has that level when all is set.
func (c *Composer) SetLevelAlpha(tree, level int, alpha float64, all bool) error {
	alpha = math.Max(0, math.Min(1, alpha))
	err := c.editTrees(tree, all, func(t *geom.Tree) {
		if level < 0 || level >= t.Levels || level >= len(t.LevelAlphas) {
			return
		}
		t.LevelAlphas[level] = alpha
	})
	if err != nil {
		return err
	}
	c.commit()
	return nil
}

// SetLevelColor recolours level on tree, or on every tree that has that
// level when all is set.
func (c *Composer) SetLevelColor(tree, level int, hex string, all bool) error {
	err := c.editTrees(tree, all, func(t *geom.Tree) { setBranchColor(t, level, hex) })
	if err != nil {
		return err
	}
	c.commit()
	return nil
}

func setBranchColor(t *geom.Tree, level int, hex string) {
	if level < 0 || level >= t.Levels || level >= len(t.BranchColors) {
		return
	}
	t.BranchColors[level] = hex
}

// SetPaletteColor changes palette entry level and applies it to the
// selected tree, or every tree when all is set.
func (c *Composer) SetPaletteColor(level int, hex string, all bool) error {
	if level < 0 || level >= len(c.style.Palette) {
		return fmt.Errorf("palette level %d out of range", level)
	}
	c.style.Palette = c.Palette()
	c.style.Palette[level] = hex
	if all || c.sel.Tree >= 0 {
		if err := c.editTrees(c.sel.Tree, all, func(t *geom.Tree) { setBranchColor(t, level, hex) }); err != nil {
			return err
		}
	}
	c.commit()
	return nil
}

// ApplyPreset replaces the palette with the named preset and recolours the
// selected tree.
func (c *Composer) ApplyPreset(name string) error {
	colors, ok := geom.Presets[name]
	if !ok {
		return fmt.Errorf("unknown palette %q", name)
	}
	pal := make([]string, geom.MaxLevels)
	for i := range pal {
		pal[i] = colors[i%len(colors)]
	}
	c.style.Palette = pal
	if c.sel.Tree >= 0 {
		err := c.scene.EditTree(c.sel.Tree, func(t *geom.Tree) {
			for i := 0; i < min(len(t.BranchColors), len(pal)); i++ {
				t.BranchColors[i] = pal[i]
			}
		})
		if err != nil {
			return err
		}
	}
	c.commit()
	return nil
}

// SetBackground sets both background colours and the gradient flag.
func (c *Composer) SetBackground(bg1, bg2 string, gradient bool) {
	c.style.Background, c.style.Background2, c.style.Gradient = bg1, bg2, gradient
	c.style = c.style.Normalize()
	c.commit()
}

// SetAnimation toggles wind sway and cloud drift. Toggles are view state
// and are recorded with the next edit.
func (c *Composer) SetAnimation(wind, clouds bool) {
	c.style.AnimateWind, c.style.AnimateClouds = wind, clouds
}

// Clear empties the scene and commits, so the cleared canvas can be undone.
func (c *Composer) Clear() {
	c.scene.Clear()
	c.stroke = nil
	c.sel = render.NoSelection
	c.commit()
}

func (c *Composer) restore(snap scene.Snapshot) {
	c.style = c.scene.Restore(snap)
	c.stroke = nil
	if c.sel.Tree >= len(c.scene.Trees()) {
		c.sel = render.NoSelection
	}
}

// Undo steps back one history entry. It reports false at the oldest entry.
func (c *Composer) Undo() bool {
	snap, ok := c.hist.Undo()
	if ok {
		c.restore(snap)
	}
	return ok
}

func (c *Composer) Redo() bool {
	snap, ok := c.hist.Redo()
	if ok {
		c.restore(snap)
	}
	return ok
}

// SnapshotAt returns history entry i; -1 is the empty playback baseline.
func (c *Composer) SnapshotAt(i int) (scene.Snapshot, bool) {
	if i == -1 {
		return scene.Baseline(c.style.Palette), true
	}
	return c.hist.At(i)
}

// ApplySnapshot shows snap without touching history.
func (c *Composer) ApplySnapshot(snap scene.Snapshot) {
	c.restore(snap)
}

// Resync restores the current history entry, after a replay.
func (c *Composer) Resync() {
	if snap, ok := c.hist.Current(); ok {
		c.restore(snap)
	}
}

// Play replays the history at speed, handing each step's snapshot to show.
// The live state is left at the current history entry afterwards.
func (c *Composer) Play(ctx context.Context, speed int, show func(i int, snap scene.Snapshot)) (bool, error) {
	snaps, _ := c.hist.All()
	base := scene.Baseline(c.style.Palette)
	started, err := c.player.Play(ctx, len(snaps), speed, func(i int) {
		if i < 0 {
			show(i, base)
			return
		}
		show(i, snaps[i])
	})
	if started {
		c.log.Debug("playback finished", "steps", len(snaps), "speed", speed, "err", err)
	}
	return started, err
}

// Playing reports whether a replay is running.
func (c *Composer) Playing() bool { return c.player.Playing() }

// Player exposes the replay timings.
func (c *Composer) Player() *playback.Player { return c.player }

// LoadSession replaces the history with the session at path and shows its
// current entry. On error nothing changes.
func (c *Composer) LoadSession(path string) error {
	doc, err := session.Load(path)
	if err != nil {
		c.log.Error("load session", "path", path, "err", err)
		return err
	}
	if err := c.hist.Replace(doc.History, doc.HistIndex); err != nil {
		c.log.Error("load session", "path", path, "err", err)
		return err
	}
	c.sel = render.NoSelection
	c.restore(doc.Current())
	c.log.Info("session loaded", "path", path, "entries", len(doc.History), "index", doc.HistIndex)
	return nil
}

// SaveSession writes the whole history to path.
func (c *Composer) SaveSession(path string, compress bool) error {
	snaps, idx := c.hist.All()
	if err := session.Save(path, snaps, idx, session.Options{Compress: compress}); err != nil {
		c.log.Error("save session", "path", path, "err", err)
		return err
	}
	c.log.Info("session saved", "path", path, "entries", len(snaps))
	return nil
}

// ExportPNG renders the live state and writes the combined image to path.
func (c *Composer) ExportPNG(path string, opts render.Options) error {
	layers, err := render.Render(c.Snapshot(), opts)
	if err != nil {
		return err
	}
	if err := layers.SavePNG(path); err != nil {
		c.log.Error("export png", "path", path, "err", err)
		return err
	}
	c.log.Info("png exported", "path", path)
	return nil
}

// ExportLayers writes the background, ferns, strokes and combined PNGs to
// dir and returns their paths.
func (c *Composer) ExportLayers(dir, stamp string, opts render.Options) ([]string, error) {
	layers, err := render.Render(c.Snapshot(), opts)
	if err != nil {
		return nil, err
	}
	paths, err := layers.SavePNGLayers(dir, stamp)
	if err != nil {
		c.log.Error("export layers", "dir", dir, "err", err)
		return nil, err
	}
	c.log.Info("layers exported", "dir", dir, "files", len(paths))
	return paths, nil
}

// ExportSVG writes the live state as SVG to path.
func (c *Composer) ExportSVG(path string, opts render.SVGOptions) error {
	snap := c.Snapshot()
	if len(snap.Scene) == 0 {
		return render.ErrEmptyScene
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WriteSVG(f, snap, opts); err != nil {
		f.Close()
		c.log.Error("export svg", "path", path, "err", err)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	c.log.Info("svg exported", "path", path)
	return nil
}

// RandomizeTreeParams draws new shape settings for the next tree.
func (c *Composer) RandomizeTreeParams() geom.TreeParams {
	r := func(lo, hi float64) float64 { return rng.Range(c.ambient, lo, hi) }
	p := &c.Settings.Tree
	p.LenScale = r(0.5, 0.85)
	p.Angle = r(5, 60)
	p.LenRand = r(0, 0.5)
	p.AngleRand = r(0, 60)
	c.Settings.WidthScale = r(0.5, 0.9)
	return *p
}
