package render

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fractalforest/internal/geom"
	"fractalforest/internal/scene"
)

func trunkTree() *geom.Tree {
	return geom.NewTree(geom.TreeParams{X: 100, Y: 190, Levels: 3, BaseLen: 60, LenScale: 0.68, Angle: 25}, 1, []string{"#ff0000", "#00ff00", "#0000ff"}, 1)
}

func snapshotOf(style scene.Style, prims ...geom.Primitive) scene.Snapshot {
	s := scene.New()
	for _, p := range prims {
		s.Append(p)
	}
	return s.Snapshot(style)
}

func solid(hex string) scene.Style {
	st := scene.DefaultStyle()
	st.Background = hex
	return st
}

func alphaAt(img *image.RGBA, x, y int) uint8 {
	return img.RGBAAt(x, y).A
}

func countOpaque(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			n++
		}
	}
	return n
}

func TestRenderRejectsEmptyAndBadSize(t *testing.T) {
	_, err := Render(snapshotOf(scene.DefaultStyle()), DefaultOptions(10, 10))
	assert.ErrorIs(t, err, ErrEmptyScene)
	_, err = Render(snapshotOf(scene.DefaultStyle(), trunkTree()), DefaultOptions(0, 10))
	assert.Error(t, err)
}

func TestRenderLayers(t *testing.T) {
	fern := &geom.Fern{CX: 40, CY: 190, Size: 15, Points: 2000, Color: "#58c470", Seed: 4}
	l, err := Render(snapshotOf(solid("#102030"), fern, trunkTree()), DefaultOptions(200, 200))
	require.NoError(t, err)

	bg := l.Background.RGBAAt(5, 5)
	assert.Equal(t, [4]uint8{16, 32, 48, 255}, [4]uint8{bg.R, bg.G, bg.B, bg.A})
	assert.Equal(t, bg, l.Combined.RGBAAt(5, 5))

	trunk := l.Strokes.RGBAAt(100, 160)
	assert.Equal(t, uint8(255), trunk.A)
	assert.Greater(t, trunk.R, trunk.G, "trunk uses the level 0 colour")
	assert.Zero(t, alphaAt(l.Back, 100, 160))

	assert.Greater(t, countOpaque(l.Back), 100, "fern points land on the back layer")
}

func TestEraserRespectsOrder(t *testing.T) {
	eraser := &geom.Eraser{Size: 20, Points: []geom.Point{{X: 80, Y: 160}, {X: 120, Y: 160}}}

	after := Draw(snapshotOf(scene.DefaultStyle(), trunkTree(), eraser), DefaultOptions(200, 200))
	assert.Zero(t, alphaAt(after.Strokes, 100, 160), "eraser removes what was drawn before it")
	assert.NotZero(t, alphaAt(after.Strokes, 100, 140))
	bg := after.Background.RGBAAt(100, 160)
	assert.Equal(t, bg, after.Combined.RGBAAt(100, 160), "background shows through")

	before := Draw(snapshotOf(scene.DefaultStyle(), eraser, trunkTree()), DefaultOptions(200, 200))
	assert.Equal(t, uint8(255), alphaAt(before.Strokes, 100, 160), "later strokes are not erased")

	dot := &geom.Eraser{Size: 10, Points: []geom.Point{{X: 100, Y: 170}}}
	l := Draw(snapshotOf(scene.DefaultStyle(), trunkTree(), dot), DefaultOptions(200, 200))
	assert.Zero(t, alphaAt(l.Strokes, 100, 170))
}

func TestTreeBlossomsFollowLevelAlpha(t *testing.T) {
	tree := trunkTree()
	tree.HasBlossoms, tree.BlossomSize, tree.BlossomColor = true, 4, "#ffffff"
	l := Draw(snapshotOf(scene.DefaultStyle(), tree), DefaultOptions(200, 200))
	assert.Positive(t, countOpaque(l.Strokes))

	hidden := trunkTree()
	hidden.HasBlossoms, hidden.BlossomSize, hidden.BlossomColor = true, 4, "#ffffff"
	hidden.LevelAlphas = []float64{0, 0, 0}
	l = Draw(snapshotOf(scene.DefaultStyle(), hidden), DefaultOptions(200, 200))
	assert.Zero(t, countOpaque(l.Strokes), "blossoms on hidden branches are not drawn")
}

func TestGradientBackground(t *testing.T) {
	st := scene.Style{Background: "#ff0000", Background2: "#0000ff", Gradient: true}
	l := Draw(snapshotOf(st, trunkTree()), DefaultOptions(50, 100))
	top, bottom := l.Background.RGBAAt(0, 0), l.Background.RGBAAt(0, 99)
	assert.Greater(t, top.R, top.B)
	assert.Greater(t, bottom.B, bottom.R)
}

func TestCloudsMountainsCelestial(t *testing.T) {
	policy := geom.ColorPolicy{Mode: geom.ColorSingle, Single: "#ffffff"}
	cloud := geom.NewCloud(100, 60, geom.DefaultCloudParams(), 3, policy, fixed(0.5))
	mountain := &geom.Mountain{Points: []geom.Point{{X: 0, Y: 150}, {X: 100, Y: 120}, {X: 200, Y: 150}}, Colors: []string{"#334455", "#000000"}}
	sun := &geom.Celestial{CX: 160, CY: 40, Size: 12, Glow: 20, Color: "#ffee88"}

	l := Draw(snapshotOf(scene.DefaultStyle(), mountain, sun, cloud), DefaultOptions(200, 200))
	assert.NotZero(t, alphaAt(l.Back, 100, 180), "mountains fill down to the bottom edge")
	assert.Zero(t, alphaAt(l.Back, 100, 100))
	assert.Equal(t, uint8(255), alphaAt(l.Back, 160, 40))
	assert.NotZero(t, alphaAt(l.Back, 160, 40+14), "glow extends past the disc")
	assert.Greater(t, countOpaque(l.Strokes), 0)
}

func TestAnimatedTreeMoves(t *testing.T) {
	st := scene.DefaultStyle()
	st.AnimateWind = true
	snap := snapshotOf(st, trunkTree())
	still := Draw(snap, DefaultOptions(200, 200))

	opts := DefaultOptions(200, 200)
	opts.Animate, opts.Time, opts.WindAmp = true, 1.1, 20
	moved := Draw(snap, opts)
	assert.NotEqual(t, still.Strokes.Pix, moved.Strokes.Pix)
}

func TestSavePNGLayers(t *testing.T) {
	l := Draw(snapshotOf(scene.DefaultStyle(), trunkTree()), DefaultOptions(40, 40))
	dir := t.TempDir()
	paths, err := l.SavePNGLayers(filepath.Join(dir, "out"), "2024_01_02_03_04_05")
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, "background_2024_01_02_03_04_05.png", filepath.Base(paths[0]))
	assert.Equal(t, "combined_2024_01_02_03_04_05.png", filepath.Base(paths[3]))
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	single := filepath.Join(dir, "one.png")
	require.NoError(t, l.SavePNG(single))
	_, err = os.Stat(single)
	assert.NoError(t, err)
}

func TestWriteSVG(t *testing.T) {
	tree := trunkTree()
	fern := &geom.Fern{CX: 40, CY: 190, Size: 15, Points: 100, Seed: 4}
	path := &geom.Path{Points: []geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}, StrokeWidth: 2, ColorMode: geom.PathCycle}
	st := scene.DefaultStyle()
	st.Gradient = true
	snap := snapshotOf(st, tree, fern, path, &geom.Eraser{Size: 3, Points: []geom.Point{{X: 1, Y: 1}}})

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, snap, SVGOptions{Width: 200, Height: 200, FernThin: 1}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<linearGradient id="bg-grad"`)
	assert.Contains(t, out, `fill="url(#bg-grad)"`)
	for _, id := range []string{"ferns", "paths", "snowflakes", "flowers", "vines", "clouds", "trees"} {
		assert.Contains(t, out, `<g id="`+id+`"`)
	}
	assert.Equal(t, 3, strings.Count(out, "data-level="))
	trees := out[strings.Index(out, `<g id="trees"`):]
	assert.Equal(t, 7, strings.Count(trees, "<path "), "one path per branch")
	assert.Less(t, strings.Index(out, `<g id="ferns"`), strings.Index(out, `<g id="paths"`))
	assert.Less(t, strings.Index(out, `<g id="clouds"`), strings.Index(out, `<g id="trees"`))
	assert.Equal(t, 100, strings.Count(out, `width="1" height="1"`))
	assert.Contains(t, out, `stroke="`+st.Palette[1]+`"`)

	buf.Reset()
	require.NoError(t, WriteSVG(&buf, snap, SVGOptions{Width: 200, Height: 200, FernThin: 10}))
	assert.Equal(t, 10, strings.Count(buf.String(), `width="1" height="1"`))

	assert.ErrorIs(t, WriteSVG(&buf, snapshotOf(st), SVGOptions{}), ErrEmptyScene)
}

func TestWriteSVGNormalisesColours(t *testing.T) {
	fern := &geom.Fern{CX: 40, CY: 190, Size: 15, Points: 10, Seed: 4, Color: `"><script>`}
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, snapshotOf(solid("#abc"), fern), SVGOptions{Width: 50, Height: 50}))
	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `fill="`+geom.DefaultFernColor+`"`)
	assert.Contains(t, out, `fill="#aabbcc"`)
}

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }
