package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"fractalforest/internal/geom"
	"fractalforest/internal/scene"
)

// Layers are the separately exportable images of one render. Back holds
// ferns, mountains and celestial bodies; Strokes holds everything else.
// Erasers cut through both.
type Layers struct {
	Background *image.RGBA
	Back       *image.RGBA
	Strokes    *image.RGBA
	Combined   *image.RGBA
}

// Render draws snap in operation order.
func Render(snap scene.Snapshot, opts Options) (*Layers, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	if len(snap.Scene) == 0 {
		return nil, ErrEmptyScene
	}
	return Draw(snap, opts), nil
}

// Draw is Render without the empty-scene check, for live previews.
func Draw(snap scene.Snapshot, opts Options) *Layers {
	w, h := opts.Width, opts.Height
	bg := gg.NewContext(w, h)
	drawBackground(bg, snap.Style)
	back := gg.NewContext(w, h)
	strokes := gg.NewContext(w, h)
	for _, dc := range []*gg.Context{back, strokes} {
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
	}

	treeIdx := 0
	for _, op := range snap.Scene {
		switch r := op.Data.(type) {
		case *geom.Fern:
			drawFern(back.Image().(*image.RGBA), r)
		case *geom.Mountain:
			drawMountain(back, r, h)
		case *geom.Celestial:
			drawCelestial(back, r)
		case *geom.Tree:
			drawTree(strokes, r, snap, opts, opts.Selected.Tree == treeIdx)
			treeIdx++
		case *geom.Path:
			drawPath(strokes, r, snap.Palette)
		case *geom.Snowflake:
			strokeLines(strokes, r.Segments, nrgba(r.Color, geom.DefaultSnowflakeColor, opacity(r.Alpha)), orDefault(r.Stroke, 1.5))
		case *geom.Flower:
			c := nrgba(r.Color, geom.DefaultFlowerColor, opacity(r.Alpha))
			strokeLines(strokes, r.Segments, c, orDefault(r.Stroke, 1.5))
			if r.HasBlossoms {
				drawBlossoms(strokes, r.Tips, r.BlossomSize, r.BlossomColor, opacity(r.Alpha))
			}
		case *geom.Vine:
			drawPolyline(strokes, r.Points, nrgba(r.Color, geom.DefaultVineColor, opacity(r.Alpha)), orDefault(r.Stroke, 2))
		case *geom.Cloud:
			dx := 0.0
			if opts.Animate && snap.AnimateClouds {
				dx = wrap(r.CX+r.Offset(opts.Time), float64(w)) - r.CX
			}
			drawCloud(strokes, r, dx)
		case *geom.Eraser:
			mask := eraserMask(w, h, r)
			area := eraserArea(r, mask.Bounds())
			erase(back.Image().(*image.RGBA), mask, area)
			erase(strokes.Image().(*image.RGBA), mask, area)
		}
	}

	layers := &Layers{
		Background: bg.Image().(*image.RGBA),
		Back:       back.Image().(*image.RGBA),
		Strokes:    strokes.Image().(*image.RGBA),
	}
	combined := gg.NewContextForRGBA(clone.AsRGBA(layers.Background))
	combined.DrawImage(layers.Back, 0, 0)
	combined.DrawImage(layers.Strokes, 0, 0)
	if opts.Caption != "" {
		drawCaption(combined, opts.Caption)
	}
	layers.Combined = combined.Image().(*image.RGBA)
	return layers
}

func drawBackground(dc *gg.Context, st scene.Style) {
	if st.Gradient {
		g := gg.NewLinearGradient(0, 0, 0, float64(dc.Height()))
		g.AddColorStop(0, geom.ParseColor(st.Background, geom.DefaultBackground))
		g.AddColorStop(1, geom.ParseColor(st.Background2, geom.DefaultBackground2))
		dc.SetFillStyle(g)
		dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
		dc.Fill()
		return
	}
	dc.SetColor(geom.ParseColor(st.Background, geom.DefaultBackground))
	dc.Clear()
}

func drawFern(img *image.RGBA, f *geom.Fern) {
	c := nrgba(f.Color, geom.DefaultFernColor, opacity(f.Alpha))
	b := img.Bounds()
	f.EachPoint(func(px, py float64) {
		x, y := int(px), int(py)
		if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
			return
		}
		blendOver(img, x, y, c)
	})
}

// blendOver composites c onto one premultiplied pixel.
func blendOver(img *image.RGBA, x, y int, c color.NRGBA) {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	a := uint32(c.A)
	inv := 255 - a
	p[0] = uint8((uint32(c.R)*a + uint32(p[0])*inv) / 255)
	p[1] = uint8((uint32(c.G)*a + uint32(p[1])*inv) / 255)
	p[2] = uint8((uint32(c.B)*a + uint32(p[2])*inv) / 255)
	p[3] = uint8((a*255 + uint32(p[3])*inv) / 255)
}

func drawTree(dc *gg.Context, t *geom.Tree, snap scene.Snapshot, opts Options, selected bool) {
	segs := t.Segments
	if opts.Animate && snap.AnimateWind {
		segs = t.Sway(opts.Time, opts.WindAmp*math.Pi/180, opts.WindSpeed)
	}
	colors := t.SegmentColors(opts.Frame)
	for i, s := range segs {
		width := t.Width(s.Level)
		if selected && s.Level == opts.Selected.Level {
			dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 90})
			dc.SetLineWidth(width + 6)
			dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
			dc.Stroke()
		}
		dc.SetColor(nrgba(colors[i], geom.DefaultBranchColor, t.LevelAlpha(s.Level)))
		dc.SetLineWidth(width)
		dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		dc.Stroke()
	}
	if t.HasBlossoms {
		for _, s := range geom.Leaves(segs) {
			drawBlossoms(dc, []geom.Point{s.End()}, t.BlossomSize, t.BlossomColor, t.LevelAlpha(s.Level))
		}
	}
}

func drawBlossoms(dc *gg.Context, tips []geom.Point, size float64, hex string, alpha float64) {
	r := math.Max(0.5, orDefault(size, 3))
	dc.SetColor(nrgba(hex, geom.DefaultFlowerColor, alpha))
	for _, p := range tips {
		dc.DrawCircle(p.X, p.Y, r)
		dc.Fill()
	}
}

func drawPath(dc *gg.Context, p *geom.Path, palette []string) {
	if len(p.Points) == 0 {
		return
	}
	alpha := opacity(p.Alpha)
	width := orDefault(p.StrokeWidth, 2)
	if p.ColorMode != geom.PathCycle || len(p.Points) < 2 {
		c := nrgba(p.SegmentColor(0, nil), geom.DefaultBranchColor, alpha)
		if len(p.Points) == 1 {
			q := p.Points[0]
			strokeLines(dc, []geom.Line{{X1: q.X, Y1: q.Y, X2: q.X + 0.5, Y2: q.Y + 0.5}}, c, width)
			return
		}
		drawPolyline(dc, p.Points, c, width)
		return
	}
	if len(palette) == 0 {
		return
	}
	dc.SetLineWidth(width)
	for i := 0; i < len(p.Points)-1; i++ {
		a, b := p.Points[i], p.Points[i+1]
		dc.SetColor(nrgba(p.SegmentColor(i, palette), geom.DefaultBranchColor, alpha))
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}
}

func strokeLines(dc *gg.Context, lines []geom.Line, c color.Color, width float64) {
	if len(lines) == 0 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	for _, l := range lines {
		dc.MoveTo(l.X1, l.Y1)
		dc.LineTo(l.X2, l.Y2)
	}
	dc.Stroke()
}

func drawPolyline(dc *gg.Context, pts []geom.Point, c color.Color, width float64) {
	if len(pts) < 2 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// drawCloud paints a blurred shadow offset by the blur radius, then the
// rings on top.
func drawCloud(dc *gg.Context, c *geom.Cloud, dx float64) {
	alpha := opacity(c.Alpha)
	blurR := math.Max(0, c.Blur)
	off := orDefault(c.Blur, 8)
	if blurR > 0 {
		sh := gg.NewContext(dc.Width(), dc.Height())
		sh.SetLineCapRound()
		sh.SetColor(nrgba(c.ShadowColor, geom.DefaultShadowColor, alpha))
		for _, k := range c.Circles {
			sh.SetLineWidth(k.Width())
			sh.DrawCircle(c.CX+dx+k.DX+off, c.CY+k.DY+off, k.Radius())
			sh.Stroke()
		}
		dc.DrawImage(blur.Gaussian(sh.Image(), blurR), 0, 0)
	}
	for _, k := range c.Circles {
		dc.SetColor(nrgba(k.Color, geom.DefaultCloudColor, alpha))
		dc.SetLineWidth(k.Width())
		dc.DrawCircle(c.CX+dx+k.DX, c.CY+k.DY, k.Radius())
		dc.Stroke()
	}
}

func drawMountain(dc *gg.Context, m *geom.Mountain, height int) {
	if len(m.Points) < 2 {
		return
	}
	alpha := opacity(m.Alpha)
	bottom := float64(height)
	switch len(m.Colors) {
	case 0:
		dc.SetColor(nrgba("", "#2b3a4a", alpha))
	case 1:
		dc.SetColor(nrgba(m.Colors[0], "#2b3a4a", alpha))
	default:
		g := gg.NewLinearGradient(0, m.Peak(), 0, bottom)
		g.AddColorStop(0, nrgba(m.Colors[0], "#2b3a4a", alpha))
		g.AddColorStop(1, nrgba(m.Colors[1], "#0b1118", alpha))
		dc.SetFillStyle(g)
	}
	dc.MoveTo(m.Points[0].X, bottom)
	for _, p := range m.Points {
		dc.LineTo(p.X, p.Y)
	}
	dc.LineTo(m.Points[len(m.Points)-1].X, bottom)
	dc.ClosePath()
	dc.Fill()
}

// drawCelestial paints the glow rings blurred by the glow radius, then the
// disc.
func drawCelestial(dc *gg.Context, c *geom.Celestial) {
	rings := c.GlowRings(8)
	if len(rings) > 0 {
		g := gg.NewContext(dc.Width(), dc.Height())
		for _, r := range rings {
			g.SetColor(nrgba(c.Color, "#fff4c2", r.Alpha))
			g.DrawCircle(c.CX, c.CY, r.R)
			g.Fill()
		}
		dc.DrawImage(blur.Gaussian(g.Image(), math.Max(1, c.Glow/4)), 0, 0)
	}
	dc.SetColor(nrgba(c.Color, "#fff4c2", opacity(c.Alpha)))
	dc.DrawCircle(c.CX, c.CY, math.Max(0.5, c.Size))
	dc.Fill()
}

// eraserMask rasterises the eraser stroke; its alpha is the amount removed.
func eraserMask(w, h int, e *geom.Eraser) *image.RGBA {
	m := gg.NewContext(w, h)
	m.SetColor(color.White)
	size := math.Max(1, e.Size)
	switch len(e.Points) {
	case 0:
	case 1:
		m.DrawCircle(e.Points[0].X, e.Points[0].Y, size/2)
		m.Fill()
	default:
		drawPolylineOn(m, e.Points, size)
	}
	return m.Image().(*image.RGBA)
}

func drawPolylineOn(dc *gg.Context, pts []geom.Point, width float64) {
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetLineWidth(width)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// eraserArea is the pixel box the mask of e can touch, with a pixel of
// margin for antialiasing and the one pixel minimum brush.
func eraserArea(e *geom.Eraser, bounds image.Rectangle) image.Rectangle {
	if len(e.Points) == 0 {
		return image.Rectangle{}
	}
	lo, hi := e.Bounds()
	r := image.Rect(
		int(math.Floor(lo.X))-2, int(math.Floor(lo.Y))-2,
		int(math.Ceil(hi.X))+2, int(math.Ceil(hi.Y))+2,
	)
	return r.Intersect(bounds)
}

// erase applies destination-out inside area: every pixel keeps
// (1 - mask alpha) of itself.
func erase(dst, mask *image.RGBA, area image.Rectangle) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			i := mask.PixOffset(x, y)
			m := uint32(mask.Pix[i+3])
			if m == 0 {
				continue
			}
			keep := 255 - m
			p := dst.Pix[i : i+4 : i+4]
			for j := range p {
				p[j] = uint8(uint32(p[j]) * keep / 255)
			}
		}
	}
}

func wrap(x, w float64) float64 {
	if w <= 0 {
		return x
	}
	return math.Mod(math.Mod(x, w)+w, w)
}

func drawCaption(dc *gg.Context, text string) {
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    14,
		DPI:     72,
		Hinting: font.HintingFull,
	}))
	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 200})
	dc.DrawStringAnchored(text, float64(dc.Width())-10, float64(dc.Height())-10, 1, 0)
}

// SavePNG writes the combined image.
func (l *Layers) SavePNG(path string) error {
	return gg.SavePNG(path, l.Combined)
}

// SavePNGLayers writes background, back, strokes and combined images into
// dir, named <layer>_<stamp>.png, and returns their paths.
func (l *Layers) SavePNGLayers(dir, stamp string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	files := []struct {
		name string
		img  image.Image
	}{
		{"background", l.Background},
		{"ferns", l.Back},
		{"strokes", l.Strokes},
		{"combined", l.Combined},
	}
	var paths []string
	for _, f := range files {
		p := filepath.Join(dir, fmt.Sprintf("%s_%s.png", f.name, stamp))
		if err := gg.SavePNG(p, f.img); err != nil {
			return paths, fmt.Errorf("write %s layer: %w", f.name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
