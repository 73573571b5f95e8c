package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"fractalforest/internal/geom"
	"fractalforest/internal/scene"
)

// SVGOptions control a vector export. FernThin keeps every n-th fern point.
type SVGOptions struct {
	Width, Height int
	FernThin      int
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// attr formats one SVG attribute; svgo copies strings containing '=' into
// the tag verbatim.
func attr(name string, v any) string {
	if f, ok := v.(float64); ok {
		v = num(f)
	}
	return fmt.Sprintf(`%s="%v"`, name, v)
}

// svgColor parses a record colour, so only well-formed hex reaches the
// document.
func svgColor(c, def string) string {
	return geom.ParseColor(c, def).Hex()
}

func iround(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func radius(v float64) int { return max(1, iround(v)) }

// pathData traces pts as one open subpath, closing it when closed is set.
func pathData(pts []geom.Point, closed bool) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X) + " " + num(p.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func segmentData(x1, y1, x2, y2 float64) string {
	return "M" + num(x1) + " " + num(y1) + " L" + num(x2) + " " + num(y2)
}

// WriteSVG writes snap as an SVG document with one group per primitive kind
// and, inside each tree, one group per level. Erasers have no vector form
// and are skipped.
func WriteSVG(w io.Writer, snap scene.Snapshot, opts SVGOptions) error {
	if len(snap.Scene) == 0 {
		return ErrEmptyScene
	}
	thin := max(1, opts.FernThin)
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)
	width, height := opts.Width, opts.Height

	canvas.Startview(width, height, 0, 0, width, height)
	bg1 := svgColor(snap.Background, geom.DefaultBackground)
	if snap.Gradient {
		canvas.Def()
		canvas.LinearGradient("bg-grad", 0, 0, 0, 100, []svg.Offcolor{
			{Offset: 0, Color: bg1, Opacity: 1},
			{Offset: 100, Color: svgColor(snap.Background2, geom.DefaultBackground2), Opacity: 1},
		})
		canvas.DefEnd()
		canvas.Rect(0, 0, width, height, attr("fill", "url(#bg-grad)"))
	} else {
		canvas.Rect(0, 0, width, height, attr("fill", bg1))
	}

	byKind := map[geom.Kind][]geom.Primitive{}
	for _, op := range snap.Scene {
		byKind[op.Kind] = append(byKind[op.Kind], op.Data)
	}
	rounded := []string{attr("stroke-linecap", "round"), attr("stroke-linejoin", "round"), attr("fill", "none")}

	canvas.Gid("celestial")
	for _, p := range byKind[geom.KindCelestial] {
		c := p.(*geom.Celestial)
		col := svgColor(c.Color, "#fff4c2")
		cx, cy := iround(c.CX), iround(c.CY)
		for _, r := range c.GlowRings(8) {
			canvas.Circle(cx, cy, radius(r.R), attr("fill", col), attr("fill-opacity", r.Alpha))
		}
		canvas.Circle(cx, cy, radius(c.Size), attr("fill", col), attr("fill-opacity", opacity(c.Alpha)))
	}
	canvas.Gend()

	canvas.Gid("mountains")
	for i, p := range byKind[geom.KindMountain] {
		m := p.(*geom.Mountain)
		if len(m.Points) < 2 {
			continue
		}
		fill := svgColor(first(m.Colors), "#2b3a4a")
		if len(m.Colors) > 1 {
			// the outline's bounding box runs from the peak to the bottom edge
			id := fmt.Sprintf("mountain-%d", i)
			canvas.Def()
			canvas.LinearGradient(id, 0, 0, 0, 100, []svg.Offcolor{
				{Offset: 0, Color: fill, Opacity: 1},
				{Offset: 100, Color: svgColor(m.Colors[1], "#000000"), Opacity: 1},
			})
			canvas.DefEnd()
			fill = "url(#" + id + ")"
		}
		h := float64(height)
		pts := make([]geom.Point, 0, len(m.Points)+2)
		pts = append(pts, geom.Point{X: m.Points[0].X, Y: h})
		pts = append(pts, m.Points...)
		pts = append(pts, geom.Point{X: m.Points[len(m.Points)-1].X, Y: h})
		canvas.Path(pathData(pts, true), attr("fill", fill), attr("fill-opacity", opacity(m.Alpha)))
	}
	canvas.Gend()

	canvas.Gid("ferns")
	for _, p := range byKind[geom.KindFern] {
		f := p.(*geom.Fern)
		canvas.Group(attr("fill", svgColor(f.Color, geom.DefaultFernColor)), attr("fill-opacity", opacity(f.Alpha)), attr("shape-rendering", "crispEdges"))
		i := 0
		f.EachPoint(func(px, py float64) {
			if i%thin == 0 {
				canvas.Rect(int(math.Floor(px)), int(math.Floor(py)), 1, 1)
			}
			i++
		})
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "paths")}, rounded...)...)
	for _, p := range byKind[geom.KindPath] {
		path := p.(*geom.Path)
		if len(path.Points) == 0 {
			continue
		}
		if path.ColorMode != geom.PathCycle {
			canvas.Path(pathData(path.Points, false),
				attr("stroke", svgColor(path.SegmentColor(0, nil), geom.DefaultBranchColor)),
				attr("stroke-width", path.StrokeWidth), attr("stroke-opacity", opacity(path.Alpha)))
			continue
		}
		if len(snap.Palette) == 0 {
			continue
		}
		canvas.Group(attr("stroke-width", path.StrokeWidth), attr("stroke-opacity", opacity(path.Alpha)))
		for i := 0; i < len(path.Points)-1; i++ {
			a, b := path.Points[i], path.Points[i+1]
			canvas.Path(segmentData(a.X, a.Y, b.X, b.Y), attr("stroke", svgColor(path.SegmentColor(i, snap.Palette), geom.DefaultBranchColor)))
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "snowflakes")}, rounded...)...)
	for _, p := range byKind[geom.KindSnowflake] {
		sf := p.(*geom.Snowflake)
		canvas.Group(attr("class", "snowflake"), attr("opacity", opacity(sf.Alpha)),
			attr("stroke", svgColor(sf.Color, geom.DefaultSnowflakeColor)), attr("stroke-width", orDefault(sf.Stroke, 1.5)))
		svgLines(canvas, sf.Segments)
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "flowers")}, rounded...)...)
	for _, p := range byKind[geom.KindFlower] {
		fl := p.(*geom.Flower)
		canvas.Group(attr("class", "flower"), attr("opacity", opacity(fl.Alpha)),
			attr("stroke", svgColor(fl.Color, geom.DefaultFlowerColor)), attr("stroke-width", orDefault(fl.Stroke, 1.5)))
		svgLines(canvas, fl.Segments)
		if fl.HasBlossoms {
			svgBlossoms(canvas, fl.Tips, fl.BlossomSize, fl.BlossomColor, 1)
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "vines")}, rounded...)...)
	for _, p := range byKind[geom.KindVine] {
		v := p.(*geom.Vine)
		if len(v.Points) == 0 {
			continue
		}
		canvas.Path(pathData(v.Points, false), attr("class", "vine"),
			attr("stroke", svgColor(v.Color, geom.DefaultVineColor)), attr("stroke-width", orDefault(v.Stroke, 2)),
			attr("stroke-opacity", opacity(v.Alpha)))
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "clouds")}, rounded...)...)
	for _, p := range byKind[geom.KindClouds] {
		c := p.(*geom.Cloud)
		canvas.Group(attr("class", "cloud"), attr("opacity", opacity(c.Alpha)))
		for _, k := range c.Circles {
			canvas.Circle(iround(c.CX+k.DX), iround(c.CY+k.DY), radius(k.Radius()),
				attr("stroke", svgColor(k.Color, geom.DefaultCloudColor)), attr("stroke-width", k.Width()))
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(append([]string{attr("id", "trees")}, rounded...)...)
	for _, p := range byKind[geom.KindTree] {
		t := p.(*geom.Tree)
		canvas.Group(attr("class", "tree"))
		var order []int
		buckets := map[int][]geom.Segment{}
		for _, seg := range t.Segments {
			if _, ok := buckets[seg.Level]; !ok {
				order = append(order, seg.Level)
			}
			buckets[seg.Level] = append(buckets[seg.Level], seg)
		}
		for _, lvl := range order {
			canvas.Group(attr("data-level", lvl), attr("stroke", svgColor(t.LevelColor(lvl), geom.DefaultBranchColor)),
				attr("stroke-opacity", t.LevelAlpha(lvl)), attr("stroke-width", t.Width(lvl)), attr("fill", "none"))
			for _, seg := range buckets[lvl] {
				canvas.Path(segmentData(seg.X1, seg.Y1, seg.X2, seg.Y2))
			}
			canvas.Gend()
		}
		if t.HasBlossoms {
			for _, seg := range geom.Leaves(t.Segments) {
				svgBlossoms(canvas, []geom.Point{seg.End()}, t.BlossomSize, t.BlossomColor, t.LevelAlpha(seg.Level))
			}
		}
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()

	return bw.Flush()
}

func svgLines(canvas *svg.SVG, lines []geom.Line) {
	for _, l := range lines {
		canvas.Path(segmentData(l.X1, l.Y1, l.X2, l.Y2))
	}
}

func svgBlossoms(canvas *svg.SVG, tips []geom.Point, size float64, hex string, alpha float64) {
	r := radius(math.Max(0.5, orDefault(size, 3)))
	fill := svgColor(hex, geom.DefaultFlowerColor)
	for _, p := range tips {
		canvas.Circle(iround(p.X), iround(p.Y), r, attr("fill", fill), attr("fill-opacity", alpha), attr("stroke", "none"))
	}
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
