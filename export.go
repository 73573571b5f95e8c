package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"fractalforest/internal/render"
	"fractalforest/internal/session"
)

func exportStamp() string {
	return time.Now().Format(session.StampLayout)
}

func (m *model) renderOptions() render.Options {
	opts := m.wind
	opts.Width, opts.Height = m.config.Canvas.Width, m.config.Canvas.Height
	opts.Caption = m.config.Export.Caption
	opts.Selected = render.NoSelection
	return opts
}

func (m *model) exportPNG() error {
	path := m.config.SavePath("combined_" + exportStamp() + ".png")
	if err := m.composer.ExportPNG(path, m.renderOptions()); err != nil {
		return err
	}
	m.exported(path)
	return nil
}

func (m *model) exportLayers() error {
	dir := m.config.SavePath("")
	if dir == "" {
		dir = "."
	}
	paths, err := m.composer.ExportLayers(dir, exportStamp(), m.renderOptions())
	if err != nil {
		return err
	}
	m.exported(paths[len(paths)-1])
	m.successMessage = fmt.Sprintf("Exported %d layers to %s", len(paths), dir)
	return nil
}

func (m *model) exportSVG() error {
	path := m.config.SavePath("fractal_" + exportStamp() + ".svg")
	opts := render.SVGOptions{
		Width:    m.config.Canvas.Width,
		Height:   m.config.Canvas.Height,
		FernThin: m.config.Export.FernThin,
	}
	if err := m.composer.ExportSVG(path, opts); err != nil {
		return err
	}
	m.exported(path)
	return nil
}

// exportVisualTXT writes the terminal preview, as shown, without colour.
func (m *model) exportVisualTXT() error {
	snap := m.composer.Snapshot()
	if len(snap.Scene) == 0 {
		return render.ErrEmptyScene
	}
	cols, rows := m.canvasCells()
	c := NewCanvas(m.config.Canvas.Width, m.config.Canvas.Height)
	c.Draw(snap, cols, rows, Preview{Selected: render.NoSelection})

	path := m.config.SavePath("fractal_" + exportStamp() + ".txt")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	for _, line := range c.Plain() {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	m.log.Info("preview exported", "path", path)
	m.exported(path)
	return nil
}

func (m *model) exported(path string) {
	m.lastExport = path
	m.successMessage = fmt.Sprintf("Exported %s (y copies path)", path)
}
