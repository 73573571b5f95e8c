package main

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"fractalforest/internal/geom"
	"fractalforest/internal/session"
)

// canvasCells returns the grid size of the preview, leaving the last row
// for the status line.
func (m *model) canvasCells() (int, int) {
	return max(1, m.width), max(1, m.height-1)
}

func (m *model) ensureCursorInBounds() {
	cols, rows := m.canvasCells()
	m.cursorX = max(0, min(cols-1, m.cursorX))
	m.cursorY = max(0, min(rows-1, m.cursorY))
}

// cursorPixel maps the cursor cell to the canvas pixel at its centre.
func (m *model) cursorPixel() (float64, float64) {
	cols, rows := m.canvasCells()
	cw := float64(m.config.Canvas.Width) / float64(cols)
	ch := float64(m.config.Canvas.Height) / float64(rows)
	return (float64(m.cursorX) + 0.5) * cw, (float64(m.cursorY) + 0.5) * ch
}

func (m *model) treeAt(n int) (*geom.Tree, bool) {
	trees := m.composer.Snapshot().Trees()
	if n < 0 || n >= len(trees) {
		return nil, false
	}
	return trees[n], true
}

func defaultSessionName(compress bool) string {
	return session.FileName(time.Now(), compress)
}

// scanSessionFiles lists saved sessions in the save directory, newest
// name first.
func (m *model) scanSessionFiles() {
	m.fileList = nil
	m.selectedFile = -1
	dir := m.config.SaveDirectory
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz") {
			m.fileList = append(m.fileList, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(m.fileList)))
	if len(m.fileList) > 0 {
		m.selectedFile = 0
		m.filename = m.fileList[0]
	}
}

func (m *model) copyLastExport() error {
	if m.lastExport == "" {
		return errors.New("nothing exported yet")
	}
	return clipboard.WriteAll(m.lastExport)
}
