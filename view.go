package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fractalforest/internal/geom"
	"fractalforest/internal/render"
)

var (
	badgeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#0b1118")).Background(lipgloss.Color("#8fd18f"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a0d8ff"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

var helpLines = []string{
	"Fractal Forest Help",
	"===================",
	"",
	"Navigation:",
	"-----------",
	"  h/←/j/↓/k/↑/l/→  Move cursor",
	"  Shift+h/j/k/l    Move cursor 2x faster",
	"  Mouse            Click to stamp, drag to paint or stroke",
	"",
	"Drawing:",
	"--------",
	"  Tab              Cycle primitive (tree, fern, path, snowflake, ...)",
	"  Space            Stamp at cursor; on a tree branch, select its level",
	"  d                Toggle paint: stamp while the cursor moves",
	"  s                Start/finish a path or eraser stroke",
	"  r                Randomize tree shape",
	"",
	"Trees and colours:",
	"------------------",
	"  [ / ]            Select previous/next level of the selected tree",
	"  + / -            Raise/lower the selected level's opacity",
	"  *                Toggle applying level edits to all trees",
	"  c                Cycle palette preset",
	"  g                Toggle gradient background",
	"  a / A            Toggle wind sway / cloud drift",
	"",
	"History:",
	"--------",
	"  u                Undo",
	"  U / Ctrl+R       Redo",
	"  C                Clear canvas (undoable)",
	"  P                Play the edit history",
	"  Esc              Stop playback, clear selection",
	"",
	"Files:",
	"------",
	"  w                Save session",
	"  o                Open session",
	"  x                Export (PNG, SVG, layers, text)",
	"  y                Copy the last exported path",
	"",
	"General:",
	"  ?                Toggle this help screen",
	"  q/Ctrl+C         Quit",
}

func (m model) View() string {
	if m.help {
		return m.helpView()
	}
	cols, rows := m.canvasCells()

	var result strings.Builder
	if m.mode == ModeFileInput && m.fileOp == FileOpOpen {
		m.writeFileList(&result, cols, rows)
	} else {
		pv := Preview{
			Selected:  m.composer.Selection(),
			Pending:   m.composer.Pending(),
			Animate:   m.animating,
			Time:      m.animTime,
			Frame:     m.frame,
			WindAmp:   m.wind.WindAmp,
			WindSpeed: m.wind.WindSpeed,
		}
		if m.mode == ModePlayback {
			pv.Selected = render.NoSelection
		}
		m.canvas.Draw(m.composer.Snapshot(), cols, rows, pv)
		cursorX, cursorY := m.cursorX, m.cursorY
		if m.mode == ModePlayback {
			cursorX, cursorY = -1, -1
		}
		result.WriteString(strings.Join(m.canvas.Lines(cursorX, cursorY), "\n"))
	}
	result.WriteString("\n")
	result.WriteString(m.statusLine())
	return result.String()
}

func (m model) writeFileList(b *strings.Builder, cols, rows int) {
	b.WriteString("Select a saved session:\n")
	b.WriteString(strings.Repeat("─", cols))
	b.WriteString("\n")
	lines := 2
	if len(m.fileList) == 0 {
		b.WriteString("(No session files found)\n")
		lines++
	} else {
		maxFiles := max(1, rows-4)
		start := 0
		if m.selectedFile >= maxFiles {
			start = m.selectedFile - maxFiles + 1
		}
		end := min(len(m.fileList), start+maxFiles)
		for i := start; i < end; i++ {
			if i == m.selectedFile {
				b.WriteString("> " + m.fileList[i] + " <\n")
			} else {
				b.WriteString("  " + m.fileList[i] + "\n")
			}
			lines++
		}
	}
	for ; lines < rows-2; lines++ {
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", cols))
	b.WriteString("\nFilename: " + m.filename + "█")
}

func (m model) swatches() string {
	var b strings.Builder
	sel := m.composer.Selection()
	for i, hex := range m.composer.Palette() {
		r := "■"
		if sel.Tree >= 0 && i == sel.Level {
			r = "▣"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(geom.ParseColor(hex, geom.DefaultBranchColor).Hex())).Render(r))
	}
	return b.String()
}

func (m model) statusLine() string {
	switch m.mode {
	case ModeConfirm:
		var message string
		switch m.confirmAction {
		case ConfirmClear:
			message = "Clear the canvas? (y/n)"
		case ConfirmQuit:
			message = "Quit? (y/n)"
		case ConfirmOverwriteFile:
			message = fmt.Sprintf("File %s already exists. Overwrite? (y/n)", m.filename)
		case ConfirmChooseExportType:
			message = "Export: p=PNG s=SVG l=layers t=text, any other key cancels"
		}
		return badgeStyle.Render("CONFIRM") + " " + message
	case ModeFileInput:
		op := "Save"
		if m.fileOp == FileOpOpen {
			op = "Open"
		}
		status := badgeStyle.Render("FILE") + fmt.Sprintf(" %s filename: %s | Enter=confirm, Esc=cancel", op, m.filename)
		if m.errorMessage != "" {
			status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
		}
		return status
	}

	h := m.composer.History()
	badge := strings.ToUpper(string(m.composer.Mode()))
	switch m.mode {
	case ModeStroke:
		badge += " STROKE"
	case ModePaint:
		badge += " PAINT"
	case ModePlayback:
		badge = "PLAY"
	}
	hist := fmt.Sprintf(" %d ops | history %d/%d", m.composer.Len(), h.Index()+1, h.Len())
	if h.CanUndo() {
		hist += " [undo]"
	}
	if h.CanRedo() {
		hist += " [redo]"
	}
	status := badgeStyle.Render(badge) + " " + m.swatches() + dimStyle.Render(hist)
	if sel := m.composer.Selection(); sel.Tree >= 0 {
		status += fmt.Sprintf(" | tree %d level %d", sel.Tree, sel.Level)
	}
	if m.applyAll {
		status += " | all trees"
	}
	switch {
	case m.errorMessage != "":
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		status += " | " + successStyle.Render(m.successMessage)
	default:
		status += dimStyle.Render(" | ? for help | q to quit")
	}
	return status
}

func (m model) handleHelpKey(key string) model {
	switch key {
	case "j", "down":
		maxScroll := max(0, len(helpLines)-max(1, m.height-1))
		if m.helpScroll < maxScroll {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	default:
		m.help = false
		m.helpScroll = 0
	}
	return m
}

func (m model) helpView() string {
	visibleHeight := max(1, m.height-1)
	start := min(m.helpScroll, max(0, len(helpLines)-visibleHeight))
	end := min(len(helpLines), start+visibleHeight)
	result := strings.Join(helpLines[start:end], "\n")
	result += "\n" + fmt.Sprintf("Help (%d-%d of %d lines) | j/k to scroll, Esc to close",
		start+1, end, len(helpLines))
	return result
}
