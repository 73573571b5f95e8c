package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fractalforest/internal/geom"
	"fractalforest/internal/render"
)

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorInBounds()
		return m, nil

	case playStepMsg:
		if m.mode == ModePlayback {
			m.composer.ApplySnapshot(msg.snap)
			m.successMessage = fmt.Sprintf("Playing %d/%d", msg.index+1, m.composer.History().Len())
		}
		return m, waitForPlayback(m.playSteps)

	case playDoneMsg:
		return m.finishPlayback(msg), nil

	case tickMsg:
		m.animTime += windFrameRate.Seconds()
		m.frame++
		st := m.composer.Style()
		if !st.AnimateWind && !st.AnimateClouds {
			m.animating = false
			return m, nil
		}
		return m, animationTick()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.help {
			return m.handleHelpKey(msg.String()), nil
		}
		switch m.mode {
		case ModePlayback:
			if msg.String() == "esc" || msg.String() == "ctrl+c" {
				m.cancelPlayback()
			}
			return m, nil
		case ModeConfirm:
			return m.handleConfirm(msg.String())
		case ModeFileInput:
			return m.handleFileInput(msg)
		}
		return m.handleNormalKey(msg.String())
	}
	return m, nil
}

func (m model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""

	switch key {
	case "ctrl+c":
		m.stopPlayback()
		return m, tea.Quit
	case "q":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmQuit
		return m, nil
	case "?":
		m.help = true
		m.helpScroll = 0
		return m, nil
	case "h", "left", "H", "shift+left",
		"l", "right", "L", "shift+right",
		"k", "up", "K", "shift+up",
		"j", "down", "J", "shift+down":
		return m.handleNavigation(key, m.getMoveSpeed(key))
	case "tab":
		m.endGesture()
		kind := m.composer.NextMode()
		m.successMessage = fmt.Sprintf("Mode: %s", kind)
		return m, nil
	case " ", "space":
		return m.pointerDown()
	case "s":
		return m.toggleStroke()
	case "d":
		return m.togglePaint()
	case "u":
		m.undo()
		return m, nil
	case "U", "ctrl+r":
		m.redo()
		return m, nil
	case "C":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmClear
		return m, nil
	case "P":
		return m.startPlayback()
	case "w":
		m.mode = ModeFileInput
		m.fileOp = FileOpSave
		m.filename = defaultSessionName(m.config.Export.CompressSessions)
		return m, nil
	case "o":
		m.mode = ModeFileInput
		m.fileOp = FileOpOpen
		m.filename = ""
		m.scanSessionFiles()
		return m, nil
	case "x":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmChooseExportType
		return m, nil
	case "y":
		if err := m.copyLastExport(); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "Copied " + m.lastExport
		}
		return m, nil
	case "+", "=", "-":
		delta := alphaStep
		if key == "-" {
			delta = -alphaStep
		}
		m.nudgeLevelAlpha(delta)
		return m, nil
	case "[", "]":
		m.stepSelectedLevel(key == "]")
		return m, nil
	case "*":
		m.applyAll = !m.applyAll
		m.successMessage = fmt.Sprintf("Apply to all trees: %v", m.applyAll)
		return m, nil
	case "c":
		m.nextPreset()
		return m, nil
	case "r":
		p := m.composer.RandomizeTreeParams()
		m.successMessage = fmt.Sprintf("Tree: angle %.1f° scale %.2f", p.Angle, p.LenScale)
		return m, nil
	case "g":
		st := m.composer.Style()
		m.composer.SetBackground(st.Background, st.Background2, !st.Gradient)
		return m, nil
	case "a", "A":
		st := m.composer.Style()
		if key == "a" {
			st.AnimateWind = !st.AnimateWind
		} else {
			st.AnimateClouds = !st.AnimateClouds
		}
		m.composer.SetAnimation(st.AnimateWind, st.AnimateClouds)
		if (st.AnimateWind || st.AnimateClouds) && !m.animating {
			m.animating = true
			return m, animationTick()
		}
		return m, nil
	case "esc":
		m.endGesture()
		m.composer.Deselect()
		return m, nil
	}
	return m, nil
}

func (m model) handleConfirm(key string) (tea.Model, tea.Cmd) {
	if m.confirmAction == ConfirmChooseExportType {
		m.mode = ModeNormal
		var err error
		switch key {
		case "p":
			err = m.exportPNG()
		case "s":
			err = m.exportSVG()
		case "l":
			err = m.exportLayers()
		case "t":
			err = m.exportVisualTXT()
		default:
			return m, nil
		}
		if err != nil {
			m.errorMessage = errorText(err)
		}
		return m, nil
	}

	switch key {
	case "y", "Y":
		m.mode = ModeNormal
		switch m.confirmAction {
		case ConfirmQuit:
			m.stopPlayback()
			return m, tea.Quit
		case ConfirmClear:
			m.endGesture()
			m.composer.Clear()
			m.successMessage = "Canvas cleared"
		case ConfirmOverwriteFile:
			m.saveSession(m.config.SavePath(m.filename))
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m model) handleFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.errorMessage = ""
		return m, nil
	case tea.KeyEnter:
		return m.confirmFileInput()
	case tea.KeyBackspace:
		if r := []rune(m.filename); len(r) > 0 {
			m.filename = string(r[:len(r)-1])
		}
		m.selectedFile = -1
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		if m.fileOp == FileOpOpen && len(m.fileList) > 0 {
			if msg.Type == tea.KeyUp {
				m.selectedFile = max(0, m.selectedFile-1)
			} else {
				m.selectedFile = min(len(m.fileList)-1, m.selectedFile+1)
			}
			m.filename = m.fileList[m.selectedFile]
		}
		return m, nil
	case tea.KeySpace:
		m.filename += " "
		m.selectedFile = -1
		return m, nil
	case tea.KeyRunes:
		m.filename += string(msg.Runes)
		m.selectedFile = -1
		return m, nil
	}
	return m, nil
}

func (m model) confirmFileInput() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.filename)
	if name == "" {
		m.errorMessage = "filename cannot be empty"
		return m, nil
	}
	m.filename = name
	path := m.config.SavePath(name)
	switch m.fileOp {
	case FileOpOpen:
		if err := m.composer.LoadSession(path); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.mode = ModeNormal
		m.successMessage = fmt.Sprintf("Opened %s", name)
	case FileOpSave:
		if _, err := os.Stat(path); err == nil {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmOverwriteFile
			return m, nil
		}
		m.mode = ModeNormal
		m.saveSession(path)
	}
	return m, nil
}

func (m *model) saveSession(path string) {
	if err := m.composer.SaveSession(path, strings.HasSuffix(path, ".gz")); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.lastExport = path
	m.successMessage = fmt.Sprintf("Saved %s", path)
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeNormal && m.mode != ModePaint && m.mode != ModeStroke {
		return m, nil
	}
	m.cursorX, m.cursorY = msg.X, msg.Y
	m.ensureCursorInBounds()
	x, y := m.cursorPixel()
	switch msg.Type {
	case tea.MouseLeft:
		if m.mode != ModeNormal {
			return m, nil
		}
		m.errorMessage = ""
		kind := m.composer.Mode()
		if _, err := m.composer.PointerDown(x, y); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		if kind == geom.KindPath || kind == geom.KindEraser {
			m.mode = ModeStroke
		} else {
			m.mode = ModePaint
		}
	case tea.MouseMotion:
		if m.mode == ModeStroke || m.mode == ModePaint {
			if _, err := m.composer.Drag(x, y); err != nil {
				m.errorMessage = err.Error()
			}
		}
	case tea.MouseRelease:
		m.endGesture()
	}
	return m, nil
}

func (m model) pointerDown() (tea.Model, tea.Cmd) {
	kind := m.composer.Mode()
	if kind == geom.KindPath || kind == geom.KindEraser {
		return m.toggleStroke()
	}
	m.endGesture()
	x, y := m.cursorPixel()
	stamped, err := m.composer.PointerDown(x, y)
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	if err := m.composer.PointerUp(); err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	if !stamped {
		sel := m.composer.Selection()
		m.successMessage = fmt.Sprintf("Selected tree %d level %d", sel.Tree, sel.Level)
	}
	return m, nil
}

// toggleStroke starts capturing a path or eraser at the cursor, or commits
// the stroke in progress.
func (m model) toggleStroke() (tea.Model, tea.Cmd) {
	if m.mode == ModeStroke {
		m.endGesture()
		return m, nil
	}
	kind := m.composer.Mode()
	if kind != geom.KindPath && kind != geom.KindEraser {
		m.errorMessage = "strokes need path or eraser mode (tab)"
		return m, nil
	}
	x, y := m.cursorPixel()
	if err := m.composer.BeginStroke(kind, x, y); err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	m.mode = ModeStroke
	return m, nil
}

// togglePaint stamps at the cursor and keeps stamping while the cursor
// moves, until toggled off.
func (m model) togglePaint() (tea.Model, tea.Cmd) {
	if m.mode == ModePaint {
		m.endGesture()
		return m, nil
	}
	kind := m.composer.Mode()
	if kind == geom.KindPath || kind == geom.KindEraser {
		return m.toggleStroke()
	}
	x, y := m.cursorPixel()
	if _, err := m.composer.Stamp(kind, x, y); err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	m.mode = ModePaint
	return m, nil
}

// endGesture commits a stroke in progress and leaves paint mode.
func (m *model) endGesture() {
	if m.mode != ModeStroke && m.mode != ModePaint {
		return
	}
	if err := m.composer.PointerUp(); err != nil {
		m.errorMessage = err.Error()
	}
	m.mode = ModeNormal
}

func (m *model) nudgeLevelAlpha(delta float64) {
	sel := m.composer.Selection()
	if sel.Tree < 0 && !m.applyAll {
		m.errorMessage = "select a branch first (space on a tree)"
		return
	}
	tree := sel.Tree
	if tree < 0 {
		tree = 0
	}
	t, ok := m.treeAt(tree)
	if !ok {
		m.errorMessage = "no tree to edit"
		return
	}
	alpha := t.LevelAlpha(sel.Level) + delta
	if err := m.composer.SetLevelAlpha(sel.Tree, sel.Level, alpha, m.applyAll); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = fmt.Sprintf("Level %d alpha %.1f", sel.Level, max(0, min(1, alpha)))
}

func (m *model) stepSelectedLevel(up bool) {
	sel := m.composer.Selection()
	if sel.Tree < 0 {
		m.errorMessage = "select a branch first (space on a tree)"
		return
	}
	t, ok := m.treeAt(sel.Tree)
	if !ok {
		return
	}
	level := sel.Level - 1
	if up {
		level = sel.Level + 1
	}
	if level < 0 || level >= t.Levels {
		return
	}
	m.composer.Select(sel.Tree, level)
}

func (m *model) nextPreset() {
	names := presetNames()
	m.presetIndex = (m.presetIndex + 1) % len(names)
	if err := m.composer.ApplyPreset(names[m.presetIndex]); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = "Palette: " + names[m.presetIndex]
}

func presetNames() []string {
	names := make([]string, 0, len(geom.Presets))
	for name := range geom.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// errorText turns an error into the status line text.
func errorText(err error) string {
	if errors.Is(err, render.ErrEmptyScene) {
		return "Nothing to export"
	}
	return err.Error()
}
