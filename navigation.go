package main

import tea "github.com/charmbracelet/bubbletea"

// handleNavigation moves the cursor. While a stroke or paint gesture is
// active the move is fed to the composer as a drag to the new cell.
func (m model) handleNavigation(key string, speed int) (tea.Model, tea.Cmd) {
	m.handleCursorMove(key, speed)
	if m.mode == ModeStroke || m.mode == ModePaint {
		x, y := m.cursorPixel()
		if _, err := m.composer.Drag(x, y); err != nil {
			m.errorMessage = err.Error()
		}
	}
	return m, nil
}

func (m *model) handleCursorMove(key string, speed int) {
	switch key {
	case "h", "left", "H", "shift+left":
		m.cursorX -= speed
	case "l", "right", "L", "shift+right":
		m.cursorX += speed
	case "k", "up", "K", "shift+up":
		m.cursorY -= speed
	case "j", "down", "J", "shift+down":
		m.cursorY += speed
	}
	m.ensureCursorInBounds()
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}
