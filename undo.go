package main

import "fmt"

func (m *model) undo() {
	m.endGesture()
	if !m.composer.Undo() {
		m.successMessage = "Nothing to undo"
		return
	}
	m.successMessage = m.historyPosition()
}

func (m *model) redo() {
	m.endGesture()
	if !m.composer.Redo() {
		m.successMessage = "Nothing to redo"
		return
	}
	m.successMessage = m.historyPosition()
}

func (m *model) historyPosition() string {
	h := m.composer.History()
	return fmt.Sprintf("History %d/%d", h.Index()+1, h.Len())
}
