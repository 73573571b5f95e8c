// Package history keeps the linear undo/redo list of scene snapshots.
package history

import (
	"fmt"
	"sync"

	"fractalforest/internal/scene"
)

// Manager is a linear list of snapshots with a current index. The index is
// -1 until the first commit.
type Manager struct {
	mu    sync.Mutex
	idx   int
	snaps []scene.Snapshot
}

func New() *Manager {
	return &Manager{idx: -1}
}

// Commit drops everything after the current index, appends snap and makes
// it current.
func (m *Manager) Commit(snap scene.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps[:m.idx+1], snap)
	m.idx = len(m.snaps) - 1
}

// Undo steps back and returns the snapshot to restore. It is a no-op at
// index 0 or below.
func (m *Manager) Undo() (scene.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx <= 0 {
		return scene.Snapshot{}, false
	}
	m.idx--
	return m.snaps[m.idx], true
}

// Redo steps forward and returns the snapshot to restore. It is a no-op at
// the newest entry.
func (m *Manager) Redo() (scene.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx >= len(m.snaps)-1 {
		return scene.Snapshot{}, false
	}
	m.idx++
	return m.snaps[m.idx], true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx < len(m.snaps)-1
}

// Index returns the current position, -1 when empty.
func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

// At returns the i-th snapshot.
func (m *Manager) At(i int) (scene.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.snaps) {
		return scene.Snapshot{}, false
	}
	return m.snaps[i], true
}

// Current returns the snapshot at the current index.
func (m *Manager) Current() (scene.Snapshot, bool) {
	return m.At(m.Index())
}

// All returns every snapshot and the current index.
func (m *Manager) All() ([]scene.Snapshot, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scene.Snapshot(nil), m.snaps...), m.idx
}

// Replace swaps in a whole history, as when a session is loaded. Nothing
// changes when idx is out of range.
func (m *Manager) Replace(snaps []scene.Snapshot, idx int) error {
	if idx < 0 || idx >= len(snaps) {
		return fmt.Errorf("history index %d out of range [0,%d)", idx, len(snaps))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append([]scene.Snapshot(nil), snaps...)
	m.idx = idx
	return nil
}
