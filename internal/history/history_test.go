package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fractalforest/internal/geom"
	"fractalforest/internal/scene"
)

// snap returns a snapshot carrying n ferns, so entries are told apart by
// their operation count.
func snap(n int) scene.Snapshot {
	s := scene.New()
	for i := 0; i < n; i++ {
		s.Append(&geom.Fern{Points: i})
	}
	return s.Snapshot(scene.DefaultStyle())
}

func TestEmptyManager(t *testing.T) {
	m := New()
	assert.Equal(t, -1, m.Index())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	_, ok := m.Undo()
	assert.False(t, ok)
	_, ok = m.Redo()
	assert.False(t, ok)
	_, ok = m.Current()
	assert.False(t, ok)
}

func TestLinearity(t *testing.T) {
	for k := 1; k <= 6; k++ {
		for j := 0; j < k; j++ {
			m := New()
			for i := 0; i < k; i++ {
				m.Commit(snap(i))
			}
			var cur scene.Snapshot
			for i := 0; i < j; i++ {
				var ok bool
				cur, ok = m.Undo()
				require.True(t, ok)
			}
			assert.Equal(t, k-1-j, m.Index())
			if j > 0 {
				assert.Len(t, cur.Scene, k-1-j)
			}

			m.Commit(snap(99))
			assert.Equal(t, k-j, m.Len())
			assert.False(t, m.CanRedo(), "commit discards the redo branch")
			_, ok := m.Redo()
			assert.False(t, ok)
		}
	}
}

func TestUndoStopsAtFirstEntry(t *testing.T) {
	m := New()
	m.Commit(snap(0))
	m.Commit(snap(1))
	_, ok := m.Undo()
	require.True(t, ok)
	_, ok = m.Undo()
	assert.False(t, ok, "index 0 is never undone")
	assert.Equal(t, 0, m.Index())

	got, ok := m.Redo()
	require.True(t, ok)
	assert.Len(t, got.Scene, 1)
	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestClearThenUndo(t *testing.T) {
	m := New()
	m.Commit(snap(0))
	m.Commit(snap(3))
	m.Commit(snap(0))
	got, ok := m.Undo()
	require.True(t, ok)
	assert.Len(t, got.Scene, 3, "undoing a clear brings the scene back")
}

func TestCommitDoesNotAliasRedoBranch(t *testing.T) {
	m := New()
	m.Commit(snap(0))
	m.Commit(snap(1))
	m.Commit(snap(2))
	all, _ := m.All()
	m.Undo()
	m.Undo()
	m.Commit(snap(5))
	assert.Len(t, all[1].Scene, 1, "earlier copies are untouched")
	assert.Len(t, all[2].Scene, 2)
}

func TestReplace(t *testing.T) {
	m := New()
	m.Commit(snap(0))
	err := m.Replace([]scene.Snapshot{snap(1), snap(2)}, 5)
	assert.Error(t, err)
	assert.Equal(t, 1, m.Len(), "failed replace keeps the old history")

	require.NoError(t, m.Replace([]scene.Snapshot{snap(1), snap(2), snap(3)}, 1))
	assert.Equal(t, 1, m.Index())
	assert.True(t, m.CanUndo())
	assert.True(t, m.CanRedo())
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Len(t, cur.Scene, 2)
}
