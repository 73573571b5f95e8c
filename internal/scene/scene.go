package scene

import (
	"fmt"

	"fractalforest/internal/geom"
)

// Scene is the ordered list of operations currently on the canvas.
//
// Records are never modified once appended. Edits go through EditTree,
// which swaps in a modified copy, so snapshots can share records safely.
type Scene struct {
	ops []Operation
}

func New() *Scene {
	return &Scene{}
}

// Append adds p on top of everything drawn so far.
func (s *Scene) Append(p geom.Primitive) {
	s.ops = append(s.ops, Op(p))
}

func (s *Scene) Clear() {
	s.ops = nil
}

func (s *Scene) Len() int {
	return len(s.ops)
}

func (s *Scene) At(i int) Operation {
	return s.ops[i]
}

// Ops returns the operations in drawing order. The slice is a copy.
func (s *Scene) Ops() []Operation {
	out := make([]Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Trees returns the scene index of every tree, in drawing order.
func (s *Scene) Trees() []int {
	var idx []int
	for i, op := range s.ops {
		if op.Kind == geom.KindTree {
			idx = append(idx, i)
		}
	}
	return idx
}

// Tree returns the n-th tree of the scene.
func (s *Scene) Tree(n int) (*geom.Tree, bool) {
	trees := s.Trees()
	if n < 0 || n >= len(trees) {
		return nil, false
	}
	t, ok := s.ops[trees[n]].Data.(*geom.Tree)
	return t, ok
}

// EditTree applies fn to a copy of the n-th tree and puts the copy in its
// place. Snapshots taken earlier keep the old record.
func (s *Scene) EditTree(n int, fn func(t *geom.Tree)) error {
	trees := s.Trees()
	if n < 0 || n >= len(trees) {
		return fmt.Errorf("tree %d out of range (have %d)", n, len(trees))
	}
	i := trees[n]
	old, ok := s.ops[i].Data.(*geom.Tree)
	if !ok {
		return fmt.Errorf("operation %d is not a tree", i)
	}
	t := geom.Clone(old)
	fn(t)
	s.ops[i] = Op(t)
	return nil
}

// Snapshot captures the scene together with the ambient style.
func (s *Scene) Snapshot(st Style) Snapshot {
	st.Palette = append([]string(nil), st.Palette...)
	return Snapshot{Style: st, Scene: s.Ops()}
}

// Restore replaces the whole scene with snap's operations and returns the
// snapshot's style with defaults filled in.
func (s *Scene) Restore(snap Snapshot) Style {
	s.ops = append([]Operation(nil), snap.Scene...)
	return snap.Style.Normalize()
}
