package scene

import (
	"fractalforest/internal/geom"
)

// Style is the ambient state stored next to the operations in a snapshot.
type Style struct {
	Background    string   `json:"bg1"`
	Background2   string   `json:"bg2"`
	Gradient      bool     `json:"gradient"`
	Palette       []string `json:"palette"`
	AnimateWind   bool     `json:"animateWind,omitempty"`
	AnimateClouds bool     `json:"animateClouds,omitempty"`
}

// DefaultStyle is the style of a fresh canvas.
func DefaultStyle() Style {
	return Style{
		Background:  geom.DefaultBackground,
		Background2: geom.DefaultBackground2,
		Palette:     geom.DefaultTreePalette(geom.MaxLevels),
	}
}

// Normalize fills missing backgrounds and replaces a palette that does not
// have exactly one colour per level.
func (st Style) Normalize() Style {
	if st.Background == "" {
		st.Background = geom.DefaultBackground
	}
	if st.Background2 == "" {
		st.Background2 = geom.DefaultBackground2
	}
	if len(st.Palette) == geom.MaxLevels {
		st.Palette = append([]string(nil), st.Palette...)
	} else {
		st.Palette = geom.DefaultTreePalette(geom.MaxLevels)
	}
	return st
}

// Snapshot is one history entry: ambient style plus the operation list.
type Snapshot struct {
	Style
	Scene []Operation `json:"scene"`
}

// Baseline is the empty canvas playback starts from. It keeps palette but
// resets the backgrounds.
func Baseline(palette []string) Snapshot {
	st := DefaultStyle()
	if len(palette) == geom.MaxLevels {
		st.Palette = append([]string(nil), palette...)
	}
	return Snapshot{Style: st, Scene: []Operation{}}
}

// Trees returns the tree records of the snapshot in drawing order.
func (s Snapshot) Trees() []*geom.Tree {
	var out []*geom.Tree
	for _, op := range s.Scene {
		if t, ok := op.Data.(*geom.Tree); ok {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of operations of kind k.
func (s Snapshot) Count(k geom.Kind) int {
	n := 0
	for _, op := range s.Scene {
		if op.Kind == k {
			n++
		}
	}
	return n
}
