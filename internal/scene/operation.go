// Package scene holds the ordered list of drawing operations that make up a
// composition, and the snapshots history and playback restore from.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fractalforest/internal/geom"
)

// ErrUnknownKind is returned when decoding an operation whose type has no
// registered record.
var ErrUnknownKind = errors.New("unknown operation kind")

// Operation is one entry of the scene: a primitive tagged with its kind.
type Operation struct {
	Kind geom.Kind
	Data geom.Primitive
}

// Op wraps a primitive into an operation.
func Op(p geom.Primitive) Operation {
	return Operation{Kind: p.Kind(), Data: p}
}

type wireOp struct {
	Type geom.Kind       `json:"type"`
	Data json.RawMessage `json:"data"`
}

var (
	registryMu sync.RWMutex
	registry   = map[geom.Kind]func() geom.Primitive{}
)

// Register makes kind decodable. factory returns an empty record.
func Register(kind geom.Kind, factory func() geom.Primitive) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

func newRecord(kind geom.Kind) (geom.Primitive, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	if !ok {
		return nil, false
	}
	return f(), true
}

func init() {
	Register(geom.KindTree, func() geom.Primitive {
		return &geom.Tree{TreeParams: geom.TreeParams{LenScale: geom.DefaultLenScale}}
	})
	Register(geom.KindFern, func() geom.Primitive { return &geom.Fern{} })
	Register(geom.KindPath, func() geom.Primitive { return &geom.Path{} })
	Register(geom.KindSnowflake, func() geom.Primitive { return &geom.Snowflake{} })
	Register(geom.KindFlower, func() geom.Primitive { return &geom.Flower{} })
	Register(geom.KindVine, func() geom.Primitive { return &geom.Vine{} })
	Register(geom.KindClouds, func() geom.Primitive { return &geom.Cloud{} })
	Register(geom.KindEraser, func() geom.Primitive { return &geom.Eraser{} })
	Register(geom.KindMountain, func() geom.Primitive { return &geom.Mountain{} })
	Register(geom.KindCelestial, func() geom.Primitive { return &geom.Celestial{} })
}

func (o Operation) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(o.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", o.Kind, err)
	}
	return json.Marshal(wireOp{Type: o.Kind, Data: data})
}

func (o *Operation) UnmarshalJSON(b []byte) error {
	var w wireOp
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	rec, ok := newRecord(w.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, rec); err != nil {
			return fmt.Errorf("decode %s: %w", w.Type, err)
		}
	}
	fillCaches(rec)
	o.Kind, o.Data = w.Type, rec
	return nil
}

// fillCaches rebuilds derived geometry that a hand-written or trimmed file
// left out, and fits tree palettes to their level count. Stored geometry is
// kept as is.
func fillCaches(p geom.Primitive) {
	switch r := p.(type) {
	case *geom.Tree:
		r.FitLevels()
		if len(r.Segments) == 0 {
			r.Rebuild()
		}
	case *geom.Snowflake:
		if len(r.Segments) == 0 {
			r.Rebuild()
		}
	case *geom.Flower:
		if len(r.Segments) == 0 {
			r.Rebuild()
		} else if r.Tips == nil {
			r.Tips = geom.Tips(r.Segments)
		}
	case *geom.Vine:
		if len(r.Points) == 0 {
			r.Rebuild()
		}
	}
}
