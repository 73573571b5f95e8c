// Package session reads and writes whole edit histories.
//
// A session file is a JSON document, optionally gzip-compressed:
//
//	{"format":"fractal-forest-session","version":1,"history":[...],"histIndex":n}
//
// Files written by the browser version carry neither format nor version and
// are accepted as version 1.
package session

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"

	"fractalforest/internal/scene"
)

const (
	Format  = "fractal-forest-session"
	Version = 1

	// StampLayout is the timestamp used in exported file names.
	StampLayout = "2006_01_02_15_04_05"
)

var (
	ErrInvalidFormat      = errors.New("invalid session file format")
	ErrUnsupportedVersion = errors.New("unsupported session version")
	ErrDecompress         = errors.New("cannot decompress session")
)

// Document is a decoded session.
type Document struct {
	Format    string           `json:"format,omitempty"`
	Version   int              `json:"version,omitempty"`
	History   []scene.Snapshot `json:"history"`
	HistIndex int              `json:"histIndex"`
}

// Current returns the snapshot at HistIndex.
func (d Document) Current() scene.Snapshot {
	return d.History[d.HistIndex]
}

type Options struct {
	Compress bool
}

// Encode writes snaps and idx to w.
func Encode(w io.Writer, snaps []scene.Snapshot, idx int, opts Options) error {
	if idx < 0 || idx >= len(snaps) {
		return fmt.Errorf("%w: index %d with %d entries", ErrInvalidFormat, idx, len(snaps))
	}
	doc := Document{Format: Format, Version: Version, History: snaps, HistIndex: idx}
	if !opts.Compress {
		return json.NewEncoder(w).Encode(doc)
	}
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode reads a session from r. Gzip input is detected from its magic
// bytes. Either the whole document is valid or an error is returned.
func Decode(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(262)
	var src io.Reader = br
	if filetype.Is(head, "gz") {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrDecompress, err)
		}
		defer zr.Close()
		raw, err := io.ReadAll(zr)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrDecompress, err)
		}
		src = bytes.NewReader(raw)
	}

	var probe struct {
		Format    *string          `json:"format"`
		Version   *int             `json:"version"`
		History   *json.RawMessage `json:"history"`
		HistIndex *int             `json:"histIndex"`
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if probe.Format != nil && *probe.Format != Format {
		return Document{}, fmt.Errorf("%w: format %q", ErrInvalidFormat, *probe.Format)
	}
	if probe.Version != nil && *probe.Version > Version {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.Version)
	}
	if probe.History == nil || probe.HistIndex == nil {
		return Document{}, fmt.Errorf("%w: missing history or histIndex", ErrInvalidFormat)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.HistIndex < 0 || doc.HistIndex >= len(doc.History) {
		return Document{}, fmt.Errorf("%w: histIndex %d with %d entries", ErrInvalidFormat, doc.HistIndex, len(doc.History))
	}
	doc.Format, doc.Version = Format, Version
	return doc, nil
}

// Save writes the session to path through a temporary file, so a failed
// write never leaves a truncated session behind.
func Save(path string, snaps []scene.Snapshot, idx int, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, snaps, idx, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load decodes the session stored at path.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// FileName returns the default name of a session exported at t.
func FileName(t time.Time, compress bool) string {
	name := "fractal-session_" + t.Format(StampLayout) + ".json"
	if compress {
		name += ".gz"
	}
	return name
}
