package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// Marshal converts a snapshot to indented JSON bytes.
// Nodes are sorted by name for deterministic output; s itself is not modified.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a snapshot to a JSON file.
// Missing parent directories are created; the file gets 0644 permissions.
func WriteFile(s Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeTo(s, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Write writes a snapshot as JSON to an io.Writer.
// Use Marshal for in-memory serialization or WriteFile for files.
func Write(s Snapshot, w io.Writer) error {
	return writeTo(s, w)
}

// Unmarshal decodes a JSON snapshot.
func Unmarshal(data []byte) (Snapshot, error) {
	return readFrom(bytes.NewReader(data))
}

// ReadFile reads a JSON snapshot file.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(s Snapshot, w io.Writer) error {
	out := s
	out.Nodes = append([]Node(nil), s.Nodes...)
	out.Links = append([]Link(nil), s.Links...)
	out.Sort()
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Links == nil {
		out.Links = []Link{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}
