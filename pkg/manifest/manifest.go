// Package manifest reads "id path" listings of sample readcount files or
// accumulator dumps.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for manifest loading.
var (
	ErrManifestEmpty     = errors.New("manifest empty")
	ErrMalformedManifest = errors.New("malformed manifest line")
)

// Entry pairs an identifier with a file path.
type Entry struct {
	ID   string
	Path string
}

// Manifest is an ordered, de-duplicated list of entries. It is immutable
// once loaded.
type Manifest struct {
	entries []Entry
}

// New builds a manifest from entries. A repeated ID replaces the path of
// the earlier entry and keeps its position.
func New(entries ...Entry) *Manifest {
	m := &Manifest{}
	pos := make(map[string]int, len(entries))

	for _, e := range entries {
		if i, ok := pos[e.ID]; ok {
			m.entries[i].Path = e.Path

			continue
		}

		pos[e.ID] = len(m.entries)
		m.entries = append(m.entries, e)
	}

	return m
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	m, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Parse reads whitespace-separated "id path" lines. Blank lines and lines
// starting with '#' are ignored; there is no header.
func Parse(r io.Reader) (*Manifest, error) {
	scanner := bufio.NewScanner(r)

	var entries []Entry

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedManifest, lineNo, line)
		}

		entries = append(entries, Entry{ID: fields[0], Path: fields[1]})
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrManifestEmpty
	}

	return New(entries...), nil
}

// Entries returns a copy of the entries in load order.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)

	return out
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Path returns the path registered for id.
func (m *Manifest) Path(id string) (string, bool) {
	for _, e := range m.entries {
		if e.ID == id {
			return e.Path, true
		}
	}

	return "", false
}
