// Package dump serializes prior accumulators to disk and merges dumps
// produced by independent runs.
package dump

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/persist"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// SnapshotVersion is the payload layout written by this package.
const SnapshotVersion = 1

// Sentinel errors.
var (
	ErrDumpRead  = errors.New("dump read failed")
	ErrDumpWrite = errors.New("dump write failed")

	errVersionMismatch = errors.New("snapshot version mismatch")
)

// SiteEntry is one serialized site.
type SiteEntry struct {
	Key uint64 `json:"key"`
	Ref uint64 `json:"ref"`
	Alt uint64 `json:"alt"`
}

// Snapshot is the on-disk payload of a dump. Sites are in key order.
type Snapshot struct {
	Version int         `json:"version"`
	Sites   []SiteEntry `json:"sites"`
}

// NewSnapshot captures acc. Zero-count sites are kept so that a fixed-site
// panel survives the round trip.
func NewSnapshot(acc *accum.Accumulator) *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Sites:   make([]SiteEntry, 0, acc.Len()),
	}

	for k, c := range acc.All() {
		snap.Sites = append(snap.Sites, SiteEntry{Key: uint64(k), Ref: c.Ref, Alt: c.Alt})
	}

	return snap
}

// Accumulator rebuilds the accumulator held by the snapshot.
func (s *Snapshot) Accumulator() (*accum.Accumulator, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", errVersionMismatch, s.Version, SnapshotVersion)
	}

	acc := accum.NewWithCapacity(len(s.Sites))

	for _, e := range s.Sites {
		acc.Fold(site.Key(e.Key), e.Ref, e.Alt)
	}

	return acc, nil
}

// Write saves acc to path. The file is replaced atomically: a failed write
// leaves any previous dump at path untouched.
func Write(path string, acc *accum.Accumulator, codec persist.Codec) error {
	p := persist.NewPersister[Snapshot](codec)

	err := p.Save(path, func() *Snapshot { return NewSnapshot(acc) })
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDumpWrite, path, err)
	}

	return nil
}

// Read loads the dump at path.
func Read(path string, codec persist.Codec) (*accum.Accumulator, error) {
	p := persist.NewPersister[Snapshot](codec)

	var acc *accum.Accumulator

	err := p.Load(path, func(snap *Snapshot) error {
		var restoreErr error

		acc, restoreErr = snap.Accumulator()

		return restoreErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDumpRead, path, err)
	}

	return acc, nil
}
