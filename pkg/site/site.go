// Package site packs genomic coordinates into dense 64-bit keys.
package site

import (
	"errors"
	"fmt"
)

// contigBits is the width of the contig index in a Key.
const contigBits = 5

const contigMask = 1<<contigBits - 1

// MaxPosition is the largest position that fits above the contig bits.
const MaxPosition = 1<<(64-contigBits) - 1

// Sentinel errors returned by Encode.
var (
	// ErrUnknownContig marks a contig outside the index. Callers skip the record.
	ErrUnknownContig = errors.New("unknown contig")
	// ErrPositionRange marks a position that does not fit in a Key.
	ErrPositionRange = errors.New("position out of range")
)

// Key identifies a (contig, position) pair.
type Key uint64

var contigNames = [...]string{
	"1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
	"11", "12", "13", "14", "15", "16", "17", "18", "19", "20",
	"21", "22", "X", "Y", "MT",
}

var contigIndex = func() map[string]uint8 {
	idx := make(map[string]uint8, len(contigNames))

	for i, name := range contigNames {
		idx[name] = uint8(i)
	}

	return idx
}()

// NumContigs is the size of the contig index.
const NumContigs = len(contigNames)

// ContigIndex returns the index of a contig name.
func ContigIndex(name string) (uint8, bool) {
	idx, ok := contigIndex[name]

	return idx, ok
}

// ContigName returns the contig name for an index, or "" when out of range.
func ContigName(idx uint8) string {
	if int(idx) >= len(contigNames) {
		return ""
	}

	return contigNames[idx]
}

// Known reports whether the contig is part of the index.
func Known(name string) bool {
	_, ok := contigIndex[name]

	return ok
}

// Encode packs a contig and 1-based position into a Key.
// The position is widened to 64 bits before shifting; a 32-bit shift loses
// every position above 2^27.
func Encode(contig string, position uint64) (Key, error) {
	idx, ok := contigIndex[contig]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownContig, contig)
	}

	if position > MaxPosition {
		return 0, fmt.Errorf("%w: %d", ErrPositionRange, position)
	}

	return Key(position<<contigBits | uint64(idx)), nil
}

// Decode unpacks a Key produced by Encode.
func Decode(k Key) (contig string, position uint64) {
	return ContigName(uint8(k & contigMask)), uint64(k) >> contigBits
}

// Contig returns the contig index stored in the key.
func (k Key) Contig() uint8 {
	return uint8(k & contigMask)
}

// Position returns the position stored in the key.
func (k Key) Position() uint64 {
	return uint64(k) >> contigBits
}

// String renders the key as contig:position.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d", ContigName(k.Contig()), k.Position())
}
