package readcount

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a half-open BED interval. It covers 1-based positions
// Start+1 through End.
type Interval struct {
	Contig string
	Start  uint64
	End    uint64
}

// ParseInterval parses the first three columns of a BED line.
func ParseInterval(line string) (Interval, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Interval{}, fmt.Errorf("%w: bed line needs contig, start, end", ErrMalformedRecord)
	}

	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: bed start %q", ErrMalformedRecord, fields[1])
	}

	end, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: bed end %q", ErrMalformedRecord, fields[2])
	}

	return Interval{Contig: fields[0], Start: start, End: end}, nil
}

// Positions iterates the 1-based positions covered by the interval.
func (iv Interval) Positions(yield func(uint64) bool) {
	for pos := iv.Start + 1; pos <= iv.End && pos > iv.Start; pos++ {
		if !yield(pos) {
			return
		}
	}
}

// Len returns the number of positions covered.
func (iv Interval) Len() uint64 {
	if iv.End <= iv.Start {
		return 0
	}

	return iv.End - iv.Start
}

// ReadSites streams the intervals of a fixed-site list. The header line
// is discarded and an empty list returns ErrEmptyInputFile.
func ReadSites(path string, fn func(Interval) error) (int, error) {
	return ScanFile(path, func(lineNo int, line string) error {
		iv, err := ParseInterval(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		return fn(iv)
	})
}
