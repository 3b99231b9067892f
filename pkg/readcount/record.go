package readcount

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned for lines missing required columns or
// carrying non-numeric counts.
var ErrMalformedRecord = errors.New("malformed readcount record")

// requiredColumns is contig, position, depth, ref base, ref count, alt count.
const requiredColumns = 6

// Record is one readcount line. Columns after alt count (per-base and indel
// counts) are not interpreted; Line keeps the whole source line verbatim.
type Record struct {
	Contig   string
	Position uint64
	Depth    uint64
	RefBase  string
	RefCount uint64
	AltCount uint64
	Line     string
}

// Parse splits a whitespace-separated readcount line.
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < requiredColumns {
		return Record{}, fmt.Errorf("%w: want at least %d columns, got %d", ErrMalformedRecord, requiredColumns, len(fields))
	}

	rec := Record{
		Contig:  fields[0],
		RefBase: fields[3],
		Line:    line,
	}

	numeric := []struct {
		name string
		src  string
		dst  *uint64
	}{
		{"position", fields[1], &rec.Position},
		{"depth", fields[2], &rec.Depth},
		{"ref count", fields[4], &rec.RefCount},
		{"alt count", fields[5], &rec.AltCount},
	}

	for _, col := range numeric {
		v, err := strconv.ParseUint(col.src, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s %q", ErrMalformedRecord, col.name, col.src)
		}

		*col.dst = v
	}

	return rec, nil
}

// Contig returns the first column of a readcount line without parsing the
// rest, so records on contigs outside the index can be skipped cheaply.
func Contig(line string) string {
	line = strings.TrimLeft(line, " \t")

	end := strings.IndexAny(line, " \t")
	if end < 0 {
		return line
	}

	return line[:end]
}
