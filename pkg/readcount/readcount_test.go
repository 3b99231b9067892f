package readcount

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "chr\tpos\tdepth\tref_base\trefcount\taltcount\tacount\tccount\tgcount\ttcount\tncount\tindelcount"

func writeGzip(t *testing.T, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	file, err := os.Create(path)
	require.NoError(t, err)

	zw := gzip.NewWriter(file)

	_, err = zw.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, file.Close())

	return path
}

func writePlain(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestParse(t *testing.T) {
	t.Parallel()

	line := "1\t12345\t20\tA\t15\t5\t15\t0\t5\t0\t0\t0"

	rec, err := Parse(line)
	require.NoError(t, err)

	assert.Equal(t, "1", rec.Contig)
	assert.Equal(t, uint64(12345), rec.Position)
	assert.Equal(t, uint64(20), rec.Depth)
	assert.Equal(t, "A", rec.RefBase)
	assert.Equal(t, uint64(15), rec.RefCount)
	assert.Equal(t, uint64(5), rec.AltCount)
	assert.Equal(t, line, rec.Line)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{"too_few_columns", "1\t100\t10\tA\t5"},
		{"non_numeric_position", "1\tabc\t10\tA\t5\t5"},
		{"negative_count", "1\t100\t10\tA\t-5\t5"},
		{"float_alt", "1\t100\t10\tA\t5\t2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.line)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestContig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "X", Contig("X\t100\t1\tA\t1\t0"))
	assert.Equal(t, "GL000192.1", Contig("  GL000192.1 5 1 A 1 0"))
	assert.Equal(t, "MT", Contig("MT"))
}

func TestScanFile_Gzip(t *testing.T) {
	t.Parallel()

	path := writeGzip(t, "s1.readcounts.gz", header, "1\t1\t1\tA\t1\t0", "", "2\t2\t2\tC\t1\t1")

	var got []int

	count, err := ScanFile(path, func(lineNo int, _ string) error {
		got = append(got, lineNo)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, []int{2, 4}, got)
}

func TestScanFile_DetectsGzipWithoutSuffix(t *testing.T) {
	t.Parallel()

	path := writeGzip(t, "s1.readcounts", header, "1\t1\t1\tA\t1\t0")

	count, err := ScanFile(path, func(int, string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanFile_Plain(t *testing.T) {
	t.Parallel()

	path := writePlain(t, "s1.tsv", header+"\r\n1\t1\t1\tA\t1\t0\r\n")

	var lines []string

	_, err := ScanFile(path, func(_ int, line string) error {
		lines = append(lines, line)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1\t1\t1\tA\t1\t0"}, lines)
}

func TestScanFile_Empty(t *testing.T) {
	t.Parallel()

	t.Run("header_only", func(t *testing.T) {
		t.Parallel()

		path := writeGzip(t, "empty.gz", header)

		_, err := ScanFile(path, func(int, string) error { return nil })
		require.ErrorIs(t, err, ErrEmptyInputFile)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("zero_bytes", func(t *testing.T) {
		t.Parallel()

		path := writePlain(t, "empty.tsv", "")

		_, err := ScanFile(path, func(int, string) error { return nil })
		require.ErrorIs(t, err, ErrEmptyInputFile)
	})
}

func TestScanFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ScanFile(filepath.Join(t.TempDir(), "nope.gz"), func(int, string) error { return nil })
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanFile_CorruptGzip(t *testing.T) {
	t.Parallel()

	path := writePlain(t, "bad.gz", "definitely not gzip")

	_, err := ScanFile(path, func(int, string) error { return nil })
	require.Error(t, err)
}

func TestScanFile_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	path := writeGzip(t, "s.gz", header, "a", "b", "c")
	stop := errors.New("stop")

	calls := 0

	_, err := ScanFile(path, func(int, string) error {
		calls++

		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	iv, err := ParseInterval("1\t99\t102\tname")
	require.NoError(t, err)

	var positions []uint64

	for pos := range iv.Positions {
		positions = append(positions, pos)
	}

	assert.Equal(t, []uint64{100, 101, 102}, positions)
	assert.Equal(t, uint64(3), iv.Len())

	_, err = ParseInterval("1\t99")
	require.ErrorIs(t, err, ErrMalformedRecord)

	_, err = ParseInterval("1\tx\t5")
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestInterval_EmptyOrInverted(t *testing.T) {
	t.Parallel()

	for _, iv := range []Interval{{"1", 10, 10}, {"1", 10, 5}} {
		n := 0

		for range iv.Positions {
			n++
		}

		assert.Zero(t, n)
		assert.Zero(t, iv.Len())
	}
}

func TestReadSites(t *testing.T) {
	t.Parallel()

	path := writeGzip(t, "sites.bed.gz", "chrom\tstart\tend", "1\t0\t2", "X\t10\t11")

	var got []Interval

	count, err := ReadSites(path, func(iv Interval) error {
		got = append(got, iv)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, []Interval{{"1", 0, 2}, {"X", 10, 11}}, got)

	empty := writeGzip(t, "empty.bed.gz", "chrom\tstart\tend")

	_, err = ReadSites(empty, func(Interval) error { return nil })
	require.ErrorIs(t, err, ErrEmptyInputFile)
}
