// Package readcount reads per-sample readcount tables and fixed-site lists.
package readcount

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var gzipMagic = [2]byte{0x1f, 0x8b}

// ErrEmptyInputFile is returned when a file has no data lines after its header.
var ErrEmptyInputFile = errors.New("input file empty")

// maxLineBytes bounds a single input line.
const maxLineBytes = 4 << 20

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

// Open opens path for reading, decompressing gzip content when the file
// starts with the gzip magic bytes or carries a .gz suffix.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	br := bufio.NewReader(file)

	sig, _ := br.Peek(len(gzipMagic))
	isGzip := len(sig) == len(gzipMagic) && sig[0] == gzipMagic[0] && sig[1] == gzipMagic[1]

	if !isGzip && !strings.HasSuffix(path, ".gz") {
		return struct {
			io.Reader
			io.Closer
		}{br, file}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}

	return &gzipFile{Reader: zr, file: file}, nil
}

// ScanLines calls fn for every line after the header of r and returns the
// number of data lines seen. The header is discarded unconditionally.
// Blank lines are neither passed to fn nor counted. fn receives the
// 1-based line number in the file.
func ScanLines(r io.Reader, fn func(lineNo int, line string) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	lineNo := 0
	count := 0

	for scanner.Scan() {
		lineNo++

		if lineNo == 1 {
			continue
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		count++

		err := fn(lineNo, line)
		if err != nil {
			return count, err
		}
	}

	err := scanner.Err()
	if err != nil {
		return count, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}

	return count, nil
}

// ScanFile opens path and scans it with ScanLines. A file with no data
// lines returns ErrEmptyInputFile.
func ScanFile(path string, fn func(lineNo int, line string) error) (int, error) {
	rc, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	count, err := ScanLines(rc, fn)
	if err != nil {
		return count, fmt.Errorf("%s: %w", path, err)
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyInputFile, path)
	}

	return count, nil
}
