// Package callout writes the tab-separated call stream.
package callout

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/bcall/pkg/cohort"
)

// Header columns of the call stream, in order.
var Header = []string{
	"sample", "p_value", "chr", "pos", "depth", "ref_base", "refcount", "altcount",
	"acount", "ccount", "gcount", "tcount", "ncount", "indelcount",
}

const writeBufferSize = 64 * 1024

// Writer buffers call rows. It implements cohort.Emitter.
// Call Flush once the run is done.
type Writer struct {
	bw   *bufio.Writer
	rows int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, writeBufferSize)}
}

// WriteHeader writes the column header row.
func (w *Writer) WriteHeader() error {
	_, err := w.bw.WriteString(strings.Join(Header, "\t") + "\n")
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	return nil
}

// Emit writes one call as sample, p-value and the original input line.
func (w *Writer) Emit(c cohort.Call) error {
	_, err := w.bw.WriteString(FormatRow(c))
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	w.rows++

	return nil
}

// Rows returns how many calls were written.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Flush writes any buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	err := w.bw.Flush()
	if err != nil {
		return fmt.Errorf("flush calls: %w", err)
	}

	return nil
}

// FormatPValue renders p with six significant digits.
func FormatPValue(p float64) string {
	return strconv.FormatFloat(p, 'g', 6, 64)
}

// FormatRow renders one call row including the trailing newline.
func FormatRow(c cohort.Call) string {
	var sb strings.Builder

	sb.Grow(len(c.Sample) + len(c.Record.Line) + 16)
	sb.WriteString(c.Sample)
	sb.WriteByte('\t')
	sb.WriteString(FormatPValue(c.PValue))
	sb.WriteByte('\t')
	sb.WriteString(c.Record.Line)
	sb.WriteByte('\n')

	return sb.String()
}

var _ cohort.Emitter = (*Writer)(nil)
