// Package report renders diagnostics about a finished prior: a per-site
// listing, a summary table or YAML document, and an HTML chart.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/safeconv"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatNone = "none"
)

// ErrUnknownFormat is returned by Render for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// ContigSummary aggregates the sites of one contig.
type ContigSummary struct {
	Contig    string  `yaml:"contig"`
	Sites     int     `yaml:"sites"`
	NonZero   int     `yaml:"nonzero_sites"`
	Ref       uint64  `yaml:"ref"`
	Alt       uint64  `yaml:"alt"`
	MeanDepth float64 `yaml:"mean_depth"`
}

// Summary describes a prior.
type Summary struct {
	Sites    int             `yaml:"sites"`
	NonZero  int             `yaml:"nonzero_sites"`
	TotalRef uint64          `yaml:"total_ref"`
	TotalAlt uint64          `yaml:"total_alt"`
	Contigs  []ContigSummary `yaml:"contigs"`
}

// Summarize walks acc once. Contigs appear in index order and contigs with
// no sites are omitted.
func Summarize(acc *accum.Accumulator) Summary {
	st := acc.Stats()

	s := Summary{
		Sites:    st.Sites,
		NonZero:  st.NonZeroSites,
		TotalRef: st.TotalRef,
		TotalAlt: st.TotalAlt,
	}

	var per [site.NumContigs]ContigSummary

	for k, c := range acc.All() {
		idx := int(k.Contig())
		if idx >= site.NumContigs {
			continue
		}

		cs := &per[idx]
		cs.Sites++
		cs.Ref += c.Ref
		cs.Alt += c.Alt

		if !c.IsZero() {
			cs.NonZero++
		}
	}

	for idx := range per {
		cs := per[idx]
		if cs.Sites == 0 {
			continue
		}

		cs.Contig = site.ContigName(safeconv.MustIntToUint8(idx))
		cs.MeanDepth = float64(cs.Ref+cs.Alt) / float64(cs.Sites)
		s.Contigs = append(s.Contigs, cs)
	}

	return s
}

// Render writes s in the given format. FormatNone writes nothing.
func Render(w io.Writer, format string, s Summary) error {
	switch format {
	case FormatText:
		return RenderText(w, s)
	case FormatYAML:
		return RenderYAML(w, s)
	case FormatNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// RenderText writes s as a table.
func RenderText(w io.Writer, s Summary) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetTitle("Prior summary")
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	tbl.AppendHeader(table.Row{"contig", "sites", "nonzero", "ref", "alt", "mean depth"})

	for _, cs := range s.Contigs {
		tbl.AppendRow(table.Row{
			cs.Contig,
			humanize.Comma(int64(cs.Sites)),
			humanize.Comma(int64(cs.NonZero)),
			humanize.Comma(safeconv.Uint64ToInt64(cs.Ref)),
			humanize.Comma(safeconv.Uint64ToInt64(cs.Alt)),
			strconv.FormatFloat(cs.MeanDepth, 'f', 2, 64),
		})
	}

	tbl.AppendFooter(table.Row{
		"total",
		humanize.Comma(int64(s.Sites)),
		humanize.Comma(int64(s.NonZero)),
		humanize.Comma(safeconv.Uint64ToInt64(s.TotalRef)),
		humanize.Comma(safeconv.Uint64ToInt64(s.TotalAlt)),
		"",
	})

	tbl.Render()

	return nil
}

// RenderYAML writes s as a YAML document.
func RenderYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return nil
}

// WriteSites lists every site as "site <key> ref_c <ref> alt_c <alt>" in key
// order. Sites with no reads are skipped unless includeZero is set.
func WriteSites(w io.Writer, acc *accum.Accumulator, includeZero bool) error {
	bw := bufio.NewWriter(w)

	for k, c := range acc.All() {
		if c.IsZero() && !includeZero {
			continue
		}

		_, err := fmt.Fprintf(bw, "site %d ref_c %d alt_c %d\n", uint64(k), c.Ref, c.Alt)
		if err != nil {
			return fmt.Errorf("write sites: %w", err)
		}
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write sites: %w", err)
	}

	return nil
}
