package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	plotWidth  = "100%"
	plotHeight = "500px"
	depthAxis  = 1
)

// WritePlot renders an HTML bar chart of sites and mean depth per contig.
func WritePlot(w io.Writer, s Summary) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "bcall prior",
			Width:     plotWidth,
			Height:    plotHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Prior sites per contig",
			Subtitle: fmt.Sprintf("%d sites, %d with reads", s.Sites, s.NonZero),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "sites"}),
	)
	bar.ExtendYAxis(opts.YAxis{Name: "mean depth"})

	labels := make([]string, len(s.Contigs))
	sites := make([]opts.BarData, len(s.Contigs))
	depth := make([]opts.BarData, len(s.Contigs))

	for i, cs := range s.Contigs {
		labels[i] = cs.Contig
		sites[i] = opts.BarData{Value: cs.Sites}
		depth[i] = opts.BarData{Value: cs.MeanDepth}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("sites", sites)
	bar.AddSeries("mean depth", depth, charts.WithBarChartOpts(opts.BarChart{YAxisIndex: depthAxis}))

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}
