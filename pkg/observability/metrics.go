package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRecordsTotal  = "bcall.records.total"
	metricSkippedTotal  = "bcall.records.skipped.total"
	metricCallsTotal    = "bcall.calls.total"
	metricSamplesTotal  = "bcall.samples.total"
	metricPhaseDuration = "bcall.phase.duration.seconds"
	metricSites         = "bcall.sites"

	attrPhase  = "phase"
	attrReason = "reason"
)

// Phase names used as metric attributes and span names.
const (
	PhaseBuild = "build"
	PhaseApply = "apply"
	PhaseMerge = "merge"
	PhaseSeed  = "seed"
)

// Skip reasons.
const (
	ReasonUnknownContig = "unknown_contig"
	ReasonOutsidePanel  = "outside_panel"
	ReasonNoEvidence    = "no_evidence"
	ReasonMissingPrior  = "missing_prior"
)

// durationBucketBoundaries covers 10ms to 2h; a cohort-wide phase over
// hundreds of whole-genome samples runs for tens of minutes.
var durationBucketBoundaries = []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800, 3600, 7200}

// RunMetrics holds the instruments recorded by the build, apply and merge
// phases. A nil *RunMetrics records nothing.
type RunMetrics struct {
	records       metric.Int64Counter
	skipped       metric.Int64Counter
	calls         metric.Int64Counter
	samples       metric.Int64Counter
	phaseDuration metric.Float64Histogram
	sites         metric.Int64Gauge
}

// NewRunMetrics creates the run instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		records:       b.counter(metricRecordsTotal, "Readcount records processed", "{record}"),
		skipped:       b.counter(metricSkippedTotal, "Readcount records skipped by reason", "{record}"),
		calls:         b.counter(metricCallsTotal, "Sites called as deviating from the cohort", "{call}"),
		samples:       b.counter(metricSamplesTotal, "Sample files consumed", "{sample}"),
		phaseDuration: b.histogram(metricPhaseDuration, "Phase wall time in seconds", "s", durationBucketBoundaries...),
		sites:         b.gauge(metricSites, "Sites held by the accumulator", "{site}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// AddRecords counts processed records for a phase.
func (rm *RunMetrics) AddRecords(ctx context.Context, phase string, n int64) {
	if rm == nil || n == 0 {
		return
	}

	rm.records.Add(ctx, n, metric.WithAttributes(attribute.String(attrPhase, phase)))
}

// AddSkipped counts skipped records for a phase and reason.
func (rm *RunMetrics) AddSkipped(ctx context.Context, phase, reason string, n int64) {
	if rm == nil || n == 0 {
		return
	}

	rm.skipped.Add(ctx, n, metric.WithAttributes(
		attribute.String(attrPhase, phase),
		attribute.String(attrReason, reason),
	))
}

// AddCalls counts emitted calls.
func (rm *RunMetrics) AddCalls(ctx context.Context, n int64) {
	if rm == nil || n == 0 {
		return
	}

	rm.calls.Add(ctx, n)
}

// SampleDone counts one consumed sample file.
func (rm *RunMetrics) SampleDone(ctx context.Context, phase string) {
	if rm == nil {
		return
	}

	rm.samples.Add(ctx, 1, metric.WithAttributes(attribute.String(attrPhase, phase)))
}

// ObservePhase records the duration of a phase.
func (rm *RunMetrics) ObservePhase(ctx context.Context, phase string, d time.Duration) {
	if rm == nil {
		return
	}

	rm.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrPhase, phase)))
}

// SetSites records the accumulator size.
func (rm *RunMetrics) SetSites(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.sites.Record(ctx, int64(n))
}

// metricBuilder accumulates instrument creation errors so a set of
// instruments needs a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	}

	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}

	h, err := b.meter.Float64Histogram(name, opts...)
	b.setErr(name, err)

	return h
}

func (b *metricBuilder) gauge(name, desc, unit string) metric.Int64Gauge {
	g, err := b.meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return g
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
