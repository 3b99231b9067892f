package cohort

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/binom"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
)

// ApplyOptions configures ApplyModel.
type ApplyOptions struct {
	Options

	// AllowMissing skips records on sites absent from the prior instead of
	// failing with ErrPriorNotFound. Used when applying a fixed-site prior.
	AllowMissing bool
}

// ApplyModel re-reads every sample of m, tests each record against the
// finished prior in acc and emits the calls. acc is only read.
// Samples are processed in manifest order.
func ApplyModel(
	ctx context.Context,
	m *manifest.Manifest,
	acc *accum.Accumulator,
	tester binom.Tester,
	emit Emitter,
	opts ApplyOptions,
) error {
	start := time.Now()

	ctx, span := opts.tracer().Start(ctx, "cohort.apply", trace.WithAttributes(
		attribute.Int("samples", m.Len()),
		attribute.Float64("alpha", tester.Alpha),
	))
	defer span.End()

	proc := &TestAgainstPrior{Acc: acc, Tester: tester, Emit: emit, AllowMissing: opts.AllowMissing}

	for _, entry := range m.Entries() {
		before := proc.Calls()

		err := streamSample(ctx, observability.PhaseApply, entry, proc, opts.Options)

		opts.Metrics.AddCalls(ctx, proc.Calls()-before)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return err
		}

		opts.logger().DebugContext(ctx, "sample calls", "sample", entry.ID, "calls", proc.Calls()-before)
	}

	opts.Metrics.ObservePhase(ctx, observability.PhaseApply, time.Since(start))

	opts.logger().InfoContext(ctx, "model applied",
		"samples", m.Len(),
		"calls", humanize.Comma(proc.Calls()),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return nil
}
