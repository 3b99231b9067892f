package dump

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
	"github.com/Sumatoshi-tech/bcall/pkg/persist"
)

// MergeOptions carries the ambient collaborators of a merge.
type MergeOptions struct {
	Logger  *slog.Logger
	Metrics *observability.RunMetrics
	Tracer  trace.Tracer
}

// Merge reads every dump listed in m and adds it into into. Dumps are
// decoded one at a time into a scratch accumulator, so into is left
// unchanged when any dump fails to read.
func Merge(ctx context.Context, m *manifest.Manifest, codec persist.Codec, into *accum.Accumulator, opts MergeOptions) error {
	start := time.Now()

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("bcall/dump")
	}

	log := opts.Logger
	if log == nil {
		log = observability.Discard()
	}

	ctx, span := tracer.Start(ctx, "dump.merge", trace.WithAttributes(attribute.Int("dumps", m.Len())))
	defer span.End()

	merged := accum.New()

	for _, entry := range m.Entries() {
		err := ctx.Err()
		if err != nil {
			return err
		}

		acc, err := Read(entry.Path, codec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return fmt.Errorf("dump %s: %w", entry.ID, err)
		}

		log.InfoContext(ctx, "read dump",
			"dump", entry.ID,
			"path", entry.Path,
			"sites", humanize.Comma(int64(acc.Len())),
		)

		merged.MergeFrom(acc)
	}

	into.MergeFrom(merged)

	opts.Metrics.ObservePhase(ctx, observability.PhaseMerge, time.Since(start))
	opts.Metrics.SetSites(ctx, into.Len())

	log.InfoContext(ctx, "dumps merged",
		"dumps", m.Len(),
		"sites", humanize.Comma(int64(into.Len())),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return nil
}
