package cohort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
	"github.com/Sumatoshi-tech/bcall/pkg/readcount"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// ctxCheckInterval is how many lines are read between cancellation checks.
const ctxCheckInterval = 4096

// Options carries the ambient collaborators of a phase.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.RunMetrics
	Tracer  trace.Tracer
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return observability.Discard()
	}

	return o.Logger
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer == nil {
		return otel.Tracer("bcall/cohort")
	}

	return o.Tracer
}

// sampleStats counts what happened to the lines of one sample.
type sampleStats struct {
	lines   int
	used    int64
	skipped map[string]int64
}

func (s *sampleStats) skip(reason string) {
	if s.skipped == nil {
		s.skipped = make(map[string]int64)
	}

	s.skipped[reason]++
}

// streamSample reads one sample's readcount file and hands every record on
// an indexed contig to proc. The file is read once, front to back.
func streamSample(ctx context.Context, phase string, entry manifest.Entry, proc Processor, opts Options) error {
	ctx, span := opts.tracer().Start(ctx, "cohort.sample", trace.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("sample", entry.ID),
	))
	defer span.End()

	log := opts.logger()
	log.InfoContext(ctx, "opening sample", "phase", phase, "sample", entry.ID, "path", entry.Path)

	var st sampleStats

	lines, err := readcount.ScanFile(entry.Path, func(lineNo int, line string) error {
		if lineNo%ctxCheckInterval == 0 {
			ctxErr := ctx.Err()
			if ctxErr != nil {
				return ctxErr
			}
		}

		if !site.Known(readcount.Contig(line)) {
			st.skip(observability.ReasonUnknownContig)

			return nil
		}

		rec, parseErr := readcount.Parse(line)
		if parseErr != nil {
			return fmt.Errorf("line %d: %w", lineNo, parseErr)
		}

		key, encErr := site.Encode(rec.Contig, rec.Position)
		if encErr != nil {
			return fmt.Errorf("line %d: %w", lineNo, encErr)
		}

		reason, procErr := proc.ProcessRecord(entry.ID, key, rec)
		if procErr != nil {
			return fmt.Errorf("line %d: %w", lineNo, procErr)
		}

		if reason != "" {
			st.skip(reason)
		} else {
			st.used++
		}

		return nil
	})

	st.lines = lines

	opts.Metrics.AddRecords(ctx, phase, st.used)

	for reason, n := range st.skipped {
		opts.Metrics.AddSkipped(ctx, phase, reason, n)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("sample %s: %w", entry.ID, err)
	}

	opts.Metrics.SampleDone(ctx, phase)

	log.InfoContext(ctx, "read sample",
		"phase", phase,
		"sample", entry.ID,
		"lines", humanize.Comma(int64(st.lines)),
		"used", humanize.Comma(st.used),
		"skipped", st.skipped,
	)

	return nil
}
