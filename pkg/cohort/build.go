package cohort

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
	"github.com/Sumatoshi-tech/bcall/pkg/readcount"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// BuildOptions configures BuildPriors.
type BuildOptions struct {
	Options

	// Mode selects open or fixed-site folding.
	Mode Mode

	// Workers is the number of samples read concurrently. Each worker folds
	// into a private shard; shards are merged after all workers finish.
	// Values below 2 read samples one after another.
	Workers int
}

// BuildPriors folds every sample of m into acc. In ModeFixed, acc must
// already hold the preseeded site set. acc is only modified when every
// sample was read successfully in parallel mode; in sequential mode a
// failure leaves acc partially built and the caller must discard it.
func BuildPriors(ctx context.Context, m *manifest.Manifest, acc *accum.Accumulator, opts BuildOptions) error {
	start := time.Now()

	ctx, span := opts.tracer().Start(ctx, "cohort.build", trace.WithAttributes(
		attribute.String("mode", opts.Mode.String()),
		attribute.Int("samples", m.Len()),
		attribute.Int("workers", max(opts.Workers, 1)),
	))
	defer span.End()

	var err error
	if opts.Workers > 1 && m.Len() > 1 {
		err = buildSharded(ctx, m.Entries(), acc, opts)
	} else {
		err = buildSequential(ctx, m.Entries(), acc, opts)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	opts.Metrics.ObservePhase(ctx, observability.PhaseBuild, time.Since(start))
	opts.Metrics.SetSites(ctx, acc.Len())

	opts.logger().InfoContext(ctx, "priors built",
		"mode", opts.Mode.String(),
		"samples", m.Len(),
		"sites", humanize.Comma(int64(acc.Len())),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

func buildSequential(ctx context.Context, entries []manifest.Entry, acc *accum.Accumulator, opts BuildOptions) error {
	proc := &FoldIntoPrior{Acc: acc, Mode: opts.Mode}

	for _, entry := range entries {
		err := streamSample(ctx, observability.PhaseBuild, entry, proc, opts.Options)
		if err != nil {
			return err
		}

		opts.logger().DebugContext(ctx, "accumulator size", "sites", humanize.Comma(int64(acc.Len())))
	}

	return nil
}

// buildSharded reads samples on opts.Workers goroutines. No goroutine
// touches acc; it is only merged into once every shard is complete.
func buildSharded(ctx context.Context, entries []manifest.Entry, acc *accum.Accumulator, opts BuildOptions) error {
	workers := min(opts.Workers, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan manifest.Entry)
	shards := make([]*accum.Accumulator, workers)

	for i := range workers {
		shard := accum.New()
		if opts.Mode == ModeFixed {
			shard = acc.ZeroCopy()
		}

		shards[i] = shard
		proc := &FoldIntoPrior{Acc: shard, Mode: opts.Mode}

		g.Go(func() error {
			for entry := range jobs {
				err := streamSample(gctx, observability.PhaseBuild, entry, proc, opts.Options)
				if err != nil {
					return err
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)

		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	for _, shard := range shards {
		acc.MergeFrom(shard)
	}

	return nil
}

// SeedFixedSites preseeds acc with every position of the BED-like site
// list at path and returns the number of intervals read. Intervals on
// contigs outside the index are skipped.
func SeedFixedSites(ctx context.Context, path string, acc *accum.Accumulator, opts Options) (int, error) {
	start := time.Now()

	ctx, span := opts.tracer().Start(ctx, "cohort.seed", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	skipped := 0

	intervals, err := readcount.ReadSites(path, func(iv readcount.Interval) error {
		if !site.Known(iv.Contig) {
			skipped++

			return nil
		}

		for pos := range iv.Positions {
			key, encErr := site.Encode(iv.Contig, pos)
			if encErr != nil {
				return encErr
			}

			acc.Preseed(key)
		}

		return ctx.Err()
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return 0, fmt.Errorf("seed fixed sites: %w", err)
	}

	opts.Metrics.ObservePhase(ctx, observability.PhaseSeed, time.Since(start))
	opts.Metrics.SetSites(ctx, acc.Len())

	opts.logger().InfoContext(ctx, "fixed sites loaded",
		"path", path,
		"intervals", humanize.Comma(int64(intervals)),
		"skipped_intervals", skipped,
		"sites", humanize.Comma(int64(acc.Len())),
	)

	return intervals, nil
}
