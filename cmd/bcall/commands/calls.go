package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/callout"
	"github.com/Sumatoshi-tech/bcall/pkg/cohort"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
)

// applyToOutput tests every sample of m against acc and writes the call
// stream to outPath ("-" for stdout). A failed run removes the output file.
func (rt *runtime) applyToOutput(
	ctx context.Context, m *manifest.Manifest, acc *accum.Accumulator, outPath string, allowMissing bool,
) error {
	out := rt.stdout

	var file *os.File

	if outPath != stdoutPath {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create calls output: %w", err)
		}

		file = f
		out = f
	}

	w := callout.NewWriter(out)

	err := w.WriteHeader()
	if err == nil {
		err = cohort.ApplyModel(ctx, m, acc, rt.tester, w, cohort.ApplyOptions{
			Options:      rt.options(),
			AllowMissing: allowMissing,
		})
	}

	if err == nil {
		err = w.Flush()
	}

	if file != nil {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close calls output: %w", closeErr)
		}

		if err != nil {
			err = errors.Join(err, removeIfExists(outPath))
		}
	}

	if err != nil {
		return err
	}

	rt.logger.Info("calls written", "output", outPath, "calls", w.Rows())

	return nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial output: %w", err)
	}

	return nil
}
