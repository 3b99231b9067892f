package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bcall/pkg/dump"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
)

type mergeFlags struct {
	out          string
	callSamples  string
	callsOut     string
	allowMissing bool
}

func newPriorMergeCommand(flags *GlobalFlags) *cobra.Command {
	var mf mergeFlags

	cmd := &cobra.Command{
		Use:   "prior-merge <dumps.tsv>",
		Short: "Merge prior dumps and optionally call samples against the result",
		Long: `Adds together every dump listed in dumps.tsv ("id path" per line).
The merged prior equals the one a single run over all cohorts would build.
The merged prior is always summarized on stderr; write it with --out,
or test samples against it with --call.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPriorMerge(cmd, flags, args[0], mf)
		},
	}

	cmd.Flags().StringVar(&mf.out, "out", "", "write the merged prior to this dump")
	cmd.Flags().StringVar(&mf.callSamples, "call", "", "samples manifest to call against the merged prior")
	cmd.Flags().StringVar(&mf.callsOut, "calls-out", stdoutPath, "call stream output for --call, \"-\" for stdout")
	cmd.Flags().BoolVar(&mf.allowMissing, "allow-missing", false, "skip sites absent from the merged prior instead of failing")

	return cmd
}

func runPriorMerge(cmd *cobra.Command, flags *GlobalFlags, dumpsPath string, mf mergeFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cmd, flags)
	if err != nil {
		return err
	}
	defer rt.close()

	dumps, err := manifest.Load(dumpsPath)
	if err != nil {
		return err
	}

	var samples *manifest.Manifest

	if mf.callSamples != "" {
		samples, err = manifest.Load(mf.callSamples)
		if err != nil {
			return err
		}
	}

	acc := rt.newAccumulator()

	err = dump.Merge(ctx, dumps, rt.codec, acc, dump.MergeOptions{
		Logger:  rt.logger,
		Metrics: rt.metrics,
		Tracer:  rt.tracer,
	})
	if err != nil {
		return err
	}

	err = rt.reportPriors(acc, true)
	if err != nil {
		return err
	}

	if mf.out != "" {
		err = rt.writeDump(mf.out, acc)
		if err != nil {
			return err
		}
	}

	if samples == nil {
		return nil
	}

	return rt.applyToOutput(ctx, samples, acc, mf.callsOut, mf.allowMissing)
}
