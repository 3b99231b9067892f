package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bcall/pkg/cohort"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
)

func newPriorAndCallCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prior-and-call <samples.tsv> <calls.tsv|->",
		Short: "Build the cohort prior and call every sample against it",
		Long: `Reads every sample listed in samples.tsv twice: once to fold the
cohort prior, once to test each site against it. Calls are written as
tab-separated rows to the output file, or stdout when it is "-".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.close()

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			acc := rt.newAccumulator()

			err = cohort.BuildPriors(ctx, m, acc, cohort.BuildOptions{
				Options: rt.options(),
				Mode:    cohort.ModeOpen,
				Workers: rt.cfg.Build.Workers,
			})
			if err != nil {
				return err
			}

			err = rt.reportPriors(acc, true)
			if err != nil {
				return err
			}

			return rt.applyToOutput(ctx, m, acc, args[1], false)
		},
	}
}
