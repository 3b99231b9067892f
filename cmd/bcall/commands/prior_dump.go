package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bcall/pkg/cohort"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
)

func newPriorDumpCommand(flags *GlobalFlags) *cobra.Command {
	var fixedSites string

	cmd := &cobra.Command{
		Use:   "prior-dump <samples.tsv> <priors.dump>",
		Short: "Build the cohort prior and save it to a dump",
		Long: `Folds every sample listed in samples.tsv into a prior and writes it to
priors.dump. Dumps from disjoint cohorts can be combined with prior-merge.
With --fixed-sites only the positions of the given site list are kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPriorDump(cmd, flags, args[0], args[1], fixedSites)
		},
	}

	cmd.Flags().StringVar(&fixedSites, "fixed-sites", "", "restrict the prior to the sites of this BED-like file")

	return cmd
}

func newPriorDumpFixedCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prior-dump-fixed <samples.tsv> <priors.dump> <sites.bed.gz>",
		Short: "Build a prior restricted to a site list and save it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPriorDump(cmd, flags, args[0], args[1], args[2])
		},
	}
}

func runPriorDump(cmd *cobra.Command, flags *GlobalFlags, samplesPath, dumpPath, sitesPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cmd, flags)
	if err != nil {
		return err
	}
	defer rt.close()

	m, err := manifest.Load(samplesPath)
	if err != nil {
		return err
	}

	acc := rt.newAccumulator()
	mode := cohort.ModeOpen

	if sitesPath != "" {
		mode = cohort.ModeFixed

		_, err = cohort.SeedFixedSites(ctx, sitesPath, acc, rt.options())
		if err != nil {
			return err
		}
	}

	err = cohort.BuildPriors(ctx, m, acc, cohort.BuildOptions{
		Options: rt.options(),
		Mode:    mode,
		Workers: rt.cfg.Build.Workers,
	})
	if err != nil {
		return err
	}

	err = rt.reportPriors(acc, mode == cohort.ModeOpen)
	if err != nil {
		return err
	}

	return rt.writeDump(dumpPath, acc)
}
