// Package commands implements the bcall subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bcall/pkg/version"
)

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	ConfigPath  string
	Workers     int
	Alpha       float64
	LogLevel    string
	LogJSON     bool
	MetricsAddr string
	Report      string
	PrintPriors bool
	Plot        string
}

// NewRootCommand builds the bcall command tree.
func NewRootCommand() *cobra.Command {
	var flags GlobalFlags

	rootCmd := &cobra.Command{
		Use:   "bcall",
		Short: "Cohort-prior binomial variant calling from readcount files",
		Long: `bcall builds a per-site reference/alternate prior from a cohort of
readcount files and flags, per sample, the sites whose counts deviate
significantly from that prior.

Commands:
  prior-and-call     Build the prior and call in one run
  prior-dump         Build the prior and save it to a dump
  prior-dump-fixed   Build a prior restricted to a site list
  prior-merge        Merge dumps, optionally calling against the result`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file (default: ./bcall.yaml if present)")
	pf.IntVar(&flags.Workers, "workers", 0, "samples read concurrently while building the prior")
	pf.Float64Var(&flags.Alpha, "alpha", 0, "significance threshold")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "emit JSON logs")
	pf.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address during the run")
	pf.StringVar(&flags.Report, "report", "", "prior summary on stderr: text, yaml or none")
	pf.BoolVar(&flags.PrintPriors, "print-priors", false, "list every prior site on stderr")
	pf.StringVar(&flags.Plot, "plot", "", "write an HTML chart of the prior to this file")

	rootCmd.AddCommand(
		newPriorAndCallCommand(&flags),
		newPriorDumpCommand(&flags),
		newPriorDumpFixedCommand(&flags),
		newPriorMergeCommand(&flags),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bcall %s\n", version.Info())
		},
	}
}
