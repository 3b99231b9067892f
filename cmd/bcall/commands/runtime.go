package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/binom"
	"github.com/Sumatoshi-tech/bcall/pkg/cohort"
	"github.com/Sumatoshi-tech/bcall/pkg/config"
	"github.com/Sumatoshi-tech/bcall/pkg/dump"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
	"github.com/Sumatoshi-tech/bcall/pkg/persist"
	"github.com/Sumatoshi-tech/bcall/pkg/report"
	"github.com/Sumatoshi-tech/bcall/pkg/version"
)

const (
	stdoutPath        = "-"
	readHeaderTimeout = 5 * time.Second
)

// runtime bundles what every subcommand needs once flags and config are
// resolved.
type runtime struct {
	cfg     *config.Config
	flags   *GlobalFlags
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.RunMetrics
	codec   persist.Codec
	tester  binom.Tester
	stdout  io.Writer
	stderr  io.Writer

	server   *http.Server
	shutdown func(ctx context.Context) error
}

// newRuntime loads configuration, applies flag overrides and starts
// observability. The caller must call close.
func newRuntime(cmd *cobra.Command, flags *GlobalFlags) (*runtime, error) {
	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(cmd, flags, cfg)

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tester, err := binom.NewTester(cfg.Stats.Alpha)
	if err != nil {
		return nil, err
	}

	codec, err := persist.CodecByName(cfg.Snapshot.Codec)
	if err != nil {
		return nil, err
	}

	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Command = cmd.Name()
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.Prometheus = cfg.Metrics.Addr != ""
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogWriter = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init metrics: %w", err), providers.Shutdown(context.Background()))
	}

	rt := &runtime{
		cfg:      cfg,
		flags:    flags,
		logger:   providers.Logger,
		tracer:   providers.Tracer,
		metrics:  metrics,
		codec:    codec,
		tester:   tester,
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
		shutdown: providers.Shutdown,
	}

	if cfg.Metrics.Addr != "" {
		err = rt.serveMetrics(cfg.Metrics.Addr, providers.MetricsHandler)
		if err != nil {
			return nil, errors.Join(err, providers.Shutdown(context.Background()))
		}
	}

	rt.logger.Debug("configuration resolved",
		"alpha", cfg.Stats.Alpha,
		"workers", cfg.Build.Workers,
		"codec", cfg.Snapshot.Codec,
		"run_id", providers.RunID,
	)

	return rt, nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, flags *GlobalFlags, cfg *config.Config) {
	fs := cmd.Flags()

	if fs.Changed("workers") {
		cfg.Build.Workers = flags.Workers
	}

	if fs.Changed("alpha") {
		cfg.Stats.Alpha = flags.Alpha
	}

	if fs.Changed("log-level") {
		cfg.Logging.Level = flags.LogLevel
	}

	if fs.Changed("log-json") {
		cfg.Logging.JSON = flags.LogJSON
	}

	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.MetricsAddr
	}

	if fs.Changed("report") {
		cfg.Report.Format = flags.Report
	}
}

func (rt *runtime) serveMetrics(addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	rt.server = &http.Server{
		Handler:           observability.ServeMux(handler),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		serveErr := rt.server.Serve(ln)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			rt.logger.Warn("metrics server stopped", "error", serveErr)
		}
	}()

	rt.logger.Info("serving metrics", "addr", ln.Addr().String())

	return nil
}

func (rt *runtime) close() {
	ctx := context.Background()

	if rt.server != nil {
		err := rt.server.Shutdown(ctx)
		if err != nil {
			rt.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	err := rt.shutdown(ctx)
	if err != nil {
		rt.logger.Warn("observability shutdown failed", "error", err)
	}
}

func (rt *runtime) options() cohort.Options {
	return cohort.Options{Logger: rt.logger, Metrics: rt.metrics, Tracer: rt.tracer}
}

func (rt *runtime) newAccumulator() *accum.Accumulator {
	return accum.NewWithCapacity(rt.cfg.Build.InitialCapacity)
}

// reportPriors writes the requested prior diagnostics. Everything goes to
// stderr so the call stream on stdout stays clean.
func (rt *runtime) reportPriors(acc *accum.Accumulator, includeZero bool) error {
	if rt.flags.PrintPriors {
		err := report.WriteSites(rt.stderr, acc, includeZero)
		if err != nil {
			return err
		}
	}

	summary := report.Summarize(acc)

	err := report.Render(rt.stderr, rt.cfg.Report.Format, summary)
	if err != nil {
		return err
	}

	if rt.flags.Plot == "" {
		return nil
	}

	return writePlotFile(rt.flags.Plot, summary)
}

func writePlotFile(path string, summary report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	err = report.WritePlot(f, summary)
	if err != nil {
		f.Close()

		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close plot: %w", err)
	}

	return nil
}

// writeDump saves acc with the configured codec.
func (rt *runtime) writeDump(path string, acc *accum.Accumulator) error {
	err := dump.Write(path, acc, rt.codec)
	if err != nil {
		return err
	}

	rt.logger.Info("dump written", "path", path, "sites", acc.Len(), "codec", rt.cfg.Snapshot.Codec)

	return nil
}
