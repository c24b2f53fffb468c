package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"battcli/internal/config"
	apperrors "battcli/internal/errors"
	"battcli/internal/files"
	"battcli/internal/infrastructure"
	"battcli/pkg/contracts"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile     string
	analysisFile   string
	logLevel       string
	cyclerType     string
	manualCapacity float64
	cRate          float64
	jsonOut        bool
	outFile        string
}

// app holds what a command needs after setup
type app struct {
	flags     *globalFlags
	cfg       *config.Config
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	files     *files.Manager
	out       io.Writer
	start     time.Time
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		asJSON, _ := root.PersistentFlags().GetBool("json")
		handler := apperrors.NewErrorHandler(infrastructure.GetLogger(), asJSON, infrastructure.GetTraceID)
		hctx := ctx
		if cmd != nil && cmd.Context() != nil {
			hctx = cmd.Context()
		}
		os.Exit(handler.HandleError(hctx, os.Stderr, err))
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "battcli",
		Short: "Battery cycler data analysis",
		Long: `battcli loads per-cycle records exported by PNE and Toyo battery cyclers
and derives capacity, DC internal resistance and reliability metrics.

Examples:
  battcli detect /data/cell_58mAh
  battcli individual /data/cell_58mAh --cycles "1 50 100"
  battcli linked --manifest links.tsv --json --out reports/linked.json
  battcli reliability /data/cell_58mAh --manual-capacity 58`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       contracts.Version,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "application config file (default battcli.yaml if present)")
	pf.StringVar(&flags.analysisFile, "analysis", "", "analysis config YAML; flags given explicitly override it")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&flags.cyclerType, "cycler", "", "force cycler format (pne, toyo); detected per path when empty")
	pf.Float64Var(&flags.manualCapacity, "manual-capacity", 0, "fixed capacity basis in mAh; 0 resolves it from the data")
	pf.Float64Var(&flags.cRate, "crate", config.DefaultCRate, "C-rate used when resolving capacity from the data")
	pf.BoolVar(&flags.jsonOut, "json", false, "emit results as JSON instead of tables")
	pf.StringVarP(&flags.outFile, "out", "o", "", "write output to this file instead of stdout")

	root.AddCommand(
		newDetectCmd(flags),
		newCyclesCmd(flags),
		newIndividualCmd(flags),
		newLinkedCmd(flags),
		newReliabilityCmd(flags),
		newVersionCmd(flags),
	)
	return root
}

// withApp sets up configuration, logging and telemetry, runs fn and tears
// everything down again whatever fn returns
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *app) error) (err error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, cmd.ErrOrStderr(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &app{
		flags:     flags,
		cfg:       cfg,
		logger:    logger,
		providers: providers,
		files:     files.NewManager("", logger),
		out:       cmd.OutOrStdout(),
		start:     time.Now(),
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx := infrastructure.EnsureTraceID(cmd.Context())
	cmd.SetContext(ctx)
	logger.InfoContext(ctx, "command started",
		slog.String("command", cmd.Name()),
		slog.String("version", contracts.Version))
	return fn(ctx, a)
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.providers.MeterProvider != nil {
		if rm, err := infrastructure.NewRuntimeMetrics(a.providers.MeterProvider.Meter(infrastructure.InstrumentationName)); err == nil {
			stats := rm.Collect(ctx, a.start)
			a.logger.Debug("runtime stats",
				slog.Int64("goroutines", stats.Goroutines),
				slog.Int64("heap_bytes", stats.HeapBytes),
				slog.Duration("duration", stats.Duration))
		}
	}

	var metricsErr error
	if path := a.cfg.Telemetry.MetricsFile; path != "" && a.cfg.Telemetry.EnableMetrics {
		metricsErr = a.providers.WriteMetrics(path)
	}
	if err := a.providers.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	return metricsErr
}

func newVersionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := contracts.CurrentBuild()
			if !flags.jsonOut {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), b)
				return err
			}
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
