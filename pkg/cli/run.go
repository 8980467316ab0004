package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"digital.vasic.apisuite/pkg/config"
	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/httpclient"
	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/metrics"
	"digital.vasic.apisuite/pkg/monitor"
	"digital.vasic.apisuite/pkg/report"
	"digital.vasic.apisuite/pkg/runner"
)

// errScenariosFailed is returned when at least one scenario
// failed or errored.
var errScenariosFailed = errors.New("scenarios failed")

func (a *App) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios and report the results",
		Long: `Run every selected scenario against the base URL, print a console
report and write the configured JSON, JUnit, Markdown and history reports.

Exit status is 0 when every scenario passed, 1 when any failed or
errored and 2 for usage or configuration errors.`,
		Args: cobra.NoArgs,
		RunE: a.run,
	}

	f := cmd.Flags()
	f.IntVarP(&a.concurrency, "concurrency", "p", config.DefaultConcurrency, "Scenarios run at once")
	f.StringVar(&a.reportDir, "report-dir", config.DefaultReportDir, "Directory for the Markdown summary and logs")
	f.StringVar(&a.junitPath, "junit", "", "Write a JUnit XML report to this path")
	f.StringVar(&a.jsonPath, "json", "", "Write a JSON report to this path")
	f.StringVar(&a.historyPath, "history", "", "Append results to this JSON-lines history file")
	f.StringVar(&a.monitorAddr, "monitor-addr", "", "Serve the live dashboard on this address (e.g. :8090)")
	return cmd
}

func (a *App) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	filters, err := a.filters(cfg)
	if err != nil {
		return err
	}
	reg, err := a.loadScenarios(cfg)
	if err != nil {
		return err
	}

	logger, err := a.setupLogger(cfg)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	defer logger.Close()

	runID := uuid.NewString()
	logger = logger.WithFields(logging.StringField("run_id", runID))
	logger.Info("Starting run",
		logging.StringField("base_url", env.RedactURL(cfg.BaseURL)),
		logging.IntField("scenarios", reg.Count()),
		logging.StringField("filters", filters.Describe()),
	)

	recorder := metrics.NewRecorder()
	collector := monitor.NewEventCollector()

	if cfg.MonitorAddr != "" {
		stop, err := a.startMonitor(ctx, cfg.MonitorAddr, runID, collector, recorder, logger)
		if err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		defer stop()
	}

	execOpts := []httpclient.Option{httpclient.WithLogger(logger)}
	if cfg.Verbose {
		// Verbose runs log whole response bodies.
		execOpts = append(execOpts, httpclient.WithPreviewLimit(0))
	}
	executor, err := httpclient.NewExecutor(
		httpclient.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Headers: cfg.HTTPHeaders(),
		},
		execOpts...,
	)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	r := runner.NewRunner(executor,
		runner.WithLogger(logger),
		runner.WithMetrics(recorder),
		runner.WithCollector(collector),
		runner.WithFilters(filters),
		runner.WithConcurrency(cfg.Concurrency),
		runner.WithVerbose(cfg.Verbose),
	)

	started := time.Now()
	results := r.RunAll(ctx, reg.List())
	run := report.NewRun(runID, env.RedactURL(cfg.BaseURL), started, results)

	counts := run.Counts()
	logger.Info("Run finished",
		logging.IntField("passed", counts.Passed),
		logging.IntField("failed", counts.Failed),
		logging.IntField("errored", counts.Errored),
		logging.IntField("skipped", counts.Skipped),
		logging.DurationField("duration", run.Duration()),
	)

	if err := a.writeReports(cfg, run, logger); err != nil {
		return &ExitError{Code: ExitFailed, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return &ExitError{Code: ExitFailed, Err: fmt.Errorf("run cancelled: %w", err)}
	}
	if !results.OK() {
		return &ExitError{Code: ExitFailed, Err: errScenariosFailed}
	}
	return nil
}

// setupLogger combines the run log files with a console logger
// on stderr and masks configured secrets in both.
func (a *App) setupLogger(cfg *config.Config) (logging.Logger, error) {
	fileLogger, err := logging.SetupLogging(cfg.LogDir(), cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	var console logging.Logger
	if cfg.Verbose {
		console = logging.NewConsoleLoggerTo(a.stderr, true, a.colored())
	}
	return logging.NewRedactingLogger(
		logging.NewMultiLogger(fileLogger, console),
		cfg.Secrets()...,
	), nil
}

func (a *App) startMonitor(
	ctx context.Context,
	addr string,
	runID string,
	collector *monitor.EventCollector,
	recorder *metrics.Recorder,
	logger logging.Logger,
) (func(), error) {
	srv := monitor.NewServer(addr, collector, monitor.NewDashboardData(runID),
		monitor.WithMetrics(recorder),
		monitor.WithServerLogger(logger),
	)
	if err := srv.Listen(); err != nil {
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(serveCtx); err != nil {
			logger.Error("Monitor server stopped", logging.ErrorField(err))
		}
	}()

	fmt.Fprintf(a.stderr, "Monitor: http://%s/dashboard\n", srv.Addr())
	logger.Info("Monitor listening", logging.StringField("addr", srv.Addr()))

	return func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Stop(shutdownCtx); err != nil && ctx.Err() == nil {
			logger.Warn("Monitor shutdown", logging.ErrorField(err))
		}
		cancel()
		<-done
	}, nil
}

// writeReports prints the console report and writes every
// configured file report. A broken report never hides the
// others.
func (a *App) writeReports(
	cfg *config.Config,
	run *report.Run,
	logger logging.Logger,
) error {
	var errs []error

	console := report.NewConsoleReporter(a.colored(), cfg.Verbose)
	if err := console.Write(a.stdout, run); err != nil {
		errs = append(errs, err)
	}

	if cfg.JSON != "" {
		if err := report.WriteFile(report.NewJSONReporter(true), cfg.JSON, run); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("JSON report written", logging.StringField("path", cfg.JSON))
		}
	}

	if cfg.JUnit != "" {
		hostname, _ := os.Hostname()
		if err := report.WriteFile(report.NewJUnitReporter("apisuite", hostname), cfg.JUnit, run); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("JUnit report written", logging.StringField("path", cfg.JUnit))
		}
	}

	if path, err := report.SaveSummary(report.BuildSummary(run), cfg.ReportDir); err != nil {
		errs = append(errs, err)
	} else {
		logger.Info("Summary written", logging.StringField("path", path))
	}

	if cfg.History != "" {
		if err := report.AppendToHistory(cfg.History, run); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
