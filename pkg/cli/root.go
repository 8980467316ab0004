// Package cli implements the apisuite command line: run, list
// and validate scenarios against an HTTP API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"digital.vasic.apisuite/pkg/config"
	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/registry"
	"digital.vasic.apisuite/pkg/runner"
	"digital.vasic.apisuite/pkg/scenario"
	"digital.vasic.apisuite/pkg/suites/reqres"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// Version is injected during build.
var Version = "dev"

// ExitError carries a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// App holds the command line state shared by all commands.
type App struct {
	stdout io.Writer
	stderr io.Writer

	// BuiltIn supplies the scenarios run unless --no-builtin
	// is given.
	BuiltIn func() []scenario.Scenario

	configPath  string
	envFile     string
	baseURL     string
	timeout     time.Duration
	verbose     bool
	noColor     bool
	noBuiltin   bool
	scenarios   []string
	runFilter   runner.RegexList
	skipFilter  runner.RegexList
	concurrency int
	reportDir   string
	junitPath   string
	jsonPath    string
	historyPath string
	monitorAddr string
}

// NewApp creates the command line application writing to the
// given streams.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		stdout:  stdout,
		stderr:  stderr,
		BuiltIn: reqres.Scenarios,
	}
}

// Execute runs the command line and returns the exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Anything cobra rejects before RunE is a usage problem.
	return ExitUsage
}

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "apisuite",
		Short: "apisuite runs declarative HTTP scenarios and checks their responses",
		Long: `apisuite sends the requests described by scenarios to an HTTP API and
evaluates every expectation against the responses: status codes, JSON
fields, headers, body text and response times.

The reqres.in suite is built in. More scenarios can be loaded from YAML
or JSON files with --scenarios.

Configuration is read from apisuite.yaml, then APISUITE_* environment
variables (also from .env), then flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultFile, "Config file (optional when left at the default)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded when present")
	pf.StringVar(&a.baseURL, "base-url", "", "Base URL of the API under test")
	pf.DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (e.g. 10s)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output and response summaries")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&a.noBuiltin, "no-builtin", false, "Do not include the built-in reqres.in suite")
	pf.StringSliceVar(&a.scenarios, "scenarios", nil, "Scenario file globs (** supported)")
	pf.Var(&a.runFilter, "run", "Run only scenarios matching this regex (repeatable)")
	pf.Var(&a.skipFilter, "skip", "Skip scenarios matching this regex (repeatable)")

	root.AddCommand(a.runCommand(), a.listCommand(), a.validateCommand())
	return root
}

func (a *App) colored() bool {
	return !a.noColor && !color.NoColor
}

// loadConfig layers the config file, the environment and the
// flags that were set explicitly.
func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := env.NewLoader()
	if err := loader.LoadIfExists(a.envFile); err != nil {
		return nil, usageError(err)
	}

	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(a.configPath, loader)
	} else {
		cfg, err = config.LoadOptional(a.configPath, loader)
	}
	if err != nil {
		return nil, usageError(err)
	}
	if err := cfg.ApplyEnv(loader); err != nil {
		return nil, usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Changed("scenarios") {
		cfg.Scenarios = a.scenarios
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = a.concurrency
	}
	if flags.Changed("report-dir") {
		cfg.ReportDir = a.reportDir
	}
	if flags.Changed("junit") {
		cfg.JUnit = a.junitPath
	}
	if flags.Changed("json") {
		cfg.JSON = a.jsonPath
	}
	if flags.Changed("history") {
		cfg.History = a.historyPath
	}
	if flags.Changed("monitor-addr") {
		cfg.MonitorAddr = a.monitorAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageError(fmt.Errorf("invalid configuration: %w", err))
	}
	return cfg, nil
}

// filters returns the config filters, replaced by the --run and
// --skip flags when given.
func (a *App) filters(cfg *config.Config) (runner.Filters, error) {
	f, err := cfg.Filters()
	if err != nil {
		return runner.Filters{}, usageError(err)
	}
	if a.runFilter.IsDefined() {
		f.Run = a.runFilter
	}
	if a.skipFilter.IsDefined() {
		f.Skip = a.skipFilter
	}
	return f, nil
}

// loadScenarios registers the built-in suite and every scenario
// file matched by the config globs.
func (a *App) loadScenarios(cfg *config.Config) (*registry.DefaultRegistry, error) {
	reg := registry.NewRegistry()
	if !a.noBuiltin && a.BuiltIn != nil {
		if err := registry.RegisterAll(reg, a.BuiltIn()...); err != nil {
			return nil, usageError(err)
		}
	}
	if len(cfg.Scenarios) > 0 {
		if _, err := registry.LoadInto(reg, cfg.Scenarios...); err != nil {
			return nil, usageError(err)
		}
	}
	if reg.Count() == 0 {
		return nil, usageError(errors.New("no scenarios to run"))
	}
	return reg, nil
}
