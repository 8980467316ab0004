package runner

import (
	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/metrics"
	"digital.vasic.apisuite/pkg/monitor"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEngine sets the expectation engine. The default engine
// has every built-in kind registered.
func WithEngine(engine assertion.Engine) RunnerOption {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithLogger sets the logger used by the runner.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.RunMetrics) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithCollector publishes lifecycle events to c.
func WithCollector(c *monitor.EventCollector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithFilters restricts which scenarios run. Scenarios that do
// not match are reported as skipped.
func WithFilters(f Filters) RunnerOption {
	return func(r *Runner) {
		r.filters = f
	}
}

// WithConcurrency sets the worker count used by RunAll. Values
// below two run scenarios sequentially.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithVerbose attaches a response summary to every result, not
// only to failed ones.
func WithVerbose(verbose bool) RunnerOption {
	return func(r *Runner) {
		r.verbose = verbose
	}
}

// WithMaxBody bounds the response body kept in result
// summaries.
func WithMaxBody(n int) RunnerOption {
	return func(r *Runner) {
		r.maxBody = n
	}
}

// WithPreHook adds a pre-execution hook to the runner.
func WithPreHook(h Hook) RunnerOption {
	return func(r *Runner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithPostHook adds a post-execution hook to the runner.
func WithPostHook(h Hook) RunnerOption {
	return func(r *Runner) {
		r.postHooks = append(r.postHooks, h)
	}
}
