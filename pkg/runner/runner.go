// Package runner drives scenarios through the request executor
// and the expectation engine. It supports single, sequential
// and bounded-parallel execution with name filters, lifecycle
// hooks, metrics and live monitoring events.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/capture"
	"digital.vasic.apisuite/pkg/httpclient"
	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/metrics"
	"digital.vasic.apisuite/pkg/monitor"
	"digital.vasic.apisuite/pkg/scenario"
)

// DefaultMaxBody bounds the body kept in result summaries.
const DefaultMaxBody = 4096

// Executor sends a scenario's request. *httpclient.Executor
// satisfies it.
type Executor interface {
	Execute(ctx context.Context, s scenario.Scenario) (*capture.Response, error)
	CurlCommand(s scenario.Scenario) string
}

// Hook is a function invoked before or after a scenario runs.
type Hook func(ctx context.Context, s scenario.Scenario) error

// Runner is the standard scenario runner. It holds no per-run
// state beyond the in-flight gauge, so one Runner may serve
// concurrent calls.
type Runner struct {
	executor    Executor
	engine      assertion.Engine
	logger      logging.Logger
	metrics     metrics.RunMetrics
	collector   *monitor.EventCollector
	filters     Filters
	concurrency int
	verbose     bool
	maxBody     int
	preHooks    []Hook
	postHooks   []Hook
	active      atomic.Int64
}

// NewRunner creates a Runner around the executor.
func NewRunner(executor Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: executor,
		engine:   assertion.NewEngine(),
		logger:   logging.NullLogger{},
		metrics:  metrics.NoopMetrics{},
		maxBody:  DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll executes scenarios sequentially or, when concurrency
// is above one, in parallel. Results keep input order.
func (r *Runner) RunAll(
	ctx context.Context,
	scenarios []scenario.Scenario,
) scenario.Results {
	r.metrics.IncrementRunTotal()
	var results scenario.Results
	if r.concurrency > 1 {
		results = r.RunParallel(ctx, scenarios, r.concurrency)
	} else {
		results = r.RunSequence(ctx, scenarios)
	}
	if r.collector != nil {
		r.collector.EmitRunFinished(results.Counts())
	}
	return results
}

// RunSequence executes scenarios one after another. A failing
// scenario never stops the sequence; once ctx is done the
// remaining scenarios are reported as skipped.
func (r *Runner) RunSequence(
	ctx context.Context,
	scenarios []scenario.Scenario,
) scenario.Results {
	results := make(scenario.Results, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			results = append(results, r.skip(s, "run cancelled"))
			continue
		}
		results = append(results, r.Run(ctx, s))
	}
	return results
}

// Run executes one scenario: filter, pre-hooks, request,
// exhaustive evaluation, post-hooks. It always returns a
// result; transport failures become StatusError.
func (r *Runner) Run(
	ctx context.Context,
	s scenario.Scenario,
) *scenario.Result {
	if ok, reason := r.filters.Allow(s); !ok {
		return r.skip(s, reason)
	}

	log := r.logger.WithFields(
		logging.ScenarioField(s.Name()),
		logging.StringField("scenario_id", string(s.ID())),
	)
	result := &scenario.Result{
		ID:        s.ID(),
		Name:      s.Name(),
		Category:  s.Category(),
		Method:    s.Method(),
		StartTime: time.Now(),
	}

	r.metrics.SetActiveScenarios(int(r.active.Add(1)))
	defer func() {
		r.metrics.SetActiveScenarios(int(r.active.Add(-1)))
	}()
	if r.collector != nil {
		r.collector.EmitStarted(s)
	}
	log.Debug("scenario_started",
		logging.StringField("method", s.Method()),
		logging.StringField("path", s.Path()),
	)

	for _, hook := range r.preHooks {
		if err := hook(ctx, s); err != nil {
			result.Status = scenario.StatusError
			result.Error = fmt.Sprintf("pre-hook failed: %v", err)
			return r.finish(log, s, result)
		}
	}

	resp, err := r.executor.Execute(ctx, s)
	if err != nil {
		result.Status = scenario.StatusError
		result.Error = err.Error()
		var terr *httpclient.TransportError
		if errors.As(err, &terr) {
			result.URL = terr.URL
		}
		result.Curl = r.executor.CurlCommand(s)
		return r.finish(log, s, result)
	}

	result.URL = resp.URL()
	result.StatusCode = resp.StatusCode()
	result.ElapsedMS = resp.Elapsed().Milliseconds()
	result.Expectations = r.engine.EvaluateAll(s.Expectations(), resp)
	result.Status = scenario.StatusFor(result.Expectations, nil)
	for _, e := range result.Expectations {
		r.metrics.RecordExpectation(string(s.ID()), string(e.Kind), e.Passed)
	}

	if !result.Passed() {
		result.Curl = r.executor.CurlCommand(s)
	}
	if !result.Passed() || r.verbose {
		summary := resp.Summarize(r.maxBody)
		result.Response = &summary
	}

	for _, hook := range r.postHooks {
		if err := hook(ctx, s); err != nil {
			log.Warn("post_hook_warning", logging.ErrorField(err))
		}
	}

	return r.finish(log, s, result)
}

func (r *Runner) finish(
	log logging.Logger,
	s scenario.Scenario,
	result *scenario.Result,
) *scenario.Result {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.metrics.RecordScenario(string(s.ID()), string(result.Status), result.Duration)
	if r.collector != nil {
		r.collector.EmitResult(result)
	}

	fields := []logging.Field{
		logging.StringField("status", string(result.Status)),
		logging.DurationField("duration", result.Duration),
	}
	if result.StatusCode != 0 {
		fields = append(fields,
			logging.IntField("status_code", result.StatusCode),
			logging.Int64Field("elapsed_ms", result.ElapsedMS),
		)
	}

	switch result.Status {
	case scenario.StatusError:
		log.Error("scenario_error",
			append(fields, logging.StringField("error", result.Error))...)
	case scenario.StatusFailed:
		for _, f := range result.FailedExpectations() {
			log.Warn("expectation_failed",
				logging.StringField("expectation", f.Description),
				logging.StringField("failure", string(f.Failure)),
				logging.StringField("message", f.Message),
			)
		}
		log.Warn("scenario_failed", fields...)
	default:
		log.Info("scenario_completed", fields...)
	}
	return result
}

func (r *Runner) skip(s scenario.Scenario, reason string) *scenario.Result {
	result := scenario.Skipped(s, reason)
	r.metrics.RecordScenario(string(s.ID()), string(result.Status), 0)
	if r.collector != nil {
		r.collector.EmitResult(result)
	}
	r.logger.Debug("scenario_skipped",
		logging.ScenarioField(s.Name()),
		logging.StringField("reason", reason),
	)
	return result
}
