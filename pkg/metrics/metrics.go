// Package metrics records run counters for scenarios and
// expectations and renders them in the Prometheus text format.
package metrics

import "time"

// RunMetrics defines the interface for recording run metrics.
type RunMetrics interface {
	// RecordScenario records a finished scenario.
	RecordScenario(scenarioID, status string, duration time.Duration)
	// RecordExpectation records an expectation evaluation.
	RecordExpectation(scenarioID, kind string, passed bool)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetActiveScenarios sets the gauge of in-flight scenarios.
	SetActiveScenarios(count int)
}

// NoopMetrics is a no-op implementation of RunMetrics useful
// when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordScenario(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordExpectation(_, _ string, _ bool)      {}
func (NoopMetrics) IncrementRunTotal()                         {}
func (NoopMetrics) SetActiveScenarios(_ int)                   {}
