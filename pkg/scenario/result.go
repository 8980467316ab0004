package scenario

import (
	"time"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/capture"
)

// Status is the outcome of running one scenario.
type Status string

// Status constants for scenario outcomes.
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Result captures the complete outcome of one scenario run,
// including timing, the exchange and every expectation result.
type Result struct {
	// ID is the scenario identifier.
	ID ID `json:"id"`

	// Name is the human-readable scenario name.
	Name string `json:"name"`

	// Category is the report grouping.
	Category string `json:"category,omitempty"`

	// Status is one of the Status* constants.
	Status Status `json:"status"`

	// StartTime is when the run began.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the run finished.
	EndTime time.Time `json:"end_time"`

	// Duration is the wall-clock time of the whole run,
	// including evaluation.
	Duration time.Duration `json:"duration"`

	// Method and URL describe the request that was sent.
	Method string `json:"method"`
	URL    string `json:"url,omitempty"`

	// StatusCode is the HTTP status, zero on transport errors.
	StatusCode int `json:"status_code,omitempty"`

	// ElapsedMS is the response time in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`

	// Expectations holds every evaluated expectation, in
	// declaration order.
	Expectations []assertion.Result `json:"expectations"`

	// Error contains the transport error message when the
	// request could not complete.
	Error string `json:"error,omitempty"`

	// Reason explains a skipped scenario.
	Reason string `json:"reason,omitempty"`

	// Curl is a shell command reproducing the request.
	Curl string `json:"curl,omitempty"`

	// Response summarizes the response for verbose reports.
	Response *capture.Summary `json:"response,omitempty"`
}

// StatusFor derives a scenario status from its expectation
// results and transport error.
func StatusFor(results []assertion.Result, err error) Status {
	if err != nil {
		return StatusError
	}
	if assertion.AllPassed(results) {
		return StatusPassed
	}
	return StatusFailed
}

// Passed reports whether the scenario passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// FailedExpectations returns the failed expectation results.
func (r *Result) FailedExpectations() []assertion.Result {
	return assertion.Failures(r.Expectations)
}

// Skipped builds the result for a scenario that was not run.
func Skipped(s Scenario, reason string) *Result {
	now := time.Now()
	return &Result{
		ID:        s.ID(),
		Name:      s.Name(),
		Category:  s.Category(),
		Status:    StatusSkipped,
		StartTime: now,
		EndTime:   now,
		Method:    s.Method(),
		Reason:    reason,
	}
}

// Counts tallies results by status.
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// Results is an ordered collection of scenario results.
type Results []*Result

// Counts tallies the results by status.
func (rs Results) Counts() Counts {
	c := Counts{Total: len(rs)}
	for _, r := range rs {
		switch r.Status {
		case StatusPassed:
			c.Passed++
		case StatusFailed:
			c.Failed++
		case StatusError:
			c.Errored++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// OK reports whether no scenario failed or errored. Skipped
// scenarios do not affect the outcome.
func (rs Results) OK() bool {
	c := rs.Counts()
	return c.Failed == 0 && c.Errored == 0
}

// Failed returns the failed and errored results in order.
func (rs Results) Failed() Results {
	var out Results
	for _, r := range rs {
		if r.Status == StatusFailed || r.Status == StatusError {
			out = append(out, r)
		}
	}
	return out
}

// ByCategory groups results by category, preserving order
// within each group.
func (rs Results) ByCategory() map[string]Results {
	out := make(map[string]Results)
	for _, r := range rs {
		out[r.Category] = append(out[r.Category], r)
	}
	return out
}
