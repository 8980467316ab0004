// Package report renders the results of a scenario run: a
// colored console listing, JSON and JUnit XML documents, a
// Markdown summary and a JSON-lines history log.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"digital.vasic.apisuite/pkg/scenario"
)

// Run is one execution of a set of scenarios.
type Run struct {
	ID         string           `json:"run_id"`
	BaseURL    string           `json:"base_url"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    scenario.Results `json:"results"`
}

// NewRun records a finished run. An empty id is replaced by a
// random UUID.
func NewRun(
	id string,
	baseURL string,
	startedAt time.Time,
	results scenario.Results,
) *Run {
	if id == "" {
		id = uuid.NewString()
	}
	return &Run{
		ID:         id,
		BaseURL:    baseURL,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Results:    results,
	}
}

// Duration is the wall-clock time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts tallies the run's results by status.
func (r *Run) Counts() scenario.Counts {
	return r.Results.Counts()
}

// Reporter renders a run in one output format.
type Reporter interface {
	// Generate renders the run into memory.
	Generate(run *Run) ([]byte, error)

	// Write renders the run to w.
	Write(w io.Writer, run *Run) error
}

// WriteFile renders run with r into path, creating parent
// directories as needed.
func WriteFile(r Reporter, path string, run *Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := r.Generate(run)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// expectationCounts returns how many expectations passed and
// how many were evaluated.
func expectationCounts(r *scenario.Result) (passed, total int) {
	for _, e := range r.Expectations {
		if e.Passed {
			passed++
		}
	}
	return passed, len(r.Expectations)
}
