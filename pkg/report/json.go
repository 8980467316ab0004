package report

import (
	"encoding/json"
	"io"
	"time"

	"digital.vasic.apisuite/pkg/scenario"
)

// jsonMarshal and jsonMarshalIndent are variables for
// dependency injection in tests.
var (
	jsonMarshal       = json.Marshal
	jsonMarshalIndent = json.MarshalIndent
)

// JSONReporter renders a run as a single JSON document.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

// jsonRun is the JSON structure for a run report.
type jsonRun struct {
	RunID       string           `json:"run_id"`
	BaseURL     string           `json:"base_url"`
	GeneratedAt time.Time        `json:"generated_at"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	DurationMS  int64            `json:"duration_ms"`
	OK          bool             `json:"ok"`
	Counts      scenario.Counts  `json:"counts"`
	Results     scenario.Results `json:"results"`
}

// Generate creates the JSON report for a run.
func (r *JSONReporter) Generate(run *Run) ([]byte, error) {
	doc := jsonRun{
		RunID:       run.ID,
		BaseURL:     run.BaseURL,
		GeneratedAt: time.Now(),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		DurationMS:  run.Duration().Milliseconds(),
		OK:          run.Results.OK(),
		Counts:      run.Counts(),
		Results:     run.Results,
	}
	if doc.Results == nil {
		doc.Results = scenario.Results{}
	}

	if r.pretty {
		return jsonMarshalIndent(doc, "", "  ")
	}
	return jsonMarshal(doc)
}

// Write writes the JSON report to w.
func (r *JSONReporter) Write(w io.Writer, run *Run) error {
	data, err := r.Generate(run)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
