package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/scenario"
)

// RunSummary is an aggregated view of a run, saved as JSON and
// Markdown.
type RunSummary struct {
	ID            string            `json:"id"`
	RunID         string            `json:"run_id"`
	BaseURL       string            `json:"base_url"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Scenarios     []ScenarioSummary `json:"scenarios"`
	Counts        scenario.Counts   `json:"counts"`
	TotalDuration time.Duration     `json:"total_duration"`
	PassRate      float64           `json:"pass_rate"`
}

// ScenarioSummary is the summary line of one scenario.
type ScenarioSummary struct {
	ScenarioID         scenario.ID        `json:"scenario_id"`
	Name               string             `json:"name"`
	Category           string             `json:"category,omitempty"`
	Status             scenario.Status    `json:"status"`
	ElapsedMS          int64              `json:"elapsed_ms"`
	ExpectationsPassed int                `json:"expectations_passed"`
	ExpectationsTotal  int                `json:"expectations_total"`
	Error              string             `json:"error,omitempty"`
	Failures           []assertion.Result `json:"failures,omitempty"`
}

// BuildSummary creates a summary from a run. The pass rate is
// computed over scenarios that were not skipped.
func BuildSummary(run *Run) *RunSummary {
	summary := &RunSummary{
		ID: fmt.Sprintf(
			"summary_%s",
			run.FinishedAt.Format("20060102_150405"),
		),
		RunID:         run.ID,
		BaseURL:       run.BaseURL,
		GeneratedAt:   time.Now(),
		Scenarios:     make([]ScenarioSummary, 0, len(run.Results)),
		Counts:        run.Counts(),
		TotalDuration: run.Duration(),
	}

	for _, r := range run.Results {
		passed, total := expectationCounts(r)
		summary.Scenarios = append(summary.Scenarios, ScenarioSummary{
			ScenarioID:         r.ID,
			Name:               r.Name,
			Category:           r.Category,
			Status:             r.Status,
			ElapsedMS:          r.ElapsedMS,
			ExpectationsPassed: passed,
			ExpectationsTotal:  total,
			Error:              r.Error,
			Failures:           r.FailedExpectations(),
		})
	}

	if ran := summary.Counts.Total - summary.Counts.Skipped; ran > 0 {
		summary.PassRate = float64(summary.Counts.Passed) / float64(ran)
	}
	return summary
}

// SaveSummary saves the summary to both JSON and Markdown files
// in outputDir and points latest_summary.{json,md} at them. It
// returns the Markdown path.
func SaveSummary(
	summary *RunSummary,
	outputDir string,
) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	jsonPath := filepath.Join(outputDir, summary.ID+".json")
	jsonData, err := jsonMarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf(
			"failed to marshal summary: %w", err,
		)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf(
			"failed to write JSON summary: %w", err,
		)
	}

	mdPath := filepath.Join(outputDir, summary.ID+".md")
	if err := os.WriteFile(
		mdPath, []byte(SummaryMarkdown(summary)), 0644,
	); err != nil {
		return "", fmt.Errorf(
			"failed to write Markdown summary: %w", err,
		)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")

	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return mdPath, nil
}

// SummaryMarkdown renders a summary as Markdown: an overview
// table of every scenario, run statistics and the expected and
// observed values of each failed expectation.
func SummaryMarkdown(summary *RunSummary) string {
	var sb strings.Builder

	sb.WriteString("# API Suite Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", summary.RunID)
	if summary.BaseURL != "" {
		fmt.Fprintf(&sb, "**Base URL:** %s\n\n", summary.BaseURL)
	}
	fmt.Fprintf(&sb, "**Generated:** %s\n\n",
		summary.GeneratedAt.Format(time.RFC3339))

	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Scenario | Category | Status | Time | Expectations |\n")
	sb.WriteString("|----------|----------|--------|------|--------------|\n")
	for _, s := range summary.Scenarios {
		fmt.Fprintf(&sb, "| %s | %s | %s | %dms | %d/%d |\n",
			mdEscape(s.Name), mdEscape(s.Category),
			strings.ToUpper(string(s.Status)), s.ElapsedMS,
			s.ExpectationsPassed, s.ExpectationsTotal)
	}

	c := summary.Counts
	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total Scenarios | %d |\n", c.Total)
	fmt.Fprintf(&sb, "| Passed | %d |\n", c.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", c.Failed)
	fmt.Fprintf(&sb, "| Errored | %d |\n", c.Errored)
	fmt.Fprintf(&sb, "| Skipped | %d |\n", c.Skipped)
	fmt.Fprintf(&sb, "| Pass Rate | %.0f%% |\n", summary.PassRate*100)
	fmt.Fprintf(&sb, "| Total Duration | %v |\n",
		summary.TotalDuration.Round(time.Millisecond))

	var failures []ScenarioSummary
	for _, s := range summary.Scenarios {
		if s.Status == scenario.StatusFailed || s.Status == scenario.StatusError {
			failures = append(failures, s)
		}
	}
	if len(failures) > 0 {
		sb.WriteString("\n## Failures\n")
		for _, s := range failures {
			fmt.Fprintf(&sb, "\n### %s\n\n", s.Name)
			if s.Error != "" {
				fmt.Fprintf(&sb, "- transport error: `%s`\n", s.Error)
			}
			for _, f := range s.Failures {
				fmt.Fprintf(&sb, "- %s: expected `%v`, observed `%v`\n",
					f.Description, f.Expected, f.Actual)
			}
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString("*Generated by apisuite*\n")

	return sb.String()
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// MarkdownReporter renders a run as its Markdown summary.
type MarkdownReporter struct{}

// NewMarkdownReporter creates a Markdown reporter.
func NewMarkdownReporter() *MarkdownReporter {
	return &MarkdownReporter{}
}

// Generate renders the Markdown summary of a run.
func (r *MarkdownReporter) Generate(run *Run) ([]byte, error) {
	return []byte(SummaryMarkdown(BuildSummary(run))), nil
}

// Write writes the Markdown summary to w.
func (r *MarkdownReporter) Write(w io.Writer, run *Run) error {
	_, err := io.WriteString(w, SummaryMarkdown(BuildSummary(run)))
	return err
}
