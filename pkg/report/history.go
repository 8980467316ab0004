package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoricalEntry represents a single scenario run in the
// historical log.
type HistoricalEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	RunID              string    `json:"run_id"`
	ScenarioID         string    `json:"scenario_id"`
	Status             string    `json:"status"`
	ElapsedMS          int64     `json:"elapsed_ms"`
	Duration           string    `json:"duration"`
	ExpectationsPassed int       `json:"expectations_passed"`
	ExpectationsTotal  int       `json:"expectations_total"`
}

// AppendToHistory adds one entry per scenario of run to the
// historical log stored at historyPath. Each entry is a single
// JSON line.
func AppendToHistory(
	historyPath string,
	run *Run,
) error {
	lines := make([][]byte, 0, len(run.Results))
	for _, r := range run.Results {
		passed, total := expectationCounts(r)
		timestamp := r.EndTime
		if timestamp.IsZero() {
			timestamp = run.FinishedAt
		}
		data, err := jsonMarshal(HistoricalEntry{
			Timestamp:          timestamp,
			RunID:              run.ID,
			ScenarioID:         string(r.ID),
			Status:             string(r.Status),
			ElapsedMS:          r.ElapsedMS,
			Duration:           r.Duration.String(),
			ExpectationsPassed: passed,
			ExpectationsTotal:  total,
		})
		if err != nil {
			return fmt.Errorf(
				"failed to marshal history entry: %w", err,
			)
		}
		lines = append(lines, data)
	}

	if err := os.MkdirAll(filepath.Dir(historyPath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	for _, line := range lines {
		if _, err := fmt.Fprintln(file, string(line)); err != nil {
			return err
		}
	}
	return nil
}

// LoadHistory reads every entry of a history log. A missing
// file yields no entries.
func LoadHistory(historyPath string) ([]HistoricalEntry, error) {
	file, err := os.Open(historyPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []HistoricalEntry
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e HistoricalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// PassRateByScenario returns, per scenario, the share of
// recorded runs that passed.
func PassRateByScenario(entries []HistoricalEntry) map[string]float64 {
	runs := make(map[string]int)
	passes := make(map[string]int)
	for _, e := range entries {
		runs[e.ScenarioID]++
		if e.Status == "passed" {
			passes[e.ScenarioID]++
		}
	}
	out := make(map[string]float64, len(runs))
	for id, n := range runs {
		out[id] = float64(passes[id]) / float64(n)
	}
	return out
}
