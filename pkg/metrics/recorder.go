package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

type scenarioKey struct {
	id     string
	status string
}

type expectationKey struct {
	kind   string
	passed bool
}

// Recorder implements RunMetrics with mutex-protected
// in-memory counters.
type Recorder struct {
	mu           sync.Mutex
	scenarios    map[scenarioKey]int
	expectations map[expectationKey]int
	durations    map[string]time.Duration
	runTotal     int
	active       int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		scenarios:    make(map[scenarioKey]int),
		expectations: make(map[expectationKey]int),
		durations:    make(map[string]time.Duration),
	}
}

func (r *Recorder) RecordScenario(
	scenarioID, status string, duration time.Duration,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[scenarioKey{scenarioID, status}]++
	r.durations[scenarioID] += duration
}

func (r *Recorder) RecordExpectation(
	_ string, kind string, passed bool,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expectations[expectationKey{kind, passed}]++
}

func (r *Recorder) IncrementRunTotal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runTotal++
}

func (r *Recorder) SetActiveScenarios(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = count
}

// ScenarioCount returns the count for a scenario and status.
func (r *Recorder) ScenarioCount(scenarioID, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scenarios[scenarioKey{scenarioID, status}]
}

// ExpectationCount returns how many expectations of kind
// passed or failed.
func (r *Recorder) ExpectationCount(kind string, passed bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expectations[expectationKey{kind, passed}]
}

// RunTotal returns the total number of runs.
func (r *Recorder) RunTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runTotal
}

// ActiveScenarios returns the in-flight scenario gauge.
func (r *Recorder) ActiveScenarios() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// WritePrometheus writes all counters in the Prometheus text
// exposition format with deterministic ordering.
func (r *Recorder) WritePrometheus(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lines []string
	lines = append(lines,
		"# TYPE apisuite_runs_total counter",
		fmt.Sprintf("apisuite_runs_total %d", r.runTotal),
		"# TYPE apisuite_active_scenarios gauge",
		fmt.Sprintf("apisuite_active_scenarios %d", r.active),
		"# TYPE apisuite_scenarios_total counter",
	)

	skeys := make([]scenarioKey, 0, len(r.scenarios))
	for k := range r.scenarios {
		skeys = append(skeys, k)
	}
	sort.Slice(skeys, func(i, j int) bool {
		if skeys[i].id != skeys[j].id {
			return skeys[i].id < skeys[j].id
		}
		return skeys[i].status < skeys[j].status
	})
	for _, k := range skeys {
		lines = append(lines, fmt.Sprintf(
			"apisuite_scenarios_total{scenario=%q,status=%q} %d",
			k.id, k.status, r.scenarios[k],
		))
	}

	lines = append(lines, "# TYPE apisuite_scenario_duration_seconds_sum counter")
	ids := make([]string, 0, len(r.durations))
	for id := range r.durations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf(
			"apisuite_scenario_duration_seconds_sum{scenario=%q} %g",
			id, r.durations[id].Seconds(),
		))
	}

	lines = append(lines, "# TYPE apisuite_expectations_total counter")
	ekeys := make([]expectationKey, 0, len(r.expectations))
	for k := range r.expectations {
		ekeys = append(ekeys, k)
	}
	sort.Slice(ekeys, func(i, j int) bool {
		if ekeys[i].kind != ekeys[j].kind {
			return ekeys[i].kind < ekeys[j].kind
		}
		return !ekeys[i].passed && ekeys[j].passed
	})
	for _, k := range ekeys {
		lines = append(lines, fmt.Sprintf(
			"apisuite_expectations_total{kind=%q,passed=\"%t\"} %d",
			k.kind, k.passed, r.expectations[k],
		))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
