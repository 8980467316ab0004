package monitor

import (
	"sync"
	"time"

	"digital.vasic.apisuite/pkg/scenario"
)

// DashboardData provides a real-time snapshot of run state.
type DashboardData struct {
	mu        sync.RWMutex
	RunID     string                        `json:"run_id"`
	StartTime time.Time                     `json:"start_time"`
	Status    string                        `json:"status"` // running, completed, failed
	Scenarios map[scenario.ID]ScenarioState `json:"scenarios"`
	Summary   DashboardSummary              `json:"summary"`
}

// ScenarioState represents the current state of a scenario in
// the dashboard.
type ScenarioState struct {
	ID        scenario.ID   `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category,omitempty"`
	Status    string        `json:"status"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errored  int     `json:"errored"`
	Skipped  int     `json:"skipped"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard data instance.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		RunID:     runID,
		StartTime: time.Now(),
		Status:    "running",
		Scenarios: make(map[scenario.ID]ScenarioState),
	}
}

// UpdateFromEvent updates dashboard state from an event.
func (d *DashboardData) UpdateFromEvent(event ScenarioEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.Type == EventFinished {
		d.Status = "completed"
		if n, _ := event.Metrics["failed"].(int); n > 0 {
			d.Status = "failed"
		}
		if n, _ := event.Metrics["errored"].(int); n > 0 {
			d.Status = "failed"
		}
		d.recalcSummary()
		return
	}

	now := time.Now()
	state, exists := d.Scenarios[event.ScenarioID]
	if !exists {
		state = ScenarioState{
			ID:       event.ScenarioID,
			Name:     event.Name,
			Category: event.Category,
		}
	}

	switch event.Type {
	case EventStarted:
		state.Status = "running"
		state.StartTime = &now
	case EventPassed, EventFailed, EventErrored:
		state.Status = event.Status
		state.EndTime = &now
		state.Duration = event.Duration
		state.Message = event.Message
	case EventSkipped:
		state.Status = "skipped"
		state.Message = event.Message
	}

	d.Scenarios[event.ScenarioID] = state
	d.recalcSummary()
}

func (d *DashboardData) recalcSummary() {
	s := DashboardSummary{}
	for _, sc := range d.Scenarios {
		s.Total++
		switch sc.Status {
		case "passed":
			s.Passed++
		case "failed":
			s.Failed++
		case "error":
			s.Errored++
		case "skipped":
			s.Skipped++
		case "running":
			s.Running++
		}
	}
	if completed := s.Passed + s.Failed + s.Errored; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(d.StartTime).Round(time.Millisecond).String()
	d.Summary = s
}

// DashboardSnapshot is an immutable copy of DashboardData.
type DashboardSnapshot struct {
	RunID     string                        `json:"run_id"`
	StartTime time.Time                     `json:"start_time"`
	Status    string                        `json:"status"`
	Scenarios map[scenario.ID]ScenarioState `json:"scenarios"`
	Summary   DashboardSummary              `json:"summary"`
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := DashboardSnapshot{
		RunID:     d.RunID,
		StartTime: d.StartTime,
		Status:    d.Status,
		Scenarios: make(map[scenario.ID]ScenarioState, len(d.Scenarios)),
		Summary:   d.Summary,
	}
	for k, v := range d.Scenarios {
		snap.Scenarios[k] = v
	}
	return snap
}

// SetStatus sets the overall run status.
func (d *DashboardData) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Status = status
}

// BuildDashboardData creates a DashboardData from an
// EventCollector by replaying all collected events.
func BuildDashboardData(
	runID string,
	collector *EventCollector,
) *DashboardData {
	data := NewDashboardData(runID)
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
