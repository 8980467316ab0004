// Package monitor streams scenario lifecycle events to live
// dashboards over WebSocket and server-sent events.
package monitor

import (
	"time"

	"digital.vasic.apisuite/pkg/scenario"
)

// EventType represents the type of scenario event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventPassed   EventType = "passed"
	EventFailed   EventType = "failed"
	EventErrored  EventType = "error"
	EventSkipped  EventType = "skipped"
	EventFinished EventType = "run_finished"
)

// ScenarioEvent represents a lifecycle event during a run.
type ScenarioEvent struct {
	Type       EventType      `json:"type"`
	ScenarioID scenario.ID    `json:"scenario_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Category   string         `json:"category,omitempty"`
	Status     string         `json:"status,omitempty"`
	Message    string         `json:"message,omitempty"`
	Duration   time.Duration  `json:"duration,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

// eventTypeFor maps a scenario status to its terminal event.
func eventTypeFor(status scenario.Status) EventType {
	switch status {
	case scenario.StatusPassed:
		return EventPassed
	case scenario.StatusFailed:
		return EventFailed
	case scenario.StatusSkipped:
		return EventSkipped
	default:
		return EventErrored
	}
}
