package monitor

import (
	"fmt"
	"sync"
	"time"

	"digital.vasic.apisuite/pkg/scenario"
)

// EventCollector captures scenario events and timing data.
type EventCollector struct {
	mu       sync.RWMutex
	events   []ScenarioEvent
	handlers []func(ScenarioEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics. Total counts
// finished scenarios only.
type CollectorStats struct {
	Started   int           `json:"started"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Errored   int           `json:"errored"`
	Skipped   int           `json:"skipped"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]ScenarioEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
// Handlers run synchronously on the emitting goroutine.
func (c *EventCollector) OnEvent(handler func(ScenarioEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event ScenarioEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventStarted:
		c.stats.Started++
	case EventPassed:
		c.stats.Total++
		c.stats.Passed++
	case EventFailed:
		c.stats.Total++
		c.stats.Failed++
	case EventErrored:
		c.stats.Total++
		c.stats.Errored++
	case EventSkipped:
		c.stats.Total++
		c.stats.Skipped++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(ScenarioEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitStarted emits a scenario started event.
func (c *EventCollector) EmitStarted(s scenario.Scenario) {
	c.Emit(ScenarioEvent{
		Type:       EventStarted,
		ScenarioID: s.ID(),
		Name:       s.Name(),
		Category:   s.Category(),
		Status:     "running",
	})
}

// EmitResult emits the terminal event for a finished scenario.
func (c *EventCollector) EmitResult(r *scenario.Result) {
	c.Emit(ScenarioEvent{
		Type:       eventTypeFor(r.Status),
		ScenarioID: r.ID,
		Name:       r.Name,
		Category:   r.Category,
		Status:     string(r.Status),
		Message:    resultMessage(r),
		Duration:   r.Duration,
		Metrics: map[string]any{
			"status_code": r.StatusCode,
			"elapsed_ms":  r.ElapsedMS,
		},
	})
}

// EmitRunFinished emits the end-of-run event with counts.
func (c *EventCollector) EmitRunFinished(counts scenario.Counts) {
	c.Emit(ScenarioEvent{
		Type: EventFinished,
		Metrics: map[string]any{
			"total":   counts.Total,
			"passed":  counts.Passed,
			"failed":  counts.Failed,
			"errored": counts.Errored,
			"skipped": counts.Skipped,
		},
	})
}

func resultMessage(r *scenario.Result) string {
	switch r.Status {
	case scenario.StatusError:
		return r.Error
	case scenario.StatusSkipped:
		return r.Reason
	case scenario.StatusFailed:
		failed := r.FailedExpectations()
		if len(failed) == 1 {
			return failed[0].Message
		}
		return fmt.Sprintf("%d expectations failed", len(failed))
	}
	return ""
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []ScenarioEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]ScenarioEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
