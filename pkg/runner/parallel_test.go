package runner

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/capture"
	"digital.vasic.apisuite/pkg/scenario"
)

// countingExecutor tracks the peak number of concurrent calls.
type countingExecutor struct {
	current atomic.Int64
	peak    atomic.Int64
	delay   time.Duration
}

func (e *countingExecutor) Execute(
	_ context.Context, s scenario.Scenario,
) (*capture.Response, error) {
	n := e.current.Add(1)
	defer e.current.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(e.delay)
	return capture.New(s.Method(), s.Path(), 200, http.Header{}, []byte(`{}`), e.delay), nil
}

func (e *countingExecutor) CurlCommand(scenario.Scenario) string { return "" }

func manyScenarios(n int) []scenario.Scenario {
	out := make([]scenario.Scenario, n)
	for i := range out {
		out[i] = scenario.New(fmt.Sprintf("scenario %02d", i)).
			Get(fmt.Sprintf("/api/users/%d", i)).
			Expect(assertion.StatusEquals(200)).MustBuild()
	}
	return out
}

func TestRunner_RunParallel_OrderAndLimit(t *testing.T) {
	exec := &countingExecutor{delay: 20 * time.Millisecond}
	r := NewRunner(exec)
	scenarios := manyScenarios(10)

	results := r.RunParallel(context.Background(), scenarios, 3)

	require.Len(t, results, 10)
	for i, res := range results {
		assert.Equal(t, scenarios[i].ID(), res.ID)
		assert.Equal(t, scenario.StatusPassed, res.Status)
	}
	assert.LessOrEqual(t, exec.peak.Load(), int64(3))
	assert.GreaterOrEqual(t, exec.peak.Load(), int64(2))
}

func TestRunner_RunParallel_ZeroConcurrencyIsSequential(t *testing.T) {
	exec := &countingExecutor{delay: 5 * time.Millisecond}
	results := NewRunner(exec).RunParallel(context.Background(), manyScenarios(4), 0)

	require.Len(t, results, 4)
	assert.Equal(t, int64(1), exec.peak.Load())
}

func TestRunner_RunParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewRunner(&countingExecutor{}).RunParallel(ctx, manyScenarios(5), 2)

	require.Len(t, results, 5)
	for _, res := range results {
		assert.Equal(t, scenario.StatusSkipped, res.Status)
	}
}

func TestRunner_RunAll_UsesConcurrency(t *testing.T) {
	exec := &countingExecutor{delay: 20 * time.Millisecond}
	results := NewRunner(exec, WithConcurrency(4)).RunAll(context.Background(), manyScenarios(8))

	require.Len(t, results, 8)
	assert.True(t, results.OK())
	assert.Greater(t, exec.peak.Load(), int64(1))
}
