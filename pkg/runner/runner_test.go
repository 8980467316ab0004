package runner

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/capture"
	"digital.vasic.apisuite/pkg/httpclient"
	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/metrics"
	"digital.vasic.apisuite/pkg/monitor"
	"digital.vasic.apisuite/pkg/scenario"
)

// stubExecutor answers every request with a fixed response or
// error.
type stubExecutor struct {
	status int
	body   string
	delay  time.Duration
	err    error
	calls  chan string
}

func (e *stubExecutor) Execute(
	ctx context.Context, s scenario.Scenario,
) (*capture.Response, error) {
	if e.calls != nil {
		e.calls <- s.Name()
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, &httpclient.TransportError{Method: s.Method(), URL: s.Path(), Err: ctx.Err()}
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return capture.New(
		s.Method(), "http://stub"+s.Path(), e.status,
		http.Header{"Content-Type": {"application/json"}},
		[]byte(e.body), 5*time.Millisecond,
	), nil
}

func (e *stubExecutor) CurlCommand(s scenario.Scenario) string {
	return "curl " + s.Path()
}

func okScenario(name string) scenario.Scenario {
	return scenario.New(name).Category("users").Get("/api/users/2").
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldEquals("data.id", 2),
		).MustBuild()
}

func TestRunner_Run_Passed(t *testing.T) {
	r := NewRunner(&stubExecutor{status: 200, body: `{"data":{"id":2}}`})

	result := r.Run(context.Background(), okScenario("single user"))

	assert.Equal(t, scenario.StatusPassed, result.Status)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, int64(5), result.ElapsedMS)
	assert.Equal(t, "http://stub/api/users/2", result.URL)
	assert.Len(t, result.Expectations, 2)
	assert.Empty(t, result.Curl)
	assert.Nil(t, result.Response)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRunner_Run_FailedEvaluatesExhaustively(t *testing.T) {
	r := NewRunner(&stubExecutor{status: 404, body: `{}`})

	result := r.Run(context.Background(), okScenario("single user"))

	assert.Equal(t, scenario.StatusFailed, result.Status)
	require.Len(t, result.Expectations, 2)
	assert.Equal(t, assertion.FailureStatusMismatch, result.Expectations[0].Failure)
	assert.Equal(t, assertion.FailureFieldAbsent, result.Expectations[1].Failure)
	assert.Equal(t, "curl /api/users/2", result.Curl)
	require.NotNil(t, result.Response)
	assert.Equal(t, 404, result.Response.StatusCode)
}

func TestRunner_Run_TransportError(t *testing.T) {
	terr := &httpclient.TransportError{
		Method: "GET", URL: "http://down/api/users/2", Err: errors.New("connection refused"),
	}
	r := NewRunner(&stubExecutor{err: terr})

	result := r.Run(context.Background(), okScenario("single user"))

	assert.Equal(t, scenario.StatusError, result.Status)
	assert.Contains(t, result.Error, "connection refused")
	assert.Equal(t, "http://down/api/users/2", result.URL)
	assert.Empty(t, result.Expectations)
	assert.NotEmpty(t, result.Curl)
}

func TestRunner_Run_Verbose(t *testing.T) {
	r := NewRunner(
		&stubExecutor{status: 200, body: `{"data":{"id":2}}`},
		WithVerbose(true), WithMaxBody(5),
	)
	result := r.Run(context.Background(), okScenario("single user"))
	require.NotNil(t, result.Response)
	assert.Contains(t, result.Response.Body, "(truncated)")
}

func TestRunner_Run_Filtered(t *testing.T) {
	run, err := ParseRegexList("^login")
	require.NoError(t, err)
	exec := &stubExecutor{status: 200, calls: make(chan string, 1)}
	r := NewRunner(exec, WithFilters(Filters{Run: run}))

	result := r.Run(context.Background(), okScenario("single user"))

	assert.Equal(t, scenario.StatusSkipped, result.Status)
	assert.Contains(t, result.Reason, "not matching")
	assert.Empty(t, exec.calls)
}

func TestRunner_Hooks(t *testing.T) {
	t.Run("pre-hook failure errors the scenario", func(t *testing.T) {
		exec := &stubExecutor{status: 200, calls: make(chan string, 1)}
		r := NewRunner(exec, WithPreHook(func(context.Context, scenario.Scenario) error {
			return errors.New("no credentials")
		}))
		result := r.Run(context.Background(), okScenario("a"))
		assert.Equal(t, scenario.StatusError, result.Status)
		assert.Equal(t, "pre-hook failed: no credentials", result.Error)
		assert.Empty(t, exec.calls)
	})

	t.Run("post-hook failure only warns", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(
			&stubExecutor{status: 200, body: `{"data":{"id":2}}`},
			WithLogger(logging.NewConsoleLoggerTo(&buf, false, false)),
			WithPostHook(func(context.Context, scenario.Scenario) error {
				return errors.New("cleanup failed")
			}),
		)
		result := r.Run(context.Background(), okScenario("a"))
		assert.Equal(t, scenario.StatusPassed, result.Status)
		assert.Contains(t, buf.String(), "post_hook_warning")
	})
}

func TestRunner_RunSequence_ContinuesAfterFailure(t *testing.T) {
	r := NewRunner(&stubExecutor{status: 200, body: `{"data":{"id":3}}`})
	scenarios := []scenario.Scenario{
		okScenario("first"),
		scenario.New("second").Get("/x").Expect(assertion.StatusEquals(200)).MustBuild(),
	}

	results := r.RunSequence(context.Background(), scenarios)

	require.Len(t, results, 2)
	assert.Equal(t, scenario.StatusFailed, results[0].Status)
	assert.Equal(t, scenario.StatusPassed, results[1].Status)
	assert.False(t, results.OK())
}

func TestRunner_RunSequence_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(&stubExecutor{status: 200})

	results := r.RunSequence(ctx, []scenario.Scenario{okScenario("a"), okScenario("b")})

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, scenario.StatusSkipped, res.Status)
		assert.Equal(t, "run cancelled", res.Reason)
	}
}

func TestRunner_RunAll_MetricsAndEvents(t *testing.T) {
	rec := metrics.NewRecorder()
	collector := monitor.NewEventCollector()
	r := NewRunner(
		&stubExecutor{status: 200, body: `{"data":{"id":2}}`},
		WithMetrics(rec), WithCollector(collector),
	)

	results := r.RunAll(context.Background(), []scenario.Scenario{okScenario("single user")})

	require.True(t, results.OK())
	assert.Equal(t, 1, rec.RunTotal())
	assert.Equal(t, 1, rec.ScenarioCount("single-user", "passed"))
	assert.Equal(t, 1, rec.ExpectationCount("status_equals", true))
	assert.Equal(t, 0, rec.ActiveScenarios())

	events := collector.Events()
	require.Len(t, events, 3)
	assert.Equal(t, monitor.EventStarted, events[0].Type)
	assert.Equal(t, monitor.EventPassed, events[1].Type)
	assert.Equal(t, monitor.EventFinished, events[2].Type)
}

func TestRunner_WithRealExecutor(t *testing.T) {
	handler := httphelpers.HandlerWithJSONResponse(
		map[string]any{"data": map[string]any{"id": 2, "email": "janet.weaver@reqres.in"}}, nil,
	)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		exec, err := httpclient.NewExecutor(httpclient.Config{BaseURL: server.URL})
		require.NoError(t, err)

		s := scenario.New("single user").Get("/api/users/2").Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldSatisfies("data.email", assertion.Contains("@")),
			assertion.ResponseTimeUnder(4*time.Second),
		).MustBuild()

		result := NewRunner(exec).Run(context.Background(), s)
		assert.Equal(t, scenario.StatusPassed, result.Status, "%+v", result.Expectations)
	})
}
