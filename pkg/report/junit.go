package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"digital.vasic.apisuite/pkg/scenario"
)

// JUnitReporter renders a run as JUnit XML with one test suite
// per scenario category.
type JUnitReporter struct {
	name     string
	hostname string
}

// NewJUnitReporter creates a JUnit reporter. name labels the
// top-level testsuites element.
func NewJUnitReporter(name, hostname string) *JUnitReporter {
	if name == "" {
		name = "apisuite"
	}
	return &JUnitReporter{name: name, hostname: hostname}
}

// Build converts a run into JUnit test suites.
func (r *JUnitReporter) Build(run *Run) junit.Testsuites {
	suites := junit.Testsuites{Name: r.name}

	groups := run.Results.ByCategory()
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for i, category := range categories {
		name := category
		if name == "" {
			name = "uncategorized"
		}
		suite := junit.Testsuite{
			ID:       i,
			Name:     name,
			Hostname: r.hostname,
			Package:  run.BaseURL,
		}
		suite.SetTimestamp(run.StartedAt)
		suite.AddProperty("run_id", run.ID)
		suite.AddProperty("base_url", run.BaseURL)

		var elapsed time.Duration
		for _, res := range groups[category] {
			suite.AddTestcase(testcase(name, res))
			elapsed += res.Duration
		}
		suite.Time = seconds(elapsed)
		suites.AddSuite(suite)
	}
	suites.Time = seconds(run.Duration())
	return suites
}

func testcase(classname string, res *scenario.Result) junit.Testcase {
	tc := junit.Testcase{
		Name:      res.Name,
		Classname: classname,
		Time:      seconds(res.Duration),
		Status:    string(res.Status),
	}

	switch res.Status {
	case scenario.StatusSkipped:
		tc.Skipped = &junit.Result{Message: res.Reason}
	case scenario.StatusError:
		tc.Error = &junit.Result{
			Message: res.Error,
			Type:    "transport_error",
			Data:    res.Curl,
		}
	case scenario.StatusFailed:
		failed := res.FailedExpectations()
		var data strings.Builder
		for _, e := range failed {
			fmt.Fprintf(&data, "%s\n  expected: %v\n  actual:   %v\n",
				e.Description, e.Expected, e.Actual)
		}
		if res.Curl != "" {
			fmt.Fprintf(&data, "reproduce: %s\n", res.Curl)
		}
		msg := fmt.Sprintf("%d expectations failed", len(failed))
		class := "expectation_failed"
		if len(failed) == 1 {
			msg = failed[0].Message
			class = string(failed[0].Failure)
		}
		tc.Failure = &junit.Result{
			Message: msg,
			Type:    class,
			Data:    data.String(),
		}
	}

	if res.Response != nil {
		tc.SystemOut = &junit.Output{Data: res.Response.Body}
	}
	return tc
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// Generate renders the run as JUnit XML.
func (r *JUnitReporter) Generate(run *Run) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the JUnit XML document to w.
func (r *JUnitReporter) Write(w io.Writer, run *Run) error {
	suites := r.Build(run)
	if err := suites.WriteXML(w); err != nil {
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}
