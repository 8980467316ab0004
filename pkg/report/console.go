package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/scenario"
)

// ConsoleReporter prints one line per scenario followed by the
// details of every failed expectation and a totals line.
type ConsoleReporter struct {
	verbose bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	gray   *color.Color
	bold   *color.Color
}

// NewConsoleReporter creates a console reporter. Verbose output
// also lists passing expectations and response summaries.
func NewConsoleReporter(colored, verbose bool) *ConsoleReporter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &ConsoleReporter{
		verbose: verbose,
		green:   mk(color.FgGreen),
		red:     mk(color.FgRed),
		yellow:  mk(color.FgYellow),
		gray:    mk(color.FgHiBlack),
		bold:    mk(color.Bold),
	}
}

// Generate renders the console report into memory.
func (r *ConsoleReporter) Generate(run *Run) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *ConsoleReporter) badge(s scenario.Status) string {
	switch s {
	case scenario.StatusPassed:
		return r.green.Sprint("PASS ")
	case scenario.StatusFailed:
		return r.red.Sprint("FAIL ")
	case scenario.StatusError:
		return r.red.Sprint("ERROR")
	default:
		return r.yellow.Sprint("SKIP ")
	}
}

// exchangeLabel describes the request as "(METHOD URL, Nms)".
// The URL is left out when it was never resolved and the time
// when no response arrived.
func exchangeLabel(res *scenario.Result) string {
	label := res.Method
	if res.URL != "" {
		label += " " + res.URL
	}
	if res.Status == scenario.StatusPassed || res.Status == scenario.StatusFailed {
		label += fmt.Sprintf(", %dms", res.ElapsedMS)
	}
	return "(" + label + ")"
}

// Write prints the report to w.
func (r *ConsoleReporter) Write(w io.Writer, run *Run) error {
	ew := &errWriter{w: w}

	for _, res := range run.Results {
		ew.printf("%s %s %s\n",
			r.badge(res.Status), res.Name, r.gray.Sprint(exchangeLabel(res)))

		switch res.Status {
		case scenario.StatusSkipped:
			if r.verbose && res.Reason != "" {
				ew.printf("      %s\n", r.gray.Sprint(res.Reason))
			}
			continue
		case scenario.StatusError:
			ew.printf("      %s %s\n", r.red.Sprint("transport error:"), res.Error)
		}

		for _, e := range res.Expectations {
			if e.Passed && !r.verbose {
				continue
			}
			r.writeExpectation(ew, e)
		}

		if res.Status != scenario.StatusPassed && res.Curl != "" {
			ew.printf("      %s %s\n", r.gray.Sprint("reproduce:"), res.Curl)
		}
		if r.verbose && res.Response != nil {
			ew.printf("      %s %s\n", r.gray.Sprint("body:"),
				strings.TrimSpace(res.Response.Body))
		}
	}

	c := run.Counts()
	ew.printf("\n%s %d scenarios: %s, %s, %s, %s in %s\n",
		r.bold.Sprint("Totals:"),
		c.Total,
		r.green.Sprintf("%d passed", c.Passed),
		r.red.Sprintf("%d failed", c.Failed),
		r.red.Sprintf("%d errored", c.Errored),
		r.yellow.Sprintf("%d skipped", c.Skipped),
		run.Duration().Round(time.Millisecond),
	)
	return ew.err
}

func (r *ConsoleReporter) writeExpectation(ew *errWriter, e assertion.Result) {
	mark := r.green.Sprint("✓")
	if !e.Passed {
		mark = r.red.Sprint("✗")
	}
	ew.printf("      %s %s\n", mark, e.Description)
	if e.Passed {
		return
	}
	ew.printf("          expected: %v\n", e.Expected)
	ew.printf("          actual:   %v\n", e.Actual)
	if e.Message != "" {
		ew.printf("          %s\n", r.gray.Sprint(e.Message))
	}
}

// errWriter remembers the first write error so a report can be
// printed without checking every call.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
