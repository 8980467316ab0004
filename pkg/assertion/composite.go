package assertion

import (
	"fmt"
	"strings"

	"digital.vasic.apisuite/pkg/capture"
)

// AnyOfEvaluator returns the any_of Evaluator. It evaluates
// every child through engine and passes if at least one child
// passes. When none pass, the failure class of the first child
// is reported.
func AnyOfEvaluator(engine Engine) Evaluator {
	return func(exp Expectation, resp *capture.Response) Result {
		if len(exp.Children) == 0 {
			return fail(FailureInvalidExpectation, nil, nil,
				"any_of has no children")
		}

		results := engine.EvaluateAll(exp.Children, resp)
		for _, r := range results {
			if r.Passed {
				return pass(r.Expected, r.Actual, fmt.Sprintf(
					"expectation '%s' passed", r.Description,
				))
			}
		}

		msgs := make([]string, len(results))
		for i, r := range results {
			msgs[i] = r.Message
		}
		first := results[0]
		return fail(first.Failure, first.Expected, first.Actual,
			fmt.Sprintf(
				"none of %d expectations passed: %s",
				len(results), strings.Join(msgs, "; "),
			))
	}
}
