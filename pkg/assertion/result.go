package assertion

// FailureClass categorizes why an expectation failed.
type FailureClass string

const (
	// FailureNone is the class of a passing result.
	FailureNone FailureClass = ""
	// FailureStatusMismatch means the status code differed.
	FailureStatusMismatch FailureClass = "status_mismatch"
	// FailureBodyMismatch means the raw body differed.
	FailureBodyMismatch FailureClass = "body_mismatch"
	// FailureFieldMismatch means a JSON value was present but
	// did not match.
	FailureFieldMismatch FailureClass = "field_mismatch"
	// FailureFieldAbsent means a JSON path did not resolve.
	FailureFieldAbsent FailureClass = "field_absent"
	// FailureMalformedJSON means the body could not be parsed.
	FailureMalformedJSON FailureClass = "malformed_json"
	// FailureTimeoutExceeded means the response was too slow.
	FailureTimeoutExceeded FailureClass = "timeout_exceeded"
	// FailureHeaderMismatch means a response header differed
	// or was missing.
	FailureHeaderMismatch FailureClass = "header_mismatch"
	// FailureSchemaViolation means the body did not validate
	// against the declared JSON Schema.
	FailureSchemaViolation FailureClass = "schema_violation"
	// FailureInvalidExpectation means the expectation itself
	// could not be evaluated (unknown kind, bad expression).
	FailureInvalidExpectation FailureClass = "invalid_expectation"
)

// Result captures the outcome of evaluating a single
// expectation against a captured response.
type Result struct {
	// Kind is the expectation kind that was evaluated.
	Kind Kind `json:"kind"`

	// Target is the path, header or query the expectation
	// addressed. Empty for whole-response checks.
	Target string `json:"target,omitempty"`

	// Description is the human-readable expectation text.
	Description string `json:"description"`

	// Passed indicates whether the expectation held.
	Passed bool `json:"passed"`

	// Expected is the value the expectation required.
	Expected any `json:"expected,omitempty"`

	// Actual is the value that was observed.
	Actual any `json:"actual,omitempty"`

	// Failure classifies a failed result. Empty on success.
	Failure FailureClass `json:"failure,omitempty"`

	// Message explains the outcome.
	Message string `json:"message"`
}

// AllPassed reports whether every result passed. An empty slice
// counts as passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed results in their original order.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func pass(expected, actual any, message string) Result {
	return Result{
		Passed:   true,
		Expected: expected,
		Actual:   actual,
		Message:  message,
	}
}

func fail(
	class FailureClass,
	expected, actual any,
	message string,
) Result {
	return Result{
		Passed:   false,
		Expected: expected,
		Actual:   actual,
		Failure:  class,
		Message:  message,
	}
}
