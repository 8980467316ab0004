package assertion

import "digital.vasic.apisuite/pkg/capture"

// Evaluator checks a single expectation kind against a captured
// response. Implementations fill Passed, Expected, Actual,
// Failure and Message; the engine sets Kind, Target and
// Description.
type Evaluator func(exp Expectation, resp *capture.Response) Result
