package assertion

import (
	"fmt"
	"sync"

	"digital.vasic.apisuite/pkg/capture"
)

// Engine defines the interface for expectation evaluation
// engines.
type Engine interface {
	// Evaluate checks a single expectation against the
	// captured response.
	Evaluate(exp Expectation, resp *capture.Response) Result

	// EvaluateAll checks every expectation against the same
	// response. All expectations are evaluated regardless of
	// earlier failures; results are returned in input order.
	EvaluateAll(exps []Expectation, resp *capture.Response) []Result

	// Register adds a custom evaluator for the given kind.
	// Returns an error if the kind is already registered.
	Register(kind Kind, evaluator Evaluator) error
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu         sync.RWMutex
	evaluators map[Kind]Evaluator
}

// NewEngine creates a DefaultEngine with all built-in
// evaluators pre-registered.
func NewEngine() *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[Kind]Evaluator),
	}
	e.registerDefaults()
	return e
}

// registerDefaults registers the built-in evaluators.
func (e *DefaultEngine) registerDefaults() {
	e.evaluators[KindStatusEquals] = evaluateStatusEquals
	e.evaluators[KindBodyEquals] = evaluateBodyEquals
	e.evaluators[KindBodyContains] = evaluateBodyContains
	e.evaluators[KindJSONFieldEquals] = evaluateJSONFieldEquals
	e.evaluators[KindJSONFieldSatisfies] = evaluateJSONFieldSatisfies
	e.evaluators[KindResponseTimeUnder] = evaluateResponseTimeUnder
	e.evaluators[KindHeaderEquals] = evaluateHeaderEquals
	e.evaluators[KindJSONQuery] = evaluateJSONQuery
	e.evaluators[KindSchemaValid] = evaluateSchemaValid
	e.evaluators[KindAnyOf] = AnyOfEvaluator(e)
}

// Register adds a custom evaluator for the given kind. Returns
// an error if the kind is already registered.
func (e *DefaultEngine) Register(
	kind Kind,
	evaluator Evaluator,
) error {
	if kind == "" {
		return fmt.Errorf("expectation kind is empty")
	}
	if evaluator == nil {
		return fmt.Errorf("evaluator for %s is nil", kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[kind]; exists {
		return fmt.Errorf(
			"expectation kind already registered: %s",
			kind,
		)
	}

	e.evaluators[kind] = evaluator
	return nil
}

// Evaluate runs a single expectation against the response.
func (e *DefaultEngine) Evaluate(
	exp Expectation,
	resp *capture.Response,
) Result {
	e.mu.RLock()
	evaluator, exists := e.evaluators[exp.Kind]
	e.mu.RUnlock()

	var r Result
	switch {
	case !exists:
		r = fail(FailureInvalidExpectation, nil, nil,
			fmt.Sprintf("unknown expectation kind: %s", exp.Kind))
	case resp == nil:
		r = fail(FailureInvalidExpectation, nil, nil,
			"no response captured")
	default:
		r = evaluator(exp, resp)
	}

	r.Kind = exp.Kind
	r.Target = exp.Target()
	r.Description = exp.Describe()
	return r
}

// EvaluateAll runs every expectation against the response.
func (e *DefaultEngine) EvaluateAll(
	exps []Expectation,
	resp *capture.Response,
) []Result {
	results := make([]Result, 0, len(exps))
	for _, exp := range exps {
		results = append(results, e.Evaluate(exp, resp))
	}
	return results
}

// HasEvaluator returns true if the given kind has a registered
// evaluator.
func (e *DefaultEngine) HasEvaluator(kind Kind) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[kind]
	return exists
}
