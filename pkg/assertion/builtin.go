package assertion

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"digital.vasic.apisuite/pkg/capture"
	"digital.vasic.apisuite/pkg/jsonpath"
)

// evaluateStatusEquals checks the response status code.
func evaluateStatusEquals(
	exp Expectation,
	resp *capture.Response,
) Result {
	got := resp.StatusCode()
	if got == exp.Status {
		return pass(exp.Status, got,
			fmt.Sprintf("status is %d", got))
	}
	return fail(FailureStatusMismatch, exp.Status, got,
		fmt.Sprintf("expected status %d, got %d", exp.Status, got))
}

// evaluateBodyEquals checks exact equality of the raw body.
func evaluateBodyEquals(
	exp Expectation,
	resp *capture.Response,
) Result {
	got := resp.BodyString()
	if got == exp.Literal {
		return pass(exp.Literal, got, "body matches")
	}
	return fail(FailureBodyMismatch, exp.Literal, got,
		fmt.Sprintf("expected body %q, got %q", exp.Literal, got))
}

// evaluateBodyContains checks that the raw body contains a
// substring.
func evaluateBodyContains(
	exp Expectation,
	resp *capture.Response,
) Result {
	got := resp.BodyString()
	if strings.Contains(got, exp.Literal) {
		return pass(exp.Literal, nil,
			fmt.Sprintf("body contains %q", exp.Literal))
	}
	return fail(FailureBodyMismatch, exp.Literal, got,
		fmt.Sprintf("body does not contain %q", exp.Literal))
}

// evaluateHeaderEquals checks a response header value.
func evaluateHeaderEquals(
	exp Expectation,
	resp *capture.Response,
) Result {
	values := resp.Header().Values(exp.Header)
	if len(values) == 0 {
		return fail(FailureHeaderMismatch, exp.Literal, nil,
			fmt.Sprintf("header %s absent", exp.Header))
	}
	got := values[0]
	if got == exp.Literal {
		return pass(exp.Literal, got,
			fmt.Sprintf("header %s is %q", exp.Header, got))
	}
	return fail(FailureHeaderMismatch, exp.Literal, got,
		fmt.Sprintf("expected header %s %q, got %q",
			exp.Header, exp.Literal, got))
}

// evaluateResponseTimeUnder checks elapsed <= threshold. Both
// sides are reported in milliseconds.
func evaluateResponseTimeUnder(
	exp Expectation,
	resp *capture.Response,
) Result {
	elapsed := resp.Elapsed()
	expectedMS := exp.Threshold.Milliseconds()
	gotMS := elapsed.Milliseconds()
	if elapsed <= exp.Threshold {
		return pass(expectedMS, gotMS,
			fmt.Sprintf("response time %dms within %dms", gotMS, expectedMS))
	}
	return fail(FailureTimeoutExceeded, expectedMS, gotMS,
		fmt.Sprintf("response time %dms exceeds %dms", gotMS, expectedMS))
}

// evaluateJSONFieldEquals resolves a path and compares it with
// the expected value.
func evaluateJSONFieldEquals(
	exp Expectation,
	resp *capture.Response,
) Result {
	doc, failed := parseBody(exp, resp)
	if failed != nil {
		return *failed
	}

	want, err := normalize(exp.Value)
	if err != nil {
		return fail(FailureInvalidExpectation, exp.Value, nil, err.Error())
	}

	sel := jsonpath.Resolve(doc, exp.Path)
	if sel.IsAbsent() {
		return fail(FailureFieldAbsent, want, display(jsonpath.Absent),
			"field absent")
	}

	got := sel.Value()
	if jsonEqual(got, want) {
		return pass(want, got, fmt.Sprintf("%s is %v", exp.Path, got))
	}
	return fail(FailureFieldMismatch, want, display(got),
		fmt.Sprintf("expected %s to be %v, got %v",
			exp.Path, want, display(got)))
}

// evaluateJSONFieldSatisfies resolves a path and tests every
// extracted value against the predicate.
func evaluateJSONFieldSatisfies(
	exp Expectation,
	resp *capture.Response,
) Result {
	check, err := exp.Predicate.compile()
	if err != nil {
		return fail(FailureInvalidExpectation, exp.Predicate.String(), nil,
			err.Error())
	}

	doc, failed := parseBody(exp, resp)
	if failed != nil {
		return *failed
	}

	sel := jsonpath.Resolve(doc, exp.Path)
	if sel.IsAbsent() {
		return fail(FailureFieldAbsent, exp.Predicate.String(),
			display(jsonpath.Absent), "field absent")
	}

	return satisfies(exp.Predicate, check, sel.IsSequence(), sel.Values())
}

// satisfies applies check to every value. For a sequence an
// empty selection passes vacuously except for non_empty.
func satisfies(
	p Predicate,
	check predicateCheck,
	sequence bool,
	values []any,
) Result {
	expected := p.String()

	if !sequence {
		v := values[0]
		ok, class, msg := check(v)
		if ok {
			return pass(expected, display(v), msg)
		}
		return fail(class, expected, display(v), msg)
	}

	actual := display(values)
	if len(values) == 0 {
		if p.Kind == PredicateNonEmpty {
			return fail(FailureFieldMismatch, expected, actual,
				"sequence is empty")
		}
		return pass(expected, actual, "no items to check")
	}

	// every_item_not_null over a sequence means each selected
	// item is itself not null.
	if p.Kind == PredicateEveryItemNotNull {
		check = checkNotNull
	}

	for i, v := range values {
		ok, class, msg := check(v)
		if !ok {
			return fail(class, expected, actual,
				fmt.Sprintf("item %d: %s", i, msg))
		}
	}
	return pass(expected, actual,
		fmt.Sprintf("all %d items satisfy %s", len(values), expected))
}

// evaluateJSONQuery runs a JSONPath query with ojg and either
// compares the selection with Value or tests it with Predicate.
func evaluateJSONQuery(
	exp Expectation,
	resp *capture.Response,
) Result {
	query, err := jp.ParseString(exp.Query)
	if err != nil {
		return fail(FailureInvalidExpectation, exp.Query, nil,
			fmt.Sprintf("parse query: %v", err))
	}

	doc, failed := parseBody(exp, resp)
	if failed != nil {
		return *failed
	}

	nodes := query.Get(doc)

	if !exp.Predicate.IsZero() {
		check, err := exp.Predicate.compile()
		if err != nil {
			return fail(FailureInvalidExpectation, exp.Predicate.String(),
				nil, err.Error())
		}
		many := selectsMany(query)
		if len(nodes) == 0 && !many {
			return fail(FailureFieldAbsent, exp.Predicate.String(),
				nil, "query matched nothing")
		}
		return satisfies(exp.Predicate, check, many, nodes)
	}

	want, err := normalize(exp.Value)
	if err != nil {
		return fail(FailureInvalidExpectation, exp.Value, nil, err.Error())
	}
	var got any
	switch {
	case selectsMany(query):
		got = append([]any{}, nodes...)
	case len(nodes) == 0:
		return fail(FailureFieldAbsent, want, nil, "query matched nothing")
	default:
		got = nodes[0]
	}
	if jsonEqual(got, want) {
		return pass(want, got, fmt.Sprintf("%s is %v", exp.Query, got))
	}
	return fail(FailureFieldMismatch, want, got,
		fmt.Sprintf("expected %s to be %v, got %v", exp.Query, want, got))
}

// selectsMany reports whether the query can select more than one
// node, so its result is a sequence whatever the data holds.
func selectsMany(query jp.Expr) bool {
	for _, frag := range query {
		switch frag.(type) {
		case jp.Wildcard, jp.Descent, *jp.Filter, jp.Union, jp.Slice, *jp.Proc:
			return true
		}
	}
	return false
}

// evaluateSchemaValid validates the JSON body against a schema.
func evaluateSchemaValid(
	exp Expectation,
	resp *capture.Response,
) Result {
	schema, err := compileSchema(exp.Schema)
	if err != nil {
		return fail(FailureInvalidExpectation, nil, nil, err.Error())
	}

	doc, failed := parseBody(exp, resp)
	if failed != nil {
		return *failed
	}

	if err := schema.Validate(doc); err != nil {
		return fail(FailureSchemaViolation, "valid", "invalid", err.Error())
	}
	return pass("valid", "valid", "body matches schema")
}

// parseBody decodes the response JSON. On failure it returns a
// failed malformed_json result.
func parseBody(
	exp Expectation,
	resp *capture.Response,
) (any, *Result) {
	doc, err := resp.JSON()
	if err != nil {
		r := fail(FailureMalformedJSON, expectedFor(exp),
			resp.BodyString(), err.Error())
		return nil, &r
	}
	return doc, nil
}

func expectedFor(exp Expectation) any {
	if !exp.Predicate.IsZero() {
		return exp.Predicate.String()
	}
	return exp.Value
}
