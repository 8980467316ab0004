// Package scenario defines the immutable description of one HTTP
// check: the request to send and the expectations to evaluate
// against its response. Scenarios are built with a value-type
// Builder or compiled from a declarative Definition.
package scenario

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"digital.vasic.apisuite/pkg/assertion"
)

// ID uniquely identifies a scenario within a registry.
type ID string

// QueryParam is one query string parameter. Parameters are kept
// in declaration order.
type QueryParam struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// BodyKind describes how a request body was declared.
type BodyKind int

const (
	// BodyNone means the request has no body.
	BodyNone BodyKind = iota
	// BodyRaw is sent byte for byte.
	BodyRaw
	// BodyJSON is a structured value serialized as JSON.
	BodyJSON
)

// Body is an optional request body. A body is either raw text or
// a structured value, never both.
type Body struct {
	kind    BodyKind
	raw     string
	value   any
	encoded []byte
}

// RawBody returns a body sent exactly as given.
func RawBody(text string) Body {
	return Body{kind: BodyRaw, raw: text}
}

// JSONBody returns a body serialized from v with encoding/json.
func JSONBody(v any) Body {
	return Body{kind: BodyJSON, value: v}
}

// Value returns the structured value of a JSON body, or the
// text of a raw body.
func (b Body) Value() any {
	if b.kind == BodyRaw {
		return b.raw
	}
	return b.value
}

// freeze encodes a JSON body once so later changes to the
// caller's value are not observed.
func (b Body) freeze() (Body, error) {
	if b.kind != BodyJSON {
		return b, nil
	}
	data, err := json.Marshal(b.value)
	if err != nil {
		return Body{}, fmt.Errorf("encode body: %w", err)
	}
	b.encoded = data
	return b, nil
}

// Kind returns how the body was declared.
func (b Body) Kind() BodyKind { return b.kind }

// IsZero reports whether there is no body.
func (b Body) IsZero() bool { return b.kind == BodyNone }

// Bytes returns the wire form of the body.
func (b Body) Bytes() ([]byte, error) {
	switch b.kind {
	case BodyRaw:
		return []byte(b.raw), nil
	case BodyJSON:
		if b.encoded != nil {
			return append([]byte(nil), b.encoded...), nil
		}
		data, err := json.Marshal(b.value)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

// Scenario is one request plus the expectations evaluated
// against its response. The zero value is not valid; build one
// with New(...).Build() or Definition.Compile.
type Scenario struct {
	id           ID
	name         string
	description  string
	category     string
	method       string
	path         string
	query        []QueryParam
	header       http.Header
	body         Body
	expectations []assertion.Expectation
}

// ID returns the scenario identifier.
func (s Scenario) ID() ID { return s.id }

// Name returns the human-readable scenario name.
func (s Scenario) Name() string { return s.name }

// Description returns the optional free-text description.
func (s Scenario) Description() string { return s.description }

// Category returns the grouping used by reports
// (e.g., "users", "auth").
func (s Scenario) Category() string { return s.category }

// Method returns the HTTP method.
func (s Scenario) Method() string { return s.method }

// Path returns the request path, or an absolute URL that
// overrides the executor's base URL.
func (s Scenario) Path() string { return s.path }

// Query returns a copy of the ordered query parameters.
func (s Scenario) Query() []QueryParam {
	return append([]QueryParam(nil), s.query...)
}

// Header returns a copy of the scenario's request headers.
func (s Scenario) Header() http.Header {
	if s.header == nil {
		return http.Header{}
	}
	return s.header.Clone()
}

// Body returns the request body.
func (s Scenario) Body() Body { return s.body }

// Expectations returns a copy of the ordered expectations.
func (s Scenario) Expectations() []assertion.Expectation {
	return append([]assertion.Expectation(nil), s.expectations...)
}

// String returns "METHOD path" for logs.
func (s Scenario) String() string {
	return s.method + " " + s.path
}

// AllowedMethods lists the HTTP methods a scenario may use.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

func methodAllowed(m string) bool {
	for _, allowed := range AllowedMethods {
		if m == allowed {
			return true
		}
	}
	return false
}

// Slug derives an identifier from a scenario name: lower case
// letters and digits, other runs collapsed to '-'.
func Slug(name string) ID {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return ID(strings.TrimSuffix(sb.String(), "-"))
}
