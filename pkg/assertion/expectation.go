// Package assertion provides the expectation model and an
// extensible evaluation engine for captured HTTP responses. It
// ships with evaluators for status, body, header, JSON field,
// JSONPath query, JSON Schema and response time checks, and
// supports custom evaluator registration.
package assertion

import (
	"fmt"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"digital.vasic.apisuite/pkg/jsonpath"
)

// Kind identifies an expectation variant.
type Kind string

const (
	KindStatusEquals       Kind = "status_equals"
	KindBodyEquals         Kind = "body_equals"
	KindBodyContains       Kind = "body_contains"
	KindJSONFieldEquals    Kind = "json_field_equals"
	KindJSONFieldSatisfies Kind = "json_field_satisfies"
	KindResponseTimeUnder  Kind = "response_time_under"
	KindHeaderEquals       Kind = "header_equals"
	KindJSONQuery          Kind = "json_query"
	KindSchemaValid        Kind = "schema_valid"
	KindAnyOf              Kind = "any_of"
)

// BuiltinKinds lists the kinds evaluated by a new engine.
var BuiltinKinds = []Kind{
	KindStatusEquals,
	KindBodyEquals,
	KindBodyContains,
	KindJSONFieldEquals,
	KindJSONFieldSatisfies,
	KindResponseTimeUnder,
	KindHeaderEquals,
	KindJSONQuery,
	KindSchemaValid,
	KindAnyOf,
}

// Expectation is one declarative check against a captured
// response. Only the fields relevant to Kind are used. Values
// are immutable by convention; the With* methods return copies.
type Expectation struct {
	Kind Kind

	// Status is the expected status code for status_equals.
	Status int

	// Literal is the expected text for body_equals,
	// body_contains and header_equals.
	Literal string

	// Header is the header name for header_equals.
	Header string

	// Path addresses a JSON value for json_field_* kinds.
	Path jsonpath.Path

	// Query is a JSONPath expression for json_query.
	Query string

	// Value is the expected JSON value for json_field_equals
	// and value-mode json_query.
	Value any

	// Predicate is the test for json_field_satisfies and
	// predicate-mode json_query.
	Predicate Predicate

	// Threshold is the inclusive upper bound for
	// response_time_under.
	Threshold time.Duration

	// Schema is JSON Schema text for schema_valid.
	Schema string

	// Children are the alternatives of any_of.
	Children []Expectation

	// Description overrides the generated description.
	Description string
}

// StatusEquals expects the given status code.
func StatusEquals(code int) Expectation {
	return Expectation{Kind: KindStatusEquals, Status: code}
}

// BodyEquals expects the raw body to equal text exactly.
func BodyEquals(text string) Expectation {
	return Expectation{Kind: KindBodyEquals, Literal: text}
}

// BodyContains expects the raw body to contain text.
func BodyContains(text string) Expectation {
	return Expectation{Kind: KindBodyContains, Literal: text}
}

// JSONFieldEquals expects the value at path to equal value. The
// path must be a valid literal; it panics otherwise.
func JSONFieldEquals(path string, value any) Expectation {
	return Expectation{
		Kind:  KindJSONFieldEquals,
		Path:  jsonpath.MustParse(path),
		Value: value,
	}
}

// JSONFieldSatisfies expects every value at path to satisfy p.
// The path must be a valid literal; it panics otherwise.
func JSONFieldSatisfies(path string, p Predicate) Expectation {
	return Expectation{
		Kind:      KindJSONFieldSatisfies,
		Path:      jsonpath.MustParse(path),
		Predicate: p,
	}
}

// ResponseTimeUnder expects the elapsed time to be at most d.
func ResponseTimeUnder(d time.Duration) Expectation {
	return Expectation{Kind: KindResponseTimeUnder, Threshold: d}
}

// HeaderEquals expects the named response header to equal value.
func HeaderEquals(name, value string) Expectation {
	return Expectation{
		Kind:    KindHeaderEquals,
		Header:  name,
		Literal: value,
	}
}

// JSONQueryEquals expects the JSONPath query to select value.
// Queries with a wildcard, descent, filter, union or slice
// select a list even when one node matches; others select the
// single node.
func JSONQueryEquals(query string, value any) Expectation {
	return Expectation{Kind: KindJSONQuery, Query: query, Value: value}
}

// JSONQuerySatisfies expects every node selected by the
// JSONPath query to satisfy p.
func JSONQuerySatisfies(query string, p Predicate) Expectation {
	return Expectation{Kind: KindJSONQuery, Query: query, Predicate: p}
}

// SchemaValid expects the JSON body to validate against the
// given JSON Schema document.
func SchemaValid(schema string) Expectation {
	return Expectation{Kind: KindSchemaValid, Schema: schema}
}

// AnyOf expects at least one of children to pass.
func AnyOf(children ...Expectation) Expectation {
	return Expectation{
		Kind:     KindAnyOf,
		Children: append([]Expectation(nil), children...),
	}
}

// WithDescription returns a copy of e with a custom description.
func (e Expectation) WithDescription(desc string) Expectation {
	e.Description = desc
	return e
}

// Target returns the path, header or query the expectation
// addresses, or an empty string for whole-response checks.
func (e Expectation) Target() string {
	switch e.Kind {
	case KindJSONFieldEquals, KindJSONFieldSatisfies:
		return e.Path.String()
	case KindHeaderEquals:
		return e.Header
	case KindJSONQuery:
		return e.Query
	default:
		return ""
	}
}

// Describe returns a human-readable rendering of the expectation.
func (e Expectation) Describe() string {
	if e.Description != "" {
		return e.Description
	}
	switch e.Kind {
	case KindStatusEquals:
		return fmt.Sprintf("status == %d", e.Status)
	case KindBodyEquals:
		return fmt.Sprintf("body == %q", e.Literal)
	case KindBodyContains:
		return fmt.Sprintf("body contains %q", e.Literal)
	case KindJSONFieldEquals:
		return fmt.Sprintf("%s == %v", e.Path, e.Value)
	case KindJSONFieldSatisfies:
		return fmt.Sprintf("%s %s", e.Path, e.Predicate)
	case KindResponseTimeUnder:
		return fmt.Sprintf("time <= %dms", e.Threshold.Milliseconds())
	case KindHeaderEquals:
		return fmt.Sprintf("header %s == %q", e.Header, e.Literal)
	case KindJSONQuery:
		if !e.Predicate.IsZero() {
			return fmt.Sprintf("query %s %s", e.Query, e.Predicate)
		}
		return fmt.Sprintf("query %s == %v", e.Query, e.Value)
	case KindSchemaValid:
		return "body matches schema"
	case KindAnyOf:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.Describe()
		}
		return "any of (" + strings.Join(parts, " | ") + ")"
	default:
		return string(e.Kind)
	}
}

// Validate checks that the expectation is well formed for its
// kind. Kinds other than the built-ins are accepted as long as
// the kind is set; a custom evaluator must be registered for
// them before evaluation.
func (e Expectation) Validate() error {
	switch e.Kind {
	case "":
		return fmt.Errorf("expectation kind is empty")
	case KindStatusEquals:
		if e.Status < 100 || e.Status > 599 {
			return fmt.Errorf("invalid status code: %d", e.Status)
		}
	case KindJSONFieldSatisfies:
		if err := e.Predicate.Validate(); err != nil {
			return fmt.Errorf("%s: %w", e.Path, err)
		}
	case KindResponseTimeUnder:
		if e.Threshold <= 0 {
			return fmt.Errorf("response time threshold must be positive")
		}
	case KindHeaderEquals:
		if strings.TrimSpace(e.Header) == "" {
			return fmt.Errorf("header name is empty")
		}
	case KindJSONQuery:
		if _, err := jp.ParseString(e.Query); err != nil {
			return fmt.Errorf("parse query %q: %w", e.Query, err)
		}
		if !e.Predicate.IsZero() {
			if err := e.Predicate.Validate(); err != nil {
				return fmt.Errorf("%s: %w", e.Query, err)
			}
		}
	case KindSchemaValid:
		if _, err := compileSchema(e.Schema); err != nil {
			return err
		}
	case KindAnyOf:
		if len(e.Children) == 0 {
			return fmt.Errorf("any_of requires at least one child")
		}
		for i, c := range e.Children {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("any_of[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func compileSchema(schema string) (*jsonschema.Schema, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, fmt.Errorf("schema is empty")
	}
	s, err := jsonschema.CompileString("expectation.schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}
