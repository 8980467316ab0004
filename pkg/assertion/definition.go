package assertion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"digital.vasic.apisuite/pkg/jsonpath"
)

// Definition is the declarative form of an expectation as it
// appears in scenario files.
type Definition struct {
	// Type is the expectation kind (e.g., "status_equals",
	// "json_field_satisfies").
	Type string `json:"type" yaml:"type"`

	// Target is the JSON path, header name or JSONPath query
	// the expectation addresses.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Value is the expected value. Its meaning depends on Type:
	// a status code, literal text, a JSON value, a duration
	// ("4s", "4000ms" or a number of milliseconds) or a schema.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Predicate is a compact predicate such as "not_null" or
	// "contains:@".
	Predicate string `json:"predicate,omitempty" yaml:"predicate,omitempty"`

	// AnyOf holds alternatives for the any_of type.
	AnyOf []Definition `json:"any_of,omitempty" yaml:"any_of,omitempty"`

	// Message is a human-readable description shown in
	// reports.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Compile converts the definition into a validated Expectation.
func (d Definition) Compile() (Expectation, error) {
	exp, err := d.compile()
	if err != nil {
		return Expectation{}, fmt.Errorf("expectation %s: %w", d.Type, err)
	}
	exp.Description = d.Message
	if err := exp.Validate(); err != nil {
		return Expectation{}, fmt.Errorf("expectation %s: %w", d.Type, err)
	}
	return exp, nil
}

func (d Definition) compile() (Expectation, error) {
	kind := Kind(strings.TrimSpace(d.Type))
	switch kind {
	case KindStatusEquals:
		code, err := toInt(d.Value)
		if err != nil {
			return Expectation{}, err
		}
		return StatusEquals(code), nil

	case KindBodyEquals, KindBodyContains:
		text, err := toText(d.Value)
		if err != nil {
			return Expectation{}, err
		}
		return Expectation{Kind: kind, Literal: text}, nil

	case KindHeaderEquals:
		text, err := toText(d.Value)
		if err != nil {
			return Expectation{}, err
		}
		return HeaderEquals(d.Target, text), nil

	case KindJSONFieldEquals:
		path, err := jsonpath.Parse(d.Target)
		if err != nil {
			return Expectation{}, err
		}
		return Expectation{Kind: kind, Path: path, Value: d.Value}, nil

	case KindJSONFieldSatisfies:
		path, err := jsonpath.Parse(d.Target)
		if err != nil {
			return Expectation{}, err
		}
		p, err := d.predicate()
		if err != nil {
			return Expectation{}, err
		}
		return Expectation{Kind: kind, Path: path, Predicate: p}, nil

	case KindResponseTimeUnder:
		threshold, err := toDuration(d.Value)
		if err != nil {
			return Expectation{}, err
		}
		return ResponseTimeUnder(threshold), nil

	case KindJSONQuery:
		if d.Predicate != "" {
			p, err := ParsePredicate(d.Predicate)
			if err != nil {
				return Expectation{}, err
			}
			return JSONQuerySatisfies(d.Target, p), nil
		}
		return JSONQueryEquals(d.Target, d.Value), nil

	case KindSchemaValid:
		schema, err := toSchema(d.Value)
		if err != nil {
			return Expectation{}, err
		}
		return SchemaValid(schema), nil

	case KindAnyOf:
		children := make([]Expectation, 0, len(d.AnyOf))
		for i, c := range d.AnyOf {
			child, err := c.Compile()
			if err != nil {
				return Expectation{}, fmt.Errorf("any_of[%d]: %w", i, err)
			}
			children = append(children, child)
		}
		return AnyOf(children...), nil

	case "":
		return Expectation{}, fmt.Errorf("type is required")

	default:
		// Custom kinds are carried through untouched so a
		// registered evaluator can interpret them.
		return Expectation{
			Kind:    kind,
			Value:   d.Value,
			Literal: d.Target,
		}, nil
	}
}

// predicate reads the predicate from Predicate, falling back to
// a string Value for the compact "type:value" form.
func (d Definition) predicate() (Predicate, error) {
	src := d.Predicate
	if src == "" {
		s, ok := d.Value.(string)
		if !ok {
			return Predicate{}, fmt.Errorf("predicate is required")
		}
		src = s
	}
	return ParsePredicate(src)
}

// CompileAll compiles a list of definitions, reporting the
// index of the first invalid one.
func CompileAll(defs []Definition) ([]Expectation, error) {
	out := make([]Expectation, 0, len(defs))
	for i, d := range defs {
		exp, err := d.Compile()
		if err != nil {
			return nil, fmt.Errorf("expectations[%d]: %w", i, err)
		}
		out = append(out, exp)
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
}

func toText(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case map[string]any, []any:
		data, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return fmt.Sprint(s), nil
	}
}

// toDuration accepts a Go duration string or a number of
// milliseconds.
func toDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case string:
		s := strings.TrimSpace(d)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", d)
		}
		return parsed, nil
	default:
		ms, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %v", v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
}

func toSchema(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", fmt.Errorf("schema is required")
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("encode schema: %w", err)
		}
		return string(data), nil
	}
}
