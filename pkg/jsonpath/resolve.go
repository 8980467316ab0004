package jsonpath

import (
	"fmt"
)

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is the value produced when a path does not exist in a
// document. It is distinct from nil, which represents JSON null.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Selection is the outcome of resolving a Path against a
// document. A single selection holds exactly one value; a
// sequence selection holds zero or more values produced by a
// wildcard or by a field access mapped over an array.
type Selection struct {
	values   []any
	sequence bool
}

// Single returns a selection holding one value.
func Single(v any) Selection {
	return Selection{values: []any{v}}
}

// Sequence returns a sequence selection over values.
func Sequence(values []any) Selection {
	return Selection{
		values:   append([]any{}, values...),
		sequence: true,
	}
}

// IsSequence reports whether the selection was produced by
// mapping over an array.
func (s Selection) IsSequence() bool {
	return s.sequence
}

// Values returns a copy of the selected values.
func (s Selection) Values() []any {
	return append([]any{}, s.values...)
}

// Len returns the number of selected values.
func (s Selection) Len() int {
	return len(s.values)
}

// Value returns the selected value for a single selection, or
// the values as []any for a sequence.
func (s Selection) Value() any {
	if s.sequence {
		return s.Values()
	}
	if len(s.values) == 0 {
		return Absent
	}
	return s.values[0]
}

// IsAbsent reports whether a single selection did not resolve.
// A sequence is never absent, though some of its items may be.
func (s Selection) IsAbsent() bool {
	return !s.sequence && (len(s.values) == 0 || IsAbsent(s.values[0]))
}

// String renders the selection for diagnostics.
func (s Selection) String() string {
	if s.sequence {
		return fmt.Sprintf("%v", s.values)
	}
	return fmt.Sprintf("%v", s.Value())
}

// Resolve evaluates path against a decoded JSON document (as
// produced by encoding/json into an any). Missing fields,
// out-of-range indexes and field access on scalars resolve to
// Absent rather than an error.
func Resolve(doc any, path Path) Selection {
	values, seq := walk(doc, path.segments)
	if !seq {
		return Single(values[0])
	}
	return Sequence(values)
}

// ResolveString parses expr and resolves it against doc.
func ResolveString(doc any, expr string) (Selection, error) {
	p, err := Parse(expr)
	if err != nil {
		return Selection{}, err
	}
	return Resolve(doc, p), nil
}

// walk applies segments to v. The boolean result is true when a
// wildcard or array mapping occurred, in which case the slice
// holds the flattened results of every branch.
func walk(v any, segments []Segment) ([]any, bool) {
	if len(segments) == 0 {
		return []any{v}, false
	}
	if IsAbsent(v) {
		return []any{Absent}, false
	}

	seg, rest := segments[0], segments[1:]
	switch seg.Kind {
	case SegmentField:
		switch node := v.(type) {
		case map[string]any:
			child, ok := node[seg.Name]
			if !ok {
				return []any{Absent}, false
			}
			return walk(child, rest)
		case []any:
			return mapOver(node, segments)
		default:
			return []any{Absent}, false
		}

	case SegmentIndex:
		arr, ok := v.([]any)
		if !ok || seg.Index >= len(arr) {
			return []any{Absent}, false
		}
		return walk(arr[seg.Index], rest)

	case SegmentWildcard:
		arr, ok := v.([]any)
		if !ok {
			return []any{Absent}, false
		}
		return mapOver(arr, rest)
	}
	return []any{Absent}, false
}

// mapOver applies segments to every element of arr and flattens
// the results into one sequence.
func mapOver(arr []any, segments []Segment) ([]any, bool) {
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		vals, seq := walk(item, segments)
		if seq {
			out = append(out, vals...)
			continue
		}
		out = append(out, vals[0])
	}
	return out, true
}
