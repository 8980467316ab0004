package assertion

import (
	"encoding/json"
	"fmt"
	"reflect"

	"digital.vasic.apisuite/pkg/jsonpath"
)

// normalize converts a Go value into the shape encoding/json
// produces when decoding a body: numbers become float64, structs
// and typed maps become map[string]any and slices become []any.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize expected value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize expected value: %w", err)
	}
	return out, nil
}

// jsonEqual compares two normalized JSON values. Numbers compare
// numerically, so 2 and 2.0 are equal.
func jsonEqual(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !jsonEqual(x, y) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// display converts a value for inclusion in a Result so that the
// absent sentinel renders as text in reports.
func display(v any) any {
	if jsonpath.IsAbsent(v) {
		return "<absent>"
	}
	if arr, ok := v.([]any); ok {
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = display(item)
		}
		return out
	}
	return v
}
