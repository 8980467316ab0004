package assertion

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"digital.vasic.apisuite/pkg/jsonpath"
)

// PredicateKind names a value predicate.
type PredicateKind string

const (
	// PredicateNotNull holds for any present, non-null value.
	PredicateNotNull PredicateKind = "not_null"
	// PredicateNonEmpty holds for non-null values that are not
	// an empty string, array or object.
	PredicateNonEmpty PredicateKind = "non_empty"
	// PredicateContains holds for strings containing Arg, or
	// arrays with an element equal to Arg.
	PredicateContains PredicateKind = "contains"
	// PredicateEveryItemNotNull holds for arrays whose elements
	// are all non-null.
	PredicateEveryItemNotNull PredicateKind = "every_item_not_null"
	// PredicateExpr holds when the boolean expression in Arg
	// evaluates to true with the value bound to `value`.
	PredicateExpr PredicateKind = "expr"
)

// Predicate is a named boolean test over one JSON value.
type Predicate struct {
	Kind PredicateKind `json:"kind"`
	Arg  string        `json:"arg,omitempty"`
}

// NotNull returns the not_null predicate.
func NotNull() Predicate { return Predicate{Kind: PredicateNotNull} }

// NonEmpty returns the non_empty predicate.
func NonEmpty() Predicate { return Predicate{Kind: PredicateNonEmpty} }

// Contains returns a predicate matching strings that contain s.
func Contains(s string) Predicate {
	return Predicate{Kind: PredicateContains, Arg: s}
}

// EveryItemNotNull returns the every_item_not_null predicate.
func EveryItemNotNull() Predicate {
	return Predicate{Kind: PredicateEveryItemNotNull}
}

// Expr returns a predicate backed by an expr-lang boolean
// expression, e.g. `value > 0 && value < 13`.
func Expr(source string) Predicate {
	return Predicate{Kind: PredicateExpr, Arg: source}
}

// IsZero reports whether p is unset.
func (p Predicate) IsZero() bool {
	return p.Kind == ""
}

// String renders the predicate in the compact form accepted by
// ParsePredicate.
func (p Predicate) String() string {
	if p.Arg == "" && p.Kind != PredicateContains {
		return string(p.Kind)
	}
	return string(p.Kind) + ":" + p.Arg
}

// Validate checks that the predicate is well formed.
func (p Predicate) Validate() error {
	switch p.Kind {
	case PredicateNotNull, PredicateNonEmpty,
		PredicateEveryItemNotNull, PredicateContains:
		return nil
	case PredicateExpr:
		if strings.TrimSpace(p.Arg) == "" {
			return fmt.Errorf("expr predicate requires an expression")
		}
		_, err := compileExpr(p.Arg)
		return err
	case "":
		return fmt.Errorf("predicate is empty")
	default:
		return fmt.Errorf("unknown predicate: %s", p.Kind)
	}
}

func compileExpr(source string) (*vm.Program, error) {
	program, err := expr.Compile(
		source,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", source, err)
	}
	return program, nil
}

// predicateCheck is a compiled predicate. A returned failure
// class distinguishes an absent value from a mismatch.
type predicateCheck func(v any) (bool, FailureClass, string)

func (p Predicate) compile() (predicateCheck, error) {
	switch p.Kind {
	case PredicateNotNull:
		return checkNotNull, nil
	case PredicateNonEmpty:
		return checkNonEmpty, nil
	case PredicateContains:
		arg := p.Arg
		return func(v any) (bool, FailureClass, string) {
			return checkContains(arg, v)
		}, nil
	case PredicateEveryItemNotNull:
		return checkEveryItemNotNull, nil
	case PredicateExpr:
		program, err := compileExpr(p.Arg)
		if err != nil {
			return nil, err
		}
		return func(v any) (bool, FailureClass, string) {
			return checkExpr(program, p.Arg, v)
		}, nil
	default:
		return nil, p.Validate()
	}
}

func checkNotNull(v any) (bool, FailureClass, string) {
	if jsonpath.IsAbsent(v) {
		return false, FailureFieldAbsent, "field absent"
	}
	if v == nil {
		return false, FailureFieldMismatch, "value is null"
	}
	return true, FailureNone, "value is not null"
}

func checkNonEmpty(v any) (bool, FailureClass, string) {
	if ok, class, msg := checkNotNull(v); !ok {
		return ok, class, msg
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return false, FailureFieldMismatch, "string is empty"
		}
	case []any:
		if len(val) == 0 {
			return false, FailureFieldMismatch, "array is empty"
		}
	case map[string]any:
		if len(val) == 0 {
			return false, FailureFieldMismatch, "object is empty"
		}
	}
	return true, FailureNone, "value is not empty"
}

func checkContains(substr string, v any) (bool, FailureClass, string) {
	if ok, class, msg := checkNotNull(v); !ok {
		return ok, class, msg
	}
	switch val := v.(type) {
	case string:
		if strings.Contains(val, substr) {
			return true, FailureNone, fmt.Sprintf("value contains %q", substr)
		}
		return false, FailureFieldMismatch,
			fmt.Sprintf("%q does not contain %q", val, substr)
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && s == substr {
				return true, FailureNone,
					fmt.Sprintf("array contains %q", substr)
			}
		}
		return false, FailureFieldMismatch,
			fmt.Sprintf("array has no element %q", substr)
	default:
		return false, FailureFieldMismatch,
			fmt.Sprintf("value is not a string (%T)", v)
	}
}

func checkEveryItemNotNull(v any) (bool, FailureClass, string) {
	if ok, class, msg := checkNotNull(v); !ok {
		return ok, class, msg
	}
	arr, ok := v.([]any)
	if !ok {
		return false, FailureFieldMismatch,
			fmt.Sprintf("value is not an array (%T)", v)
	}
	for i, item := range arr {
		if item == nil {
			return false, FailureFieldMismatch,
				fmt.Sprintf("item %d is null", i)
		}
	}
	return true, FailureNone,
		fmt.Sprintf("all %d items are not null", len(arr))
}

func checkExpr(program *vm.Program, source string, v any) (bool, FailureClass, string) {
	if jsonpath.IsAbsent(v) {
		return false, FailureFieldAbsent, "field absent"
	}
	out, err := expr.Run(program, map[string]any{"value": v})
	if err != nil {
		return false, FailureInvalidExpectation,
			fmt.Sprintf("evaluate %q: %v", source, err)
	}
	if b, ok := out.(bool); ok && b {
		return true, FailureNone, fmt.Sprintf("%s holds", source)
	}
	return false, FailureFieldMismatch,
		fmt.Sprintf("%s does not hold for %v", source, display(v))
}
