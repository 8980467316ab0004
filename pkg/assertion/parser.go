package assertion

import (
	"fmt"
	"strings"
)

// splitCompact parses a compact string of the form "type:arg"
// into its components. If no colon is present the entire string
// is treated as the type and arg is empty.
//
// Examples:
//
//	"contains:@"     -> ("contains", "@", true)
//	"not_null"       -> ("not_null", "", false)
//	"expr:value > 0" -> ("expr", "value > 0", true)
func splitCompact(s string) (kind, arg string, hasArg bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	kind = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		return kind, parts[1], true
	}
	return kind, "", false
}

// ParsePredicate parses a predicate from its compact form.
//
// Examples:
//
//	"not_null"
//	"non_empty"
//	"contains:@"
//	"every_item_not_null"
//	"expr:value >= 1 && value <= 12"
func ParsePredicate(s string) (Predicate, error) {
	kind, arg, hasArg := splitCompact(s)
	p := Predicate{Kind: PredicateKind(kind), Arg: arg}

	switch p.Kind {
	case PredicateContains, PredicateExpr:
		if !hasArg {
			return Predicate{}, fmt.Errorf(
				"predicate %s requires an argument", kind,
			)
		}
	case PredicateNotNull, PredicateNonEmpty, PredicateEveryItemNotNull:
		if hasArg {
			return Predicate{}, fmt.Errorf(
				"predicate %s takes no argument", kind,
			)
		}
	}

	if err := p.Validate(); err != nil {
		return Predicate{}, err
	}
	return p, nil
}
