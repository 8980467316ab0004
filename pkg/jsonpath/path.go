// Package jsonpath provides a small path expression type for
// selecting values inside decoded JSON documents. Paths are
// parsed once into explicit segments (field access, array index,
// array wildcard) and evaluated by Resolve.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind identifies the operation a path segment performs.
type SegmentKind int

const (
	// SegmentField selects an object member by name.
	SegmentField SegmentKind = iota
	// SegmentIndex selects an array element by position.
	SegmentIndex
	// SegmentWildcard maps the remaining path over every
	// element of an array.
	SegmentWildcard
)

// String returns the string representation of a segment kind.
func (k SegmentKind) String() string {
	switch k {
	case SegmentField:
		return "field"
	case SegmentIndex:
		return "index"
	case SegmentWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Segment is a single step of a Path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// Field returns a field access segment.
func Field(name string) Segment {
	return Segment{Kind: SegmentField, Name: name}
}

// Index returns an array index segment.
func Index(i int) Segment {
	return Segment{Kind: SegmentIndex, Index: i}
}

// Wildcard returns an array wildcard segment.
func Wildcard() Segment {
	return Segment{Kind: SegmentWildcard}
}

// Path is a parsed path expression. The zero value selects the
// document root.
type Path struct {
	segments []Segment
}

// New builds a Path from explicit segments.
func New(segments ...Segment) Path {
	return Path{segments: append([]Segment(nil), segments...)}
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// IsRoot reports whether the path selects the whole document.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// HasWildcard reports whether the path contains an explicit
// array wildcard.
func (p Path) HasWildcard() bool {
	for _, s := range p.segments {
		if s.Kind == SegmentWildcard {
			return true
		}
	}
	return false
}

// String renders the path in the syntax accepted by Parse.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "$"
	}
	var sb strings.Builder
	for i, s := range p.segments {
		switch s.Kind {
		case SegmentField:
			if needsQuoting(s.Name) {
				sb.WriteString("[")
				sb.WriteString(strconv.Quote(s.Name))
				sb.WriteString("]")
				continue
			}
			if i > 0 {
				sb.WriteString(".")
			}
			sb.WriteString(s.Name)
		case SegmentIndex:
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(s.Index))
			sb.WriteString("]")
		case SegmentWildcard:
			sb.WriteString("[*]")
		}
	}
	return sb.String()
}

func needsQuoting(name string) bool {
	return name == "" || strings.ContainsAny(name, ".[]\"' ")
}

// MustParse is like Parse but panics on a syntax error. It is
// intended for paths written as literals in Go code.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse parses a dotted/indexed path expression.
//
// Accepted forms:
//
//	""  or "$"         -> document root
//	"page"             -> field
//	"data.email"       -> nested field
//	"data[0].id"       -> array index
//	"data[*].email"    -> array wildcard
//	"data[].email"     -> array wildcard (short form)
//	`data["x.y"]`      -> quoted field name
func Parse(expr string) (Path, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return Path{}, nil
	}

	var segments []Segment
	i := 0
	expectName := true
	afterDot := false
	for i < len(s) {
		switch c := s[i]; {
		case c == '.':
			if expectName {
				return Path{}, syntaxError(expr, i, "empty field name")
			}
			expectName = true
			afterDot = true
			i++
		case c == '[':
			if afterDot {
				return Path{}, syntaxError(expr, i, "empty field name")
			}
			seg, next, err := parseBracket(expr, s, i)
			if err != nil {
				return Path{}, err
			}
			segments = append(segments, seg)
			expectName = false
			i = next
		default:
			if !expectName {
				return Path{}, syntaxError(expr, i, "expected '.' or '['")
			}
			start := i
			for i < len(s) && s[i] != '.' && s[i] != '[' {
				if s[i] == ']' {
					return Path{}, syntaxError(expr, i, "unexpected ']'")
				}
				i++
			}
			afterDot = false
			name := s[start:i]
			if name == "*" {
				segments = append(segments, Wildcard())
			} else {
				segments = append(segments, Field(name))
			}
			expectName = false
		}
	}
	if expectName {
		return Path{}, syntaxError(expr, len(s), "path ends with '.'")
	}
	return Path{segments: segments}, nil
}

// parseBracket parses a bracketed segment starting at s[start]
// == '['. It returns the segment and the index just after ']'.
func parseBracket(
	expr, s string, start int,
) (Segment, int, error) {
	end := strings.IndexByte(s[start:], ']')
	if end < 0 {
		return Segment{}, 0, syntaxError(expr, start, "unclosed '['")
	}
	end += start
	inner := strings.TrimSpace(s[start+1 : end])

	if inner == "" || inner == "*" {
		return Wildcard(), end + 1, nil
	}

	if inner[0] == '"' || inner[0] == '\'' {
		// A quoted name may itself contain ']', so look for the
		// closing quote first.
		quote := inner[0]
		closeQuote := strings.IndexByte(s[start+2:], quote)
		if closeQuote < 0 {
			return Segment{}, 0, syntaxError(expr, start, "unterminated quoted name")
		}
		closeQuote += start + 2
		if closeQuote+1 >= len(s) || s[closeQuote+1] != ']' {
			return Segment{}, 0, syntaxError(expr, closeQuote, "expected ']' after quoted name")
		}
		return Field(s[start+2 : closeQuote]), closeQuote + 2, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return Segment{}, 0, syntaxError(
			expr, start, fmt.Sprintf("invalid array index %q", inner),
		)
	}
	return Index(n), end + 1, nil
}

// SyntaxError describes a malformed path expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf(
		"invalid path %q at offset %d: %s",
		e.Expr, e.Offset, e.Reason,
	)
}

func syntaxError(expr string, offset int, reason string) error {
	return &SyntaxError{Expr: expr, Offset: offset, Reason: reason}
}
