package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected []Segment
	}{
		{name: "empty is root", expr: "", expected: nil},
		{name: "dollar is root", expr: "$", expected: nil},
		{name: "single field", expr: "page", expected: []Segment{Field("page")}},
		{
			name:     "nested fields",
			expr:     "data.email",
			expected: []Segment{Field("data"), Field("email")},
		},
		{
			name:     "dollar prefix",
			expr:     "$.data.id",
			expected: []Segment{Field("data"), Field("id")},
		},
		{
			name:     "index",
			expr:     "data[0].id",
			expected: []Segment{Field("data"), Index(0), Field("id")},
		},
		{
			name:     "star wildcard",
			expr:     "data[*].email",
			expected: []Segment{Field("data"), Wildcard(), Field("email")},
		},
		{
			name:     "empty bracket wildcard",
			expr:     "data[].email",
			expected: []Segment{Field("data"), Wildcard(), Field("email")},
		},
		{
			name:     "dotted star",
			expr:     "data.*.id",
			expected: []Segment{Field("data"), Wildcard(), Field("id")},
		},
		{
			name:     "quoted key",
			expr:     `meta["x.y"]`,
			expected: []Segment{Field("meta"), Field("x.y")},
		},
		{
			name:     "single quoted key",
			expr:     `meta['a]b']`,
			expected: []Segment{Field("meta"), Field("a]b")},
		},
		{
			name:     "nested indexes",
			expr:     "m[1][2]",
			expected: []Segment{Field("m"), Index(1), Index(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Segments())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "trailing dot", expr: "data."},
		{name: "double dot", expr: "data..id"},
		{name: "unclosed bracket", expr: "data[0"},
		{name: "negative index", expr: "data[-1]"},
		{name: "non numeric index", expr: "data[x]"},
		{name: "stray close bracket", expr: "data]"},
		{name: "unterminated quote", expr: `data["x]`},
		{name: "missing separator", expr: "data[0]id"},
		{name: "dot before index", expr: "data.[0]"},
		{name: "dot before wildcard", expr: "data.[*].email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			require.Error(t, err)
			var syn *SyntaxError
			assert.ErrorAs(t, err, &syn)
			assert.Equal(t, tt.expr, syn.Expr)
		})
	}
}

func TestParse_DotBeforeBracket(t *testing.T) {
	_, err := Parse("data.[0]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty field name")

	p, err := Parse("[0].id")
	require.NoError(t, err)
	assert.Equal(t, "[0].id", p.String())
}

func TestPath_String(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{expr: "", expected: "$"},
		{expr: "data.email", expected: "data.email"},
		{expr: "data[].email", expected: "data[*].email"},
		{expr: "data[3]", expected: "data[3]"},
		{expr: `meta["x.y"]`, expected: `meta["x.y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := MustParse(tt.expr)
			assert.Equal(t, tt.expected, p.String())

			again, err := Parse(p.String())
			require.NoError(t, err)
			assert.Equal(t, p.Segments(), again.Segments())
		})
	}
}

func TestPath_Predicates(t *testing.T) {
	assert.True(t, MustParse("$").IsRoot())
	assert.False(t, MustParse("a").IsRoot())
	assert.True(t, MustParse("a[*].b").HasWildcard())
	assert.False(t, MustParse("a.b").HasWildcard())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a..b") })
}

func TestSegmentKind_String(t *testing.T) {
	assert.Equal(t, "field", SegmentField.String())
	assert.Equal(t, "index", SegmentIndex.String())
	assert.Equal(t, "wildcard", SegmentWildcard.String())
	assert.Equal(t, "unknown", SegmentKind(99).String())
}
