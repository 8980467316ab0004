package jsonpath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersPage = `{
	"page": 2,
	"per_page": 3,
	"data": [
		{"id": 7, "email": "michael.lawson@reqres.in", "tags": ["a", "b"]},
		{"id": 8, "email": "lindsay.ferguson@reqres.in", "tags": []},
		{"id": 9, "email": "tobias.funke@reqres.in", "tags": ["c"]}
	],
	"support": {"url": "https://reqres.in/#support-heading", "text": null},
	"empty": []
}`

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestResolve_Single(t *testing.T) {
	doc := decode(t, usersPage)

	tests := []struct {
		name     string
		expr     string
		expected any
	}{
		{name: "number", expr: "page", expected: float64(2)},
		{name: "nested string", expr: "support.url", expected: "https://reqres.in/#support-heading"},
		{name: "explicit null", expr: "support.text", expected: nil},
		{name: "indexed", expr: "data[1].id", expected: float64(8)},
		{name: "missing field", expr: "missing", expected: Absent},
		{name: "missing nested", expr: "support.nothing", expected: Absent},
		{name: "index out of range", expr: "data[10].id", expected: Absent},
		{name: "field on scalar", expr: "page.value", expected: Absent},
		{name: "index on object", expr: "support[0]", expected: Absent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ResolveString(doc, tt.expr)
			require.NoError(t, err)
			assert.False(t, sel.IsSequence())
			assert.Equal(t, tt.expected, sel.Value())
		})
	}
}

func TestResolve_AbsentDistinctFromNull(t *testing.T) {
	doc := decode(t, `{"a": null}`)

	null := Resolve(doc, MustParse("a"))
	missing := Resolve(doc, MustParse("b"))

	assert.False(t, null.IsAbsent())
	assert.Nil(t, null.Value())
	assert.True(t, missing.IsAbsent())
	assert.True(t, IsAbsent(missing.Value()))
	assert.False(t, IsAbsent(nil))
}

func TestResolve_Root(t *testing.T) {
	doc := decode(t, `{}`)
	sel := Resolve(doc, Path{})
	assert.Equal(t, map[string]any{}, sel.Value())
}

func TestResolve_Wildcard(t *testing.T) {
	doc := decode(t, usersPage)

	sel := Resolve(doc, MustParse("data[*].email"))
	require.True(t, sel.IsSequence())
	assert.Equal(t, []any{
		"michael.lawson@reqres.in",
		"lindsay.ferguson@reqres.in",
		"tobias.funke@reqres.in",
	}, sel.Values())
}

func TestResolve_FieldOnArrayMaps(t *testing.T) {
	doc := decode(t, usersPage)

	sel := Resolve(doc, MustParse("data.id"))
	require.True(t, sel.IsSequence())
	assert.Equal(t, []any{float64(7), float64(8), float64(9)}, sel.Values())
}

func TestResolve_NestedSequencesFlatten(t *testing.T) {
	doc := decode(t, usersPage)

	sel := Resolve(doc, MustParse("data[*].tags[*]"))
	require.True(t, sel.IsSequence())
	assert.Equal(t, []any{"a", "b", "c"}, sel.Values())
}

func TestResolve_WildcardKeepsAbsentItems(t *testing.T) {
	doc := decode(t, `{"data": [{"id": 1}, {"name": "x"}]}`)

	sel := Resolve(doc, MustParse("data[*].id"))
	require.True(t, sel.IsSequence())
	require.Equal(t, 2, sel.Len())
	assert.Equal(t, float64(1), sel.Values()[0])
	assert.True(t, IsAbsent(sel.Values()[1]))
	assert.False(t, sel.IsAbsent())
}

func TestResolve_EmptyArrayWildcard(t *testing.T) {
	doc := decode(t, usersPage)

	sel := Resolve(doc, MustParse("empty[*].id"))
	assert.True(t, sel.IsSequence())
	assert.Equal(t, 0, sel.Len())
}

func TestResolve_AbsentBeforeWildcard(t *testing.T) {
	doc := decode(t, usersPage)

	sel := Resolve(doc, MustParse("nothing[*].id"))
	assert.False(t, sel.IsSequence())
	assert.True(t, sel.IsAbsent())
}

func TestResolve_Deterministic(t *testing.T) {
	doc := decode(t, usersPage)
	p := MustParse("data[*].email")

	first := Resolve(doc, p)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Values(), Resolve(doc, p).Values())
	}
}

func TestResolveString_InvalidPath(t *testing.T) {
	_, err := ResolveString(map[string]any{}, "a[")
	assert.Error(t, err)
}

func TestSelection_String(t *testing.T) {
	assert.Equal(t, "<absent>", Single(Absent).String())
	assert.Equal(t, "[1 2]", Sequence([]any{1, 2}).String())
	assert.Equal(t, "x", Single("x").String())
}
