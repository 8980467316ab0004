package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.apisuite/pkg/scenario"
)

func TestRegexList(t *testing.T) {
	var r RegexList
	assert.False(t, r.IsDefined())
	require.NoError(t, r.Set("^login"))
	require.NoError(t, r.Set("register$"))
	assert.True(t, r.IsDefined())
	assert.True(t, r.AnyMatch("login successful"))
	assert.True(t, r.AnyMatch("user register"))
	assert.False(t, r.AnyMatch("list users"))
	assert.Equal(t, `"^login" or "register$"`, r.String())
	assert.Equal(t, "regex", r.Type())

	assert.Error(t, r.Set("("))
	_, err := ParseRegexList("ok", "[")
	assert.Error(t, err)
}

func TestFilters_Allow(t *testing.T) {
	s := scenario.New("Login successful").Category("auth").Post("/api/login").MustBuild()

	tests := []struct {
		name   string
		run    []string
		skip   []string
		want   bool
		reason string
	}{
		{name: "no filters", want: true},
		{name: "run matches name", run: []string{"^Login"}, want: true},
		{name: "run matches id", run: []string{"^login-successful$"}, want: true},
		{name: "run matches category", run: []string{"^auth/"}, want: true},
		{name: "run misses", run: []string{"users"}, want: false, reason: "not matching"},
		{name: "skip matches", skip: []string{"successful"}, want: false, reason: "matching skip"},
		{name: "skip wins over run", run: []string{"Login"}, skip: []string{"Login"}, want: false, reason: "matching skip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := ParseRegexList(tt.run...)
			require.NoError(t, err)
			skip, err := ParseRegexList(tt.skip...)
			require.NoError(t, err)

			ok, reason := Filters{Run: run, Skip: skip}.Allow(s)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, reason, tt.reason)
		})
	}
}

func TestFilters_Describe(t *testing.T) {
	assert.Empty(t, Filters{}.Describe())

	run, _ := ParseRegexList("users")
	skip, _ := ParseRegexList("delay")
	assert.Equal(t,
		"skip any not matching \"users\"\nskip any matching \"delay\"",
		Filters{Run: run, Skip: skip}.Describe())
}
