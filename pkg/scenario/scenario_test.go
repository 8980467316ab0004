package scenario

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"digital.vasic.apisuite/pkg/assertion"
)

func TestBuilder_Build(t *testing.T) {
	s, err := New("Create user").
		Category("users").
		Post("/api/users").
		Header("x-api-key", "reqres-free-v1").
		JSON(map[string]string{"name": "John Doe", "job": "QA Engineer"}).
		Expect(
			assertion.StatusEquals(201),
			assertion.JSONFieldSatisfies("id", assertion.NotNull()),
		).
		Build()

	require.NoError(t, err)
	assert.Equal(t, ID("create-user"), s.ID())
	assert.Equal(t, "Create user", s.Name())
	assert.Equal(t, "users", s.Category())
	assert.Equal(t, http.MethodPost, s.Method())
	assert.Equal(t, "/api/users", s.Path())
	assert.Equal(t, "reqres-free-v1", s.Header().Get("X-Api-Key"))
	assert.Equal(t, BodyJSON, s.Body().Kind())
	assert.Len(t, s.Expectations(), 2)

	body, err := s.Body().Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"John Doe","job":"QA Engineer"}`, string(body))
}

func TestBuilder_ValueSemantics(t *testing.T) {
	base := New("List users").Get("/api/users").Query("page", "1")

	a := base.Query("per_page", "3").MustBuild()
	b := base.Query("delay", "1").MustBuild()
	c := base.MustBuild()

	assert.Equal(t, []QueryParam{{"page", "1"}, {"per_page", "3"}}, a.Query())
	assert.Equal(t, []QueryParam{{"page", "1"}, {"delay", "1"}}, b.Query())
	assert.Equal(t, []QueryParam{{"page", "1"}}, c.Query())

	withHeader := base.Header("X-A", "1")
	_ = withHeader.Header("X-A", "2")
	assert.Equal(t, "1", withHeader.MustBuild().Header().Get("X-A"))
	assert.Empty(t, base.MustBuild().Header())
}

func TestScenario_AccessorsReturnCopies(t *testing.T) {
	s := New("Single user").Get("/api/users/2").
		Query("a", "1").
		Header("X-A", "1").
		Expect(assertion.StatusEquals(200)).
		MustBuild()

	q := s.Query()
	q[0].Value = "changed"
	h := s.Header()
	h.Set("X-A", "changed")
	e := s.Expectations()
	e[0] = assertion.StatusEquals(500)

	assert.Equal(t, "1", s.Query()[0].Value)
	assert.Equal(t, "1", s.Header().Get("X-A"))
	assert.Equal(t, 200, s.Expectations()[0].Status)
}

func TestScenario_BodyFrozenAtBuild(t *testing.T) {
	payload := map[string]any{"name": "morpheus"}
	s := New("Update").Put("/api/users/2").JSON(payload).MustBuild()

	payload["name"] = "trinity"

	body, err := s.Body().Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"morpheus"}`, string(body))
}

func TestBuilder_Build_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder Builder
		msg     string
	}{
		{"missing name", New("").Get("/x"), "name is required"},
		{"missing path", New("x"), "path is required"},
		{"bad method", New("x").Request("TRACE", "/x"), "unsupported method"},
		{"two bodies", New("x").Post("/x").Raw("a").JSON(1), "at most one body"},
		{"bad expectation", New("x").Get("/x").Expect(assertion.StatusEquals(42)), "expectation 0"},
		{"unencodable body", New("x").Post("/x").JSON(func() {}), "encode body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuilder_MustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { New("").MustBuild() })
}

func TestBuilder_LowercaseMethod(t *testing.T) {
	s := New("x").Request("patch", "/api/users/2").MustBuild()
	assert.Equal(t, http.MethodPatch, s.Method())
}

func TestBody(t *testing.T) {
	var zero Body
	assert.True(t, zero.IsZero())
	data, err := zero.Bytes()
	require.NoError(t, err)
	assert.Nil(t, data)

	raw := RawBody(`{"email":"sydney@fife"}`)
	data, err = raw.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"email":"sydney@fife"}`, string(data))
	assert.Equal(t, `{"email":"sydney@fife"}`, raw.Value())
}

func TestSlug(t *testing.T) {
	tests := map[string]ID{
		"Get users list":              "get-users-list",
		"Login - missing password!":   "login-missing-password",
		"  leading and trailing  ":    "leading-and-trailing",
		"PUT /api/users/2":            "put-api-users-2",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestDefinition_Compile(t *testing.T) {
	src := `
id: login-missing-password
name: Login without password
category: auth
method: POST
path: /api/login
headers:
  x-api-key: reqres-free-v1
body:
  email: sydney@fife
expect:
  - type: status_equals
    value: 400
  - type: json_field_equals
    target: error
    value: Missing password
`
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(src), &def))

	s, err := def.Compile()
	require.NoError(t, err)
	assert.Equal(t, ID("login-missing-password"), s.ID())
	assert.Equal(t, "auth", s.Category())
	assert.Equal(t, http.MethodPost, s.Method())
	assert.Equal(t, "reqres-free-v1", s.Header().Get("x-api-key"))

	body, err := s.Body().Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"sydney@fife"}`, string(body))

	exps := s.Expectations()
	require.Len(t, exps, 2)
	assert.Equal(t, assertion.KindStatusEquals, exps[0].Kind)
	assert.Equal(t, "Missing password", exps[1].Value)
}

func TestDefinition_Compile_QueryOrder(t *testing.T) {
	src := `
name: Delayed
method: GET
path: /api/users
query:
  - {key: delay, value: "3"}
  - {key: page, value: "1"}
expect:
  - {type: response_time_under, value: 4s}
`
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(src), &def))

	s, err := def.Compile()
	require.NoError(t, err)
	assert.Equal(t, []QueryParam{{"delay", "3"}, {"page", "1"}}, s.Query())
	assert.Equal(t, 4*time.Second, s.Expectations()[0].Threshold)
}

func TestDefinition_Compile_Errors(t *testing.T) {
	raw := "x"
	tests := []struct {
		name string
		def  Definition
	}{
		{"bad expectation", Definition{Name: "a", Method: "GET", Path: "/", Expect: []assertion.Definition{{Type: "status_equals", Value: "x"}}}},
		{"both bodies", Definition{Name: "a", Method: "POST", Path: "/", Body: map[string]any{}, RawBody: &raw}},
		{"missing method", Definition{Name: "a", Path: "/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Compile()
			assert.Error(t, err)
		})
	}
}

func TestStatusFor(t *testing.T) {
	passed := []assertion.Result{{Passed: true}}
	failed := []assertion.Result{{Passed: true}, {Passed: false}}

	assert.Equal(t, StatusPassed, StatusFor(passed, nil))
	assert.Equal(t, StatusPassed, StatusFor(nil, nil))
	assert.Equal(t, StatusFailed, StatusFor(failed, nil))
	assert.Equal(t, StatusError, StatusFor(passed, errors.New("connection refused")))
}

func TestResults(t *testing.T) {
	rs := Results{
		{Name: "a", Category: "users", Status: StatusPassed},
		{Name: "b", Category: "users", Status: StatusFailed},
		{Name: "c", Category: "auth", Status: StatusError},
		{Name: "d", Category: "auth", Status: StatusSkipped},
		{Name: "e", Category: "auth", Status: StatusPassed},
	}

	assert.Equal(t, Counts{Total: 5, Passed: 2, Failed: 1, Errored: 1, Skipped: 1}, rs.Counts())
	assert.False(t, rs.OK())

	failed := rs.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "b", failed[0].Name)
	assert.Equal(t, "c", failed[1].Name)

	groups := rs.ByCategory()
	assert.Len(t, groups["users"], 2)
	assert.Len(t, groups["auth"], 3)

	assert.True(t, Results{{Status: StatusPassed}, {Status: StatusSkipped}}.OK())
	assert.True(t, Results{}.OK())
}

func TestSkipped(t *testing.T) {
	s := New("Delete user").Delete("/api/users/2").MustBuild()
	r := Skipped(s, "excluded by filter")

	assert.Equal(t, StatusSkipped, r.Status)
	assert.Equal(t, ID("delete-user"), r.ID)
	assert.Equal(t, http.MethodDelete, r.Method)
	assert.Equal(t, "excluded by filter", r.Reason)
	assert.False(t, r.Passed())
}
