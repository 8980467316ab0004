package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONReporter_Generate(t *testing.T) {
	data, err := NewJSONReporter(false).Generate(makeTestRun())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-001", doc["run_id"])
	assert.Equal(t, "https://reqres.in", doc["base_url"])
	assert.Equal(t, false, doc["ok"])
	assert.Equal(t, float64(5000), doc["duration_ms"])

	counts := doc["counts"].(map[string]any)
	assert.Equal(t, float64(4), counts["total"])
	assert.Equal(t, float64(1), counts["failed"])

	results := doc["results"].([]any)
	require.Len(t, results, 4)
	failed := results[1].(map[string]any)
	assert.Equal(t, "failed", failed["status"])
	exps := failed["expectations"].([]any)
	second := exps[1].(map[string]any)
	assert.Equal(t, "field_mismatch", second["failure"])
	assert.Equal(t, float64(2), second["expected"])
	assert.Equal(t, float64(3), second["actual"])
}

func TestJSONReporter_Pretty(t *testing.T) {
	compact, err := NewJSONReporter(false).Generate(makeTestRun())
	require.NoError(t, err)
	pretty, err := NewJSONReporter(true).Generate(makeTestRun())
	require.NoError(t, err)

	assert.False(t, strings.Contains(string(compact), "\n  "))
	assert.True(t, strings.Contains(string(pretty), "\n  \"run_id\""))
}

func TestJSONReporter_EmptyResultsIsArray(t *testing.T) {
	data, err := NewJSONReporter(false).Generate(&Run{ID: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
	assert.Contains(t, string(data), `"ok":true`)
}

func TestJSONReporter_MarshalErrors(t *testing.T) {
	origMarshal, origIndent := jsonMarshal, jsonMarshalIndent
	t.Cleanup(func() {
		jsonMarshal, jsonMarshalIndent = origMarshal, origIndent
	})
	jsonMarshal = func(v any) ([]byte, error) { return nil, assert.AnError }
	jsonMarshalIndent = func(v any, prefix, indent string) ([]byte, error) {
		return nil, assert.AnError
	}

	_, err := NewJSONReporter(false).Generate(makeTestRun())
	assert.Error(t, err)
	_, err = NewJSONReporter(true).Generate(makeTestRun())
	assert.Error(t, err)

	var sb strings.Builder
	assert.Error(t, NewJSONReporter(false).Write(&sb, makeTestRun()))
}
