package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnyOf_OnePasses(t *testing.T) {
	e := NewEngine()

	r := e.Evaluate(
		AnyOf(StatusEquals(200), StatusEquals(204)),
		jsonResponse(204, ``),
	)

	assert.True(t, r.Passed)
	assert.Equal(t, KindAnyOf, r.Kind)
	assert.Contains(t, r.Message, "status == 204")
}

func TestAnyOf_NonePass(t *testing.T) {
	e := NewEngine()

	r := e.Evaluate(
		AnyOf(StatusEquals(200), StatusEquals(204)),
		jsonResponse(500, `{}`),
	)

	assert.False(t, r.Passed)
	assert.Equal(t, FailureStatusMismatch, r.Failure)
	assert.Contains(t, r.Message, "none of 2 expectations passed")
}

func TestAnyOf_NoChildren(t *testing.T) {
	r := NewEngine().Evaluate(
		Expectation{Kind: KindAnyOf},
		jsonResponse(200, `{}`),
	)
	assert.False(t, r.Passed)
	assert.Equal(t, FailureInvalidExpectation, r.Failure)
}
