package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetter(t *testing.T) {
	assert.True(t, Better(Greater, 5, 3))
	assert.False(t, Better(Greater, 3, 5))
	assert.True(t, Better(Less, 3, 5))
	assert.False(t, Better(Less, 5, 3))

	// Strict comparisons: equal never improves, so scans keep the first
	// occurrence on ties.
	assert.False(t, Better(Greater, 5, 5))
	assert.False(t, Better(Less, 5, 5))

	assert.True(t, Better(Greater, 1.5, -2.5))
	assert.True(t, Better(Less, "a", "b"))

	assert.Panics(t, func() { Better(ComparisonInvalid, 1, 2) })
	assert.Panics(t, func() { Better(Comparison(99), 1, 2) })
}

func TestComparisonStrings(t *testing.T) {
	assert.Equal(t, "Greater", Greater.String())
	assert.Equal(t, "Less", Less.String())
	assert.True(t, Greater.IsAComparison())
	assert.False(t, Comparison(99).IsAComparison())
}

func TestUnrolled(t *testing.T) {
	for _, test := range []struct {
		name       string
		pureVector bool
		unroll     bool
		want       bool
	}{
		{"pure vector defaults to a loop", true, false, false},
		{"unroll option overrides a pure vector", true, true, true},
		{"composed view always unrolls", false, false, true},
		{"composed view with unroll option", false, true, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := Unrolled(test.pureVector, CompileOptions{UnrollLoops: test.unroll})
			assert.Equal(t, test.want, got)
		})
	}
}
