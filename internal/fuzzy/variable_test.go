package fuzzy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverseSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		u     Universe
		count int
		last  float64
	}{
		{name: "integer steps", u: Universe{Min: 0, Max: 5, Resolution: 1}, count: 6, last: 5},
		{name: "tenths", u: Universe{Min: 0, Max: 1, Resolution: 0.1}, count: 11, last: 1},
		{name: "hundredths", u: Universe{Min: 0, Max: 1, Resolution: 0.01}, count: 101, last: 1},
		{name: "uneven span keeps max", u: Universe{Min: 0, Max: 1, Resolution: 0.3}, count: 5, last: 1},
		{name: "negative bounds", u: Universe{Min: -2, Max: 2, Resolution: 0.5}, count: 9, last: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			xs := tt.u.Samples()
			require.Len(t, xs, tt.count)
			assert.Equal(t, tt.u.Min, xs[0])
			assert.Equal(t, tt.last, xs[len(xs)-1])
			for i := 1; i < len(xs); i++ {
				assert.Greater(t, xs[i], xs[i-1])
			}
		})
	}
}

func TestNewUniverseValidation(t *testing.T) {
	t.Parallel()

	for _, u := range []Universe{
		{Min: 1, Max: 1, Resolution: 0.1},
		{Min: 2, Max: 1, Resolution: 0.1},
		{Min: 0, Max: 1, Resolution: 0},
		{Min: 0, Max: 1, Resolution: 2},
	} {
		_, err := NewUniverse(u.Min, u.Max, u.Resolution)
		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "universe %+v", u)
	}

	u, err := NewUniverse(0, 5, 1)
	require.NoError(t, err)
	assert.True(t, u.Contains(0))
	assert.True(t, u.Contains(5))
	assert.False(t, u.Contains(5.01))
	assert.False(t, u.Contains(-0.01))
}

func TestVariableTermsAndFuzzify(t *testing.T) {
	t.Parallel()

	v := mustVar(t, "Logic", Input, 0, 5, 1)
	v.AddTerm("low", mustTri(t, 0, 0, 2))
	v.AddTerm("medium", mustTri(t, 1, 2.5, 4))
	v.AddTerm("high", mustTri(t, 3, 5, 5))

	assert.Equal(t, []string{"low", "medium", "high"}, v.Terms())
	assert.Equal(t, Input, v.Role())
	assert.Equal(t, "input", v.Role().String())

	// Degrees are not normalised across terms.
	d := v.Fuzzify(1.5)
	assert.InDelta(t, 0.25, d["low"], 1e-12)
	assert.InDelta(t, 1.0/3, d["medium"], 1e-12)
	assert.Equal(t, 0.0, d["high"])

	// Last registration wins and keeps its position.
	v.AddTerm("low", mustTri(t, 0, 0, 4))
	assert.Equal(t, []string{"low", "medium", "high"}, v.Terms())
	assert.InDelta(t, 0.625, v.Fuzzify(1.5)["low"], 1e-12)

	curves := v.Curve()
	require.Len(t, curves["high"], 6)
	assert.Equal(t, []float64{0, 0, 0, 0, 0.5, 1}, curves["high"])
}

func TestNewVariableValidation(t *testing.T) {
	t.Parallel()

	_, err := NewVariable("", Input, Universe{Min: 0, Max: 1, Resolution: 0.1})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewVariable("Broken", Output, Universe{Min: 1, Max: 0, Resolution: 0.1})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "variable Broken", cfgErr.Subject)
}
