package fuzzy

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTri(t *testing.T, a, b, c float64) MembershipFunction {
	t.Helper()
	mf, err := Triangular(a, b, c)
	require.NoError(t, err)
	return mf
}

func mustVar(t *testing.T, name string, role Role, lower, upper, res float64) *Variable {
	t.Helper()
	u, err := NewUniverse(lower, upper, res)
	require.NoError(t, err)
	v, err := NewVariable(name, role, u)
	require.NoError(t, err)
	return v
}

// skillMatch builds the two-variable system used throughout the engine tests.
func skillMatch(t *testing.T, rules ...Rule) *RuleBase {
	t.Helper()

	skill := mustVar(t, "Skill", Input, 0, 5, 0.01)
	skill.AddTerm("low", mustTri(t, 0, 0, 2))
	skill.AddTerm("high", mustTri(t, 3, 5, 5))

	match := mustVar(t, "Match", Output, 0, 1, 0.01)
	match.AddTerm("low", mustTri(t, 0, 0, 0.5))
	match.AddTerm("high", mustTri(t, 0.5, 1, 1))

	if len(rules) == 0 {
		rules = []Rule{
			NewRule(Is("Skill", "low"), Clause{"Match", "low"}),
			NewRule(Is("Skill", "high"), Clause{"Match", "high"}),
		}
	}

	rb, err := NewRuleBase([]*Variable{skill, match}, rules)
	require.NoError(t, err)
	return rb
}

func mustEngine(t *testing.T, rb *RuleBase, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(rb, opts...)
	require.NoError(t, err)
	return e
}

func TestEngineEndToEndCentroid(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, skillMatch(t))

	tests := []struct {
		name     string
		skill    float64
		expect   float64
		degraded bool
	}{
		// Centroid of the full high triangle (0.5,1,1) is 5/6.
		{name: "top rating", skill: 5, expect: 5.0 / 6},
		// Centroid of the full low triangle (0,0,0.5) is 1/6.
		{name: "bottom rating", skill: 0, expect: 1.0 / 6},
		// high fires at 0.5; clipped triangle centroid is 0.8056.
		{name: "upper half", skill: 4, expect: 0.8056},
		{name: "lower half", skill: 1, expect: 0.1944},
		// Neither term covers 2.5.
		{name: "gap between terms", skill: 2.5, expect: DegradedValue, degraded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := engine.Compute(map[string]float64{"Skill": tt.skill})
			require.NoError(t, err)

			out := res.Outputs["Match"]
			assert.Equal(t, tt.degraded, out.Degraded)
			assert.InDelta(t, tt.expect, out.Value, 0.01)
		})
	}
}

func TestEngineEndToEndMeanOfMaximum(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, skillMatch(t), WithDefuzzifier(MeanOfMaximum))

	res, err := engine.Compute(map[string]float64{"Skill": 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Outputs["Match"].Value, 0.02)

	res, err = engine.Compute(map[string]float64{"Skill": 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Outputs["Match"].Value, 0.02)
	assert.False(t, res.Outputs["Match"].Degraded)

	res, err = engine.Compute(map[string]float64{"Skill": 4})
	require.NoError(t, err)
	out := res.Outputs["Match"]
	assert.Greater(t, out.Value, 0.1)
	assert.Less(t, out.Value, 0.9)
	assert.False(t, out.Degraded)
}

func TestEngineNoRuleFiresIsDegraded(t *testing.T) {
	t.Parallel()

	for _, m := range Methods() {
		m := m
		t.Run(string(m), func(t *testing.T) {
			t.Parallel()
			engine := mustEngine(t, skillMatch(t), WithDefuzzifier(m))

			res, err := engine.Compute(map[string]float64{"Skill": 2.5})
			require.NoError(t, err)

			for _, s := range res.Strengths {
				assert.Equal(t, 0.0, s)
			}
			for _, y := range res.Curves["Match"].Y {
				require.Equal(t, 0.0, y)
			}
			assert.Equal(t, OutputValue{Value: 0, Degraded: true}, res.Outputs["Match"])
			assert.Equal(t, []string{"Match"}, res.DegradedOutputs([]string{"Match"}))
		})
	}
}

func TestEngineIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, skillMatch(t))
	inputs := map[string]float64{"Skill": 3.7}

	first, err := engine.Compute(inputs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Compute(inputs)
		require.NoError(t, err)
		assert.Equal(t, first.Outputs, again.Outputs)
		assert.Equal(t, first.Strengths, again.Strengths)
	}
}

func TestEngineMonotonicSingleRule(t *testing.T) {
	t.Parallel()

	rb := skillMatch(t, NewRule(Is("Skill", "high"), Clause{"Match", "high"}))
	engine := mustEngine(t, rb)

	prev := -1.0
	for skill := 0.0; skill <= 5.0; skill += 0.05 {
		res, err := engine.Compute(map[string]float64{"Skill": skill})
		require.NoError(t, err)
		v := res.Outputs["Match"].Value
		require.GreaterOrEqual(t, v, prev-1e-9, "Match decreased at Skill=%v", skill)
		prev = v
	}
}

func TestEngineFinerResolutionConverges(t *testing.T) {
	t.Parallel()

	build := func(res float64) *Engine {
		skill := mustVar(t, "Skill", Input, 0, 5, 1)
		skill.AddTerm("high", mustTri(t, 3, 5, 5))
		match := mustVar(t, "Match", Output, 0, 1, res)
		match.AddTerm("high", mustTri(t, 0.5, 1, 1))
		rb, err := NewRuleBase([]*Variable{skill, match}, []Rule{
			NewRule(Is("Skill", "high"), Clause{"Match", "high"}),
		})
		require.NoError(t, err)
		return mustEngine(t, rb)
	}

	analytic := 5.0 / 6
	coarse, err := build(0.1).Compute(map[string]float64{"Skill": 5})
	require.NoError(t, err)
	fine, err := build(0.001).Compute(map[string]float64{"Skill": 5})
	require.NoError(t, err)

	coarseErr := abs(coarse.Outputs["Match"].Value - analytic)
	fineErr := abs(fine.Outputs["Match"].Value - analytic)
	assert.Less(t, fineErr, coarseErr)
	assert.InDelta(t, analytic, fine.Outputs["Match"].Value, 0.001)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestEngineOutputsDoNotInteract(t *testing.T) {
	t.Parallel()

	skill := mustVar(t, "Skill", Input, 0, 5, 1)
	skill.AddTerm("high", mustTri(t, 3, 5, 5))
	a := mustVar(t, "A", Output, 0, 1, 0.01)
	a.AddTerm("high", mustTri(t, 0.5, 1, 1))
	b := mustVar(t, "B", Output, 0, 1, 0.01)
	b.AddTerm("high", mustTri(t, 0.5, 1, 1))

	rb, err := NewRuleBase([]*Variable{skill, a, b}, []Rule{
		NewRule(Is("Skill", "high"), Clause{"A", "high"}),
	})
	require.NoError(t, err)

	res, err := mustEngine(t, rb).Compute(map[string]float64{"Skill": 5})
	require.NoError(t, err)
	assert.False(t, res.Outputs["A"].Degraded)
	assert.True(t, res.Outputs["B"].Degraded)
}

func TestEngineSymmetricShapeMethodsAgree(t *testing.T) {
	t.Parallel()

	skill := mustVar(t, "Skill", Input, 0, 5, 1)
	skill.AddTerm("any", mustTri(t, 0, 2.5, 5))
	match := mustVar(t, "Match", Output, 0, 1, 0.01)
	match.AddTerm("medium", mustTri(t, 0.25, 0.5, 0.75))
	rb, err := NewRuleBase([]*Variable{skill, match}, []Rule{
		NewRule(Is("Skill", "any"), Clause{"Match", "medium"}),
	})
	require.NoError(t, err)

	for _, m := range Methods() {
		res, err := mustEngine(t, rb, WithDefuzzifier(m)).Compute(map[string]float64{"Skill": 2.5})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res.Outputs["Match"].Value, 0.011, "method %s", m)
	}
}

func TestEngineClippedPlateauMethods(t *testing.T) {
	t.Parallel()

	// Skill=4 fires high at 0.5, so the peak is the plateau [0.75, 1].
	rb := skillMatch(t)
	inputs := map[string]float64{"Skill": 4}

	som, err := mustEngine(t, rb, WithDefuzzifier(SmallestOfMaximum)).Compute(inputs)
	require.NoError(t, err)
	lom, err := mustEngine(t, rb, WithDefuzzifier(LargestOfMaximum)).Compute(inputs)
	require.NoError(t, err)
	mom, err := mustEngine(t, rb, WithDefuzzifier(MeanOfMaximum)).Compute(inputs)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, som.Outputs["Match"].Value, 0.011)
	assert.InDelta(t, 1.0, lom.Outputs["Match"].Value, 1e-9)
	assert.InDelta(t, 0.875, mom.Outputs["Match"].Value, 0.011)
}

func TestEngineRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(skillMatch(t), WithDefuzzifier("median"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewEngine(nil)
	require.True(t, errors.As(err, &cfgErr))
}

func TestEngineMissingInput(t *testing.T) {
	t.Parallel()

	_, err := mustEngine(t, skillMatch(t)).Compute(map[string]float64{})
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "Skill", valErr.Variable)
}

func TestEngineConcurrentCompute(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, skillMatch(t))
	want, err := engine.Compute(map[string]float64{"Skill": 4.2})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.Compute(map[string]float64{"Skill": 4.2})
			if err != nil {
				errs <- err
				return
			}
			if got.Outputs["Match"] != want.Outputs["Match"] {
				errs <- errors.New("concurrent compute diverged")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
