package fuzzy

import "math"

// Role tags a variable as an antecedent input or a consequent output.
type Role int

const (
	Input Role = iota
	Output
)

func (r Role) String() string {
	if r == Output {
		return "output"
	}
	return "input"
}

// Universe is the closed interval a variable is defined on, sampled every
// Resolution units for aggregation and defuzzification.
type Universe struct {
	Min        float64
	Max        float64
	Resolution float64
}

// NewUniverse validates the bounds and the sampling step.
func NewUniverse(lower, upper, resolution float64) (Universe, error) {
	u := Universe{Min: lower, Max: upper, Resolution: resolution}
	if err := u.validate("universe"); err != nil {
		return Universe{}, err
	}
	return u, nil
}

func (u Universe) validate(subject string) error {
	for _, v := range []float64{u.Min, u.Max, u.Resolution} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return configErrorf(subject, "bounds and resolution must be finite")
		}
	}
	if u.Min >= u.Max {
		return configErrorf(subject, "min %g must be less than max %g", u.Min, u.Max)
	}
	if u.Resolution <= 0 || u.Resolution > u.Max-u.Min {
		return configErrorf(subject, "resolution %g must be in (0, %g]", u.Resolution, u.Max-u.Min)
	}
	return nil
}

// Contains reports whether v lies within the closed interval.
func (u Universe) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= u.Min && v <= u.Max
}

// Samples returns the discretised points Min, Min+Resolution, ... up to Max.
// Max is always the last point, even when the span is not a multiple of the
// resolution.
func (u Universe) Samples() []float64 {
	span := u.Max - u.Min
	steps := int(math.Floor(span/u.Resolution + 1e-9))
	points := make([]float64, 0, steps+2)
	for i := 0; i <= steps; i++ {
		points = append(points, u.Min+float64(i)*u.Resolution)
	}
	last := points[len(points)-1]
	if u.Max-last > u.Resolution*1e-6 {
		points = append(points, u.Max)
	} else {
		points[len(points)-1] = u.Max
	}
	return points
}

// Term is a named fuzzy set belonging to one variable.
type Term struct {
	Name       string
	Membership MembershipFunction
}

// Variable is a linguistic variable: a universe plus named terms.
type Variable struct {
	name     string
	universe Universe
	role     Role
	terms    map[string]Term
	// order keeps terms in registration order for stable iteration.
	order []string
}

// NewVariable creates a variable without terms.
func NewVariable(name string, role Role, universe Universe) (*Variable, error) {
	if name == "" {
		return nil, configErrorf("variable", "name is required")
	}
	if err := universe.validate("variable " + name); err != nil {
		return nil, err
	}
	return &Variable{
		name:     name,
		universe: universe,
		role:     role,
		terms:    make(map[string]Term),
	}, nil
}

// AddTerm registers a term, replacing an existing one with the same name.
func (v *Variable) AddTerm(name string, mf MembershipFunction) {
	if _, ok := v.terms[name]; !ok {
		v.order = append(v.order, name)
	}
	v.terms[name] = Term{Name: name, Membership: mf}
}

func (v *Variable) Name() string       { return v.name }
func (v *Variable) Role() Role         { return v.role }
func (v *Variable) Universe() Universe { return v.universe }

// Term looks up a term by name.
func (v *Variable) Term(name string) (Term, bool) {
	t, ok := v.terms[name]
	return t, ok
}

// Terms returns term names in registration order.
func (v *Variable) Terms() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Fuzzify evaluates every term at x independently.
func (v *Variable) Fuzzify(x float64) map[string]float64 {
	degrees := make(map[string]float64, len(v.terms))
	for name, t := range v.terms {
		degrees[name] = t.Membership.Evaluate(x)
	}
	return degrees
}

// Curve samples every term over the universe. The result maps term name to
// memberships aligned with Universe().Samples().
func (v *Variable) Curve() map[string][]float64 {
	xs := v.universe.Samples()
	curves := make(map[string][]float64, len(v.terms))
	for name, t := range v.terms {
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = t.Membership.Evaluate(x)
		}
		curves[name] = ys
	}
	return curves
}

func (v *Variable) clone() *Variable {
	c := &Variable{
		name:     v.name,
		universe: v.universe,
		role:     v.role,
		terms:    make(map[string]Term, len(v.terms)),
		order:    v.Terms(),
	}
	for k, t := range v.terms {
		c.terms[k] = t
	}
	return c
}
