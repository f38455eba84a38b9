// Package fuzzy implements Mamdani fuzzy inference: linguistic variables with
// piecewise-linear membership functions, rule bases of AND/OR/NOT antecedents,
// and crisp outputs obtained by min implication, max aggregation and
// defuzzification over a sampled universe.
package fuzzy

import "math"

// Method selects how an aggregated curve is reduced to one crisp value.
type Method string

const (
	// Centroid is the centre of area, sum(x*mu)/sum(mu).
	Centroid Method = "centroid"
	// Bisector is the sample splitting the area under the curve in half.
	Bisector Method = "bisector"
	// MeanOfMaximum averages the samples where the curve peaks.
	MeanOfMaximum Method = "mom"
	// SmallestOfMaximum is the first sample where the curve peaks.
	SmallestOfMaximum Method = "som"
	// LargestOfMaximum is the last sample where the curve peaks.
	LargestOfMaximum Method = "lom"
)

// DegradedValue is reported for an output whose aggregated curve is all zero.
const DegradedValue = 0.0

const peakTolerance = 1e-12

// Methods lists the supported defuzzification methods.
func Methods() []Method {
	return []Method{Centroid, Bisector, MeanOfMaximum, SmallestOfMaximum, LargestOfMaximum}
}

// OutputValue is one crisp result.
type OutputValue struct {
	Value float64
	// Degraded is set when no rule contributed to the output, so Value is the
	// DegradedValue fallback rather than a computed result.
	Degraded bool
}

// Curve is an aggregated membership curve sampled over an output universe.
type Curve struct {
	X []float64
	Y []float64
}

// Result is the outcome of one inference pass.
type Result struct {
	Outputs map[string]OutputValue
	// Strengths holds the firing strength of every rule, in rule order.
	Strengths []float64
	Curves    map[string]Curve
}

// DegradedOutputs lists outputs flagged degraded, in declaration order.
func (r *Result) DegradedOutputs(order []string) []string {
	var out []string
	for _, name := range order {
		if o, ok := r.Outputs[name]; ok && o.Degraded {
			out = append(out, name)
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	out := &Result{
		Outputs:   make(map[string]OutputValue, len(r.Outputs)),
		Strengths: append([]float64(nil), r.Strengths...),
		Curves:    make(map[string]Curve, len(r.Curves)),
	}
	for name, o := range r.Outputs {
		out.Outputs[name] = o
	}
	for name, c := range r.Curves {
		out.Curves[name] = Curve{X: append([]float64(nil), c.X...), Y: append([]float64(nil), c.Y...)}
	}
	return out
}

type outputPlan struct {
	name  string
	xs    []float64
	terms map[string][]float64
}

// Engine runs Mamdani inference (min implication, max aggregation) over a
// RuleBase. It holds no per-call state and Compute is safe for concurrent use.
type Engine struct {
	base   *RuleBase
	method Method
	plans  []outputPlan
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefuzzifier selects the defuzzification method. Centroid is the default.
func WithDefuzzifier(m Method) Option {
	return func(e *Engine) { e.method = m }
}

// NewEngine prepares an engine, sampling every output term once.
func NewEngine(base *RuleBase, opts ...Option) (*Engine, error) {
	if base == nil {
		return nil, configErrorf("engine", "rule base is required")
	}

	e := &Engine{base: base, method: Centroid}
	for _, opt := range opts {
		opt(e)
	}
	if !validMethod(e.method) {
		return nil, configErrorf("engine", "unknown defuzzification method %q", e.method)
	}

	for _, name := range base.outputs {
		v := base.vars[name]
		e.plans = append(e.plans, outputPlan{
			name:  name,
			xs:    v.Universe().Samples(),
			terms: v.Curve(),
		})
	}

	return e, nil
}

func validMethod(m Method) bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

// RuleBase returns the rule base the engine evaluates.
func (e *Engine) RuleBase() *RuleBase { return e.base }

// Method returns the configured defuzzification method.
func (e *Engine) Method() Method { return e.method }

// Compute maps crisp inputs to crisp outputs. Inputs referenced by a rule must
// be present; range checks are the caller's job (see Simulation).
func (e *Engine) Compute(inputs map[string]float64) (*Result, error) {
	strengths, err := e.base.Strengths(inputs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Outputs:   make(map[string]OutputValue, len(e.plans)),
		Strengths: strengths,
		Curves:    make(map[string]Curve, len(e.plans)),
	}

	for _, plan := range e.plans {
		agg := make([]float64, len(plan.xs))
		for i, r := range e.base.rules {
			s := strengths[i]
			if s <= 0 {
				continue
			}
			for _, c := range r.Consequents {
				if c.Variable != plan.name {
					continue
				}
				term := plan.terms[c.Term]
				for j := range agg {
					agg[j] = math.Max(agg[j], math.Min(term[j], s))
				}
			}
		}

		res.Curves[plan.name] = Curve{X: append([]float64(nil), plan.xs...), Y: agg}
		res.Outputs[plan.name] = defuzzify(e.method, plan.xs, agg)
	}

	return res, nil
}

func defuzzify(m Method, xs, ys []float64) OutputValue {
	var area, moment, peak float64
	for i, y := range ys {
		area += y
		moment += xs[i] * y
		peak = math.Max(peak, y)
	}
	if area <= 0 {
		return OutputValue{Value: DegradedValue, Degraded: true}
	}

	switch m {
	case Bisector:
		half := area / 2
		var acc float64
		for i, y := range ys {
			acc += y
			if acc >= half {
				return OutputValue{Value: xs[i]}
			}
		}
		return OutputValue{Value: xs[len(xs)-1]}
	case MeanOfMaximum, SmallestOfMaximum, LargestOfMaximum:
		var sum float64
		var n int
		first, last := math.NaN(), math.NaN()
		for i, y := range ys {
			if peak-y > peakTolerance {
				continue
			}
			if n == 0 {
				first = xs[i]
			}
			last = xs[i]
			sum += xs[i]
			n++
		}
		switch m {
		case SmallestOfMaximum:
			return OutputValue{Value: first}
		case LargestOfMaximum:
			return OutputValue{Value: last}
		default:
			return OutputValue{Value: sum / float64(n)}
		}
	default:
		return OutputValue{Value: moment / area}
	}
}
