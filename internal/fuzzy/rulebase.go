package fuzzy

import "fmt"

// RuleBase is an ordered, validated set of rules over a fixed set of
// variables. It keeps private copies of the variables, so it is immutable after
// NewRuleBase returns and can be shared between goroutines.
type RuleBase struct {
	vars    map[string]*Variable
	inputs  []string
	outputs []string
	rules   []Rule
}

// NewRuleBase validates the rules against the declared variables. Any
// structural problem is reported as a *ConfigurationError.
func NewRuleBase(variables []*Variable, rules []Rule) (*RuleBase, error) {
	if len(rules) == 0 {
		return nil, configErrorf("rule base", "no rules defined")
	}

	rb := &RuleBase{vars: make(map[string]*Variable, len(variables))}
	for _, v := range variables {
		if v == nil {
			return nil, configErrorf("rule base", "nil variable")
		}
		if _, dup := rb.vars[v.Name()]; dup {
			return nil, configErrorf("variable "+v.Name(), "declared more than once")
		}
		if len(v.terms) == 0 {
			return nil, configErrorf("variable "+v.Name(), "has no terms")
		}
		rb.vars[v.Name()] = v.clone()
		if v.Role() == Output {
			rb.outputs = append(rb.outputs, v.Name())
		} else {
			rb.inputs = append(rb.inputs, v.Name())
		}
	}

	rb.rules = make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := rb.check(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, r, err)
		}
		rb.rules = append(rb.rules, Rule{
			Antecedent:  r.Antecedent.clone(),
			Consequents: append([]Clause(nil), r.Consequents...),
		})
	}

	return rb, nil
}

func (rb *RuleBase) check(r Rule) error {
	if r.Antecedent == nil {
		return configErrorf("antecedent", "is missing")
	}
	if err := checkShape(r.Antecedent); err != nil {
		return err
	}
	for _, c := range r.Clauses() {
		if err := rb.checkClause(c, Input); err != nil {
			return err
		}
	}
	if len(r.Consequents) == 0 {
		return configErrorf("consequent", "at least one is required")
	}
	for _, c := range r.Consequents {
		if err := rb.checkClause(c, Output); err != nil {
			return err
		}
	}
	return nil
}

func (rb *RuleBase) checkClause(c Clause, role Role) error {
	v, ok := rb.vars[c.Variable]
	if !ok {
		return configErrorf("clause "+c.String(), "undeclared variable")
	}
	if v.Role() != role {
		return configErrorf("clause "+c.String(), "variable is an %s, expected an %s", v.Role(), role)
	}
	if _, ok := v.Term(c.Term); !ok {
		return configErrorf("clause "+c.String(), "undeclared term")
	}
	return nil
}

// checkShape rejects operators without operands before any evaluation happens.
func checkShape(e Expr) error {
	switch x := e.(type) {
	case leafExpr:
		return nil
	case andExpr:
		return checkChildren("AND", x.children)
	case orExpr:
		return checkChildren("OR", x.children)
	case notExpr:
		if x.child == nil {
			return configErrorf("NOT", "operand is missing")
		}
		return checkShape(x.child)
	default:
		return configErrorf("antecedent", "unsupported expression %T", e)
	}
}

func checkChildren(op string, children []Expr) error {
	if len(children) == 0 {
		return configErrorf(op, "at least one operand is required")
	}
	for _, c := range children {
		if c == nil {
			return configErrorf(op, "operand is missing")
		}
		if err := checkShape(c); err != nil {
			return err
		}
	}
	return nil
}

// Variable returns a declared variable by name.
func (rb *RuleBase) Variable(name string) (*Variable, bool) {
	v, ok := rb.vars[name]
	return v, ok
}

// Inputs returns input variable names in declaration order.
func (rb *RuleBase) Inputs() []string { return append([]string(nil), rb.inputs...) }

// Outputs returns output variable names in declaration order.
func (rb *RuleBase) Outputs() []string { return append([]string(nil), rb.outputs...) }

// Rules returns the rules in declaration order.
func (rb *RuleBase) Rules() []Rule { return append([]Rule(nil), rb.rules...) }

// Len returns the number of rules.
func (rb *RuleBase) Len() int { return len(rb.rules) }

// Fuzzify converts crisp inputs into term degrees. Names that are not declared
// inputs are ignored.
func (rb *RuleBase) Fuzzify(inputs map[string]float64) Degrees {
	d := make(Degrees, len(rb.inputs))
	for _, name := range rb.inputs {
		x, ok := inputs[name]
		if !ok {
			continue
		}
		d[name] = rb.vars[name].Fuzzify(x)
	}
	return d
}

// Strengths evaluates the firing strength of every rule, in rule order.
func (rb *RuleBase) Strengths(inputs map[string]float64) ([]float64, error) {
	d := rb.Fuzzify(inputs)
	strengths := make([]float64, len(rb.rules))
	for i, r := range rb.rules {
		s, err := r.Evaluate(d)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		strengths[i] = s
	}
	return strengths, nil
}
