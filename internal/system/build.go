package system

import (
	"fmt"
	"strings"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

// System is a built, ready to evaluate fuzzy system together with the
// presentation metadata from its definition.
type System struct {
	Name     string
	RuleBase *fuzzy.RuleBase
	labels   map[string]string
}

// Label returns the display label of a variable, falling back to its name.
func (s *System) Label(name string) string {
	if l, ok := s.labels[name]; ok && l != "" {
		return l
	}
	return name
}

// NewEngine creates an engine over the system rule base.
func (s *System) NewEngine(method fuzzy.Method) (*fuzzy.Engine, error) {
	if method == "" {
		method = fuzzy.Centroid
	}
	return fuzzy.NewEngine(s.RuleBase, fuzzy.WithDefuzzifier(method))
}

// Build validates the definition and constructs the rule base. Every failure
// is a *fuzzy.ConfigurationError, possibly wrapped with its location.
func (d *Definition) Build() (*System, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	sets := make(map[string][]TermDef, len(d.TermSets))
	for name, terms := range d.TermSets {
		sets[strings.ToLower(name)] = terms
	}

	labels := make(map[string]string, len(d.Inputs)+len(d.Outputs))
	vars := make([]*fuzzy.Variable, 0, len(d.Inputs)+len(d.Outputs))

	add := func(defs []VariableDef, role fuzzy.Role) error {
		for _, vd := range defs {
			v, err := buildVariable(vd, role, sets)
			if err != nil {
				return err
			}
			vars = append(vars, v)
			labels[vd.Name] = vd.Label
		}
		return nil
	}
	if err := add(d.Inputs, fuzzy.Input); err != nil {
		return nil, err
	}
	if err := add(d.Outputs, fuzzy.Output); err != nil {
		return nil, err
	}

	rules := make([]fuzzy.Rule, 0, len(d.Rules))
	for i, rd := range d.Rules {
		r, err := buildRule(rd)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}

	rb, err := fuzzy.NewRuleBase(vars, rules)
	if err != nil {
		return nil, err
	}

	return &System{Name: d.Name, RuleBase: rb, labels: labels}, nil
}

func buildVariable(vd VariableDef, role fuzzy.Role, sets map[string][]TermDef) (*fuzzy.Variable, error) {
	u, err := fuzzy.NewUniverse(vd.Universe.Min, vd.Universe.Max, vd.Universe.Resolution)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", vd.Name, err)
	}

	v, err := fuzzy.NewVariable(vd.Name, role, u)
	if err != nil {
		return nil, err
	}

	var terms []TermDef
	if vd.TermSet != "" {
		set, ok := sets[strings.ToLower(vd.TermSet)]
		if !ok {
			return nil, &fuzzy.ConfigurationError{
				Subject: "variable " + vd.Name,
				Reason:  fmt.Sprintf("unknown term set %q", vd.TermSet),
			}
		}
		terms = append(terms, set...)
	}
	terms = append(terms, vd.Terms...)

	for _, td := range terms {
		mf, err := fuzzy.NewMembershipFunction(fuzzy.Shape(td.Shape), td.Points)
		if err != nil {
			return nil, fmt.Errorf("variable %s term %s: %w", vd.Name, td.Name, err)
		}
		v.AddTerm(td.Name, mf)
	}

	return v, nil
}

func buildRule(rd RuleDef) (fuzzy.Rule, error) {
	ante, err := parseExpr(rd.If)
	if err != nil {
		return fuzzy.Rule{}, err
	}

	then := make([]fuzzy.Clause, 0, len(rd.Then))
	for _, s := range rd.Then {
		c, err := fuzzy.ParseClause(s)
		if err != nil {
			return fuzzy.Rule{}, err
		}
		then = append(then, c)
	}

	return fuzzy.NewRule(ante, then...), nil
}
