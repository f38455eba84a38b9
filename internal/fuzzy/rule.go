package fuzzy

import (
	"math"
	"strings"
)

// Clause references one term of one variable, written "Variable.term".
type Clause struct {
	Variable string
	Term     string
}

// ParseClause splits "Variable.term" on its last dot.
func ParseClause(s string) (Clause, error) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Clause{}, configErrorf("clause "+s, "expected the form Variable.term")
	}
	return Clause{Variable: s[:idx], Term: s[idx+1:]}, nil
}

func (c Clause) String() string { return c.Variable + "." + c.Term }

// Degrees holds fuzzified crisp inputs: variable name to term name to degree.
type Degrees map[string]map[string]float64

// Expr is an antecedent expression tree. Every branch is evaluated: there is
// no short-circuit in fuzzy logic.
type Expr interface {
	strength(d Degrees) (float64, error)
	walk(fn func(Clause))
	clone() Expr
	String() string
}

type leafExpr struct{ clause Clause }

type andExpr struct{ children []Expr }

type orExpr struct{ children []Expr }

type notExpr struct{ child Expr }

// Is is the atomic antecedent "variable is term".
func Is(variable, term string) Expr {
	return leafExpr{clause: Clause{Variable: variable, Term: term}}
}

// Leaf wraps an already built clause.
func Leaf(c Clause) Expr { return leafExpr{clause: c} }

// And holds to the minimum degree of its children.
func And(children ...Expr) Expr { return andExpr{children: append([]Expr(nil), children...)} }

// Or holds to the maximum degree of its children.
func Or(children ...Expr) Expr { return orExpr{children: append([]Expr(nil), children...)} }

// Not holds to one minus the degree of its child.
func Not(child Expr) Expr { return notExpr{child: child} }

func (e leafExpr) strength(d Degrees) (float64, error) {
	terms, ok := d[e.clause.Variable]
	if !ok {
		return 0, &ValidationError{Variable: e.clause.Variable, Reason: "no crisp input supplied"}
	}
	deg, ok := terms[e.clause.Term]
	if !ok {
		return 0, configErrorf("clause "+e.clause.String(), "unknown term")
	}
	return deg, nil
}

func (e leafExpr) walk(fn func(Clause)) { fn(e.clause) }

func (e leafExpr) clone() Expr { return e }

func (e leafExpr) String() string { return e.clause.String() }

func (e andExpr) strength(d Degrees) (float64, error) {
	return fold(e.children, d, 1, math.Min, "AND")
}

func (e andExpr) walk(fn func(Clause)) { walkAll(e.children, fn) }

func (e andExpr) clone() Expr { return andExpr{children: cloneAll(e.children)} }

func (e andExpr) String() string { return join(e.children, " AND ") }

func (e orExpr) strength(d Degrees) (float64, error) {
	return fold(e.children, d, 0, math.Max, "OR")
}

func (e orExpr) walk(fn func(Clause)) { walkAll(e.children, fn) }

func (e orExpr) clone() Expr { return orExpr{children: cloneAll(e.children)} }

func (e orExpr) String() string { return join(e.children, " OR ") }

func (e notExpr) strength(d Degrees) (float64, error) {
	if e.child == nil {
		return 0, configErrorf("NOT", "operand is missing")
	}
	v, err := e.child.strength(d)
	if err != nil {
		return 0, err
	}
	return 1 - v, nil
}

func (e notExpr) walk(fn func(Clause)) {
	if e.child != nil {
		e.child.walk(fn)
	}
}

func (e notExpr) clone() Expr {
	if e.child == nil {
		return e
	}
	return notExpr{child: e.child.clone()}
}

func (e notExpr) String() string {
	if e.child == nil {
		return "NOT ()"
	}
	if _, simple := e.child.(leafExpr); simple {
		return "NOT " + e.child.String()
	}
	return "NOT (" + e.child.String() + ")"
}

func fold(children []Expr, d Degrees, acc float64, op func(float64, float64) float64, name string) (float64, error) {
	if len(children) == 0 {
		return 0, configErrorf(name, "at least one operand is required")
	}
	for _, child := range children {
		if child == nil {
			return 0, configErrorf(name, "operand is missing")
		}
		v, err := child.strength(d)
		if err != nil {
			return 0, err
		}
		acc = op(acc, v)
	}
	return acc, nil
}

func cloneAll(children []Expr) []Expr {
	out := make([]Expr, len(children))
	for i, child := range children {
		if child != nil {
			out[i] = child.clone()
		}
	}
	return out
}

func walkAll(children []Expr, fn func(Clause)) {
	for _, child := range children {
		if child != nil {
			child.walk(fn)
		}
	}
}

func join(children []Expr, sep string) string {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		if child == nil {
			parts = append(parts, "?")
			continue
		}
		s := child.String()
		if _, simple := child.(leafExpr); !simple {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

// Rule pairs an antecedent with one or more consequent clauses.
type Rule struct {
	Antecedent  Expr
	Consequents []Clause
}

// NewRule builds a rule; it is validated when added to a RuleBase.
func NewRule(antecedent Expr, consequents ...Clause) Rule {
	return Rule{Antecedent: antecedent, Consequents: consequents}
}

// Evaluate returns the firing strength of the antecedent for fuzzified inputs.
func (r Rule) Evaluate(d Degrees) (float64, error) {
	if r.Antecedent == nil {
		return 0, configErrorf("rule", "antecedent is missing")
	}
	return r.Antecedent.strength(d)
}

// Clauses lists every antecedent clause in tree order.
func (r Rule) Clauses() []Clause {
	var out []Clause
	if r.Antecedent != nil {
		r.Antecedent.walk(func(c Clause) { out = append(out, c) })
	}
	return out
}

func (r Rule) String() string {
	then := make([]string, len(r.Consequents))
	for i, c := range r.Consequents {
		then[i] = c.String()
	}
	ante := "?"
	if r.Antecedent != nil {
		ante = r.Antecedent.String()
	}
	return "IF " + ante + " THEN " + strings.Join(then, ", ")
}
