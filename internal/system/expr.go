package system

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

const (
	opIs  = "is"
	opAnd = "and"
	opOr  = "or"
	opNot = "not"
)

// parseExpr turns a decoded antecedent into an expression tree. Accepted forms:
//
//	"Logic.high"
//	{is: "Logic.high"}
//	{and: [<expr>, ...]}
//	{or: [<expr>, ...]}
//	{not: <expr>}
func parseExpr(raw any) (fuzzy.Expr, error) {
	switch v := raw.(type) {
	case string:
		c, err := fuzzy.ParseClause(v)
		if err != nil {
			return nil, err
		}
		return fuzzy.Leaf(c), nil
	case map[string]any:
		return parseOperator(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, val := range v {
			converted[fmt.Sprint(k)] = val
		}
		return parseOperator(converted)
	case nil:
		return nil, exprErrorf("empty expression")
	default:
		return nil, exprErrorf("unsupported expression of type %T", raw)
	}
}

func parseOperator(m map[string]any) (fuzzy.Expr, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, exprErrorf("expected exactly one of is/and/or/not, got %v", keys)
	}

	for key, val := range m {
		op := strings.ToLower(strings.TrimSpace(key))
		switch op {
		case opIs:
			s, ok := val.(string)
			if !ok {
				return nil, exprErrorf("%q expects a Variable.term string", opIs)
			}
			return parseExpr(s)
		case opNot:
			child, err := parseExpr(val)
			if err != nil {
				return nil, err
			}
			return fuzzy.Not(child), nil
		case opAnd, opOr:
			items, ok := val.([]any)
			if !ok || len(items) == 0 {
				return nil, exprErrorf("%q expects a non-empty list", key)
			}
			children := make([]fuzzy.Expr, 0, len(items))
			for _, item := range items {
				child, err := parseExpr(item)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if op == opAnd {
				return fuzzy.And(children...), nil
			}
			return fuzzy.Or(children...), nil
		default:
			return nil, exprErrorf("unknown operator %q", key)
		}
	}

	return nil, exprErrorf("empty expression")
}

func exprErrorf(format string, args ...any) error {
	return &fuzzy.ConfigurationError{Subject: "antecedent", Reason: fmt.Sprintf(format, args...)}
}
