package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

// Definition is the declarative form of a fuzzy system as read from a file.
type Definition struct {
	Name     string               `mapstructure:"name" yaml:"name" validate:"required"`
	TermSets map[string][]TermDef `mapstructure:"term-sets" yaml:"term-sets,omitempty" validate:"dive,keys,required,endkeys,min=1,dive"`
	Inputs   []VariableDef        `mapstructure:"inputs" yaml:"inputs" validate:"required,min=1,dive"`
	Outputs  []VariableDef        `mapstructure:"outputs" yaml:"outputs" validate:"required,min=1,dive"`
	Rules    []RuleDef            `mapstructure:"rules" yaml:"rules" validate:"required,min=1,dive"`
}

// VariableDef declares one linguistic variable. Terms from TermSet are applied
// first; Terms listed inline are added afterwards and win on name clashes.
type VariableDef struct {
	Name     string      `mapstructure:"name" yaml:"name" validate:"required"`
	Label    string      `mapstructure:"label" yaml:"label,omitempty"`
	Universe UniverseDef `mapstructure:"universe" yaml:"universe"`
	TermSet  string      `mapstructure:"term-set" yaml:"term-set,omitempty"`
	Terms    []TermDef   `mapstructure:"terms" yaml:"terms,omitempty" validate:"dive"`
}

// UniverseDef is the numeric domain of a variable.
type UniverseDef struct {
	Min        float64 `mapstructure:"min" yaml:"min"`
	Max        float64 `mapstructure:"max" yaml:"max" validate:"gtfield=Min"`
	Resolution float64 `mapstructure:"resolution" yaml:"resolution" validate:"gt=0"`
}

// TermDef declares a named membership function.
type TermDef struct {
	Name   string    `mapstructure:"name" yaml:"name" validate:"required,excludes=."`
	Shape  string    `mapstructure:"shape" yaml:"shape" validate:"oneof=triangular trapezoidal"`
	Points []float64 `mapstructure:"points" yaml:"points,flow" validate:"min=3,max=4"`
}

// RuleDef declares one rule. If holds an antecedent expression: either a
// "Variable.term" string or a map with one of the keys is, and, or, not.
type RuleDef struct {
	If   any      `mapstructure:"if" yaml:"if" validate:"required"`
	Then []string `mapstructure:"then" yaml:"then,flow" validate:"required,min=1,dive,required"`
}

var validate = validator.New()

// Decode converts a generic settings map into a Definition. Unknown keys are
// rejected so typos in hand-written files surface early.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &fuzzy.ConfigurationError{Subject: "definition", Reason: err.Error()}
	}
	return &def, nil
}

// Validate checks the struct-level constraints of the definition. Semantic
// checks (clauses, breakpoint order) happen in Build.
func (d *Definition) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &fuzzy.ConfigurationError{Subject: "definition", Reason: err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", trimNamespace(fe.Namespace()), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return &fuzzy.ConfigurationError{Subject: "definition", Reason: strings.Join(msgs, "; ")}
}

func trimNamespace(ns string) string {
	return strings.TrimPrefix(ns, "Definition.")
}
