package fuzzy

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Simulation is one evaluation session over a shared Engine. It owns its
// crisp inputs and the last computed outputs and must not be shared between
// goroutines; create one Simulation per concurrent evaluation instead.
type Simulation struct {
	id     string
	engine *Engine
	inputs map[string]float64
	result *Result
}

// NewSimulation starts a session with no inputs set.
func NewSimulation(engine *Engine) *Simulation {
	return &Simulation{
		id:     uuid.NewString(),
		engine: engine,
		inputs: make(map[string]float64),
	}
}

// ID identifies the session in logs.
func (s *Simulation) ID() string { return s.id }

func (s *Simulation) Engine() *Engine { return s.engine }

// SetInput stores a crisp value for a declared input. On error the stored
// inputs are left as they were.
func (s *Simulation) SetInput(name string, value float64) error {
	if err := s.check(name, value); err != nil {
		return err
	}
	if old, ok := s.inputs[name]; ok && old == value {
		return nil
	}
	s.inputs[name] = value
	s.result = nil
	return nil
}

// SetInputs stores several values at once. Either all of them are accepted or
// none is.
func (s *Simulation) SetInputs(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.check(name, values[name]); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := s.SetInput(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) check(name string, value float64) error {
	v, ok := s.engine.base.Variable(name)
	if !ok || v.Role() != Input {
		return &ValidationError{Variable: name, Value: value, Reason: "not a declared input"}
	}
	u := v.Universe()
	if !u.Contains(value) {
		return &ValidationError{
			Variable: name,
			Value:    value,
			Reason:   fmt.Sprintf("outside universe [%g, %g]", u.Min, u.Max),
		}
	}
	return nil
}

// Input returns a stored crisp input.
func (s *Simulation) Input(name string) (float64, bool) {
	v, ok := s.inputs[name]
	return v, ok
}

// Inputs returns a copy of the stored crisp inputs.
func (s *Simulation) Inputs() map[string]float64 {
	out := make(map[string]float64, len(s.inputs))
	for k, v := range s.inputs {
		out[k] = v
	}
	return out
}

// Missing lists declared inputs without a stored value, in declaration order.
func (s *Simulation) Missing() []string {
	var missing []string
	for _, name := range s.engine.base.inputs {
		if _, ok := s.inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Compute runs inference on the stored inputs and caches the result.
func (s *Simulation) Compute() error {
	if missing := s.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing, Reason: "inputs not set"}
	}
	res, err := s.engine.Compute(s.inputs)
	if err != nil {
		return err
	}
	s.result = res
	return nil
}

// Computed reports whether outputs are available for the current inputs.
func (s *Simulation) Computed() bool { return s.result != nil }

// Output returns the cached crisp value of an output variable.
func (s *Simulation) Output(name string) (OutputValue, error) {
	if s.result == nil {
		return OutputValue{}, ErrNotComputed
	}
	o, ok := s.result.Outputs[name]
	if !ok {
		return OutputValue{}, &ValidationError{Variable: name, Reason: "not a declared output"}
	}
	return o, nil
}

// Result returns a copy of the cached inference result. Changes to it do not
// reach the session.
func (s *Simulation) Result() (*Result, error) {
	if s.result == nil {
		return nil, ErrNotComputed
	}
	return s.result.Clone(), nil
}

// Reset clears inputs and outputs so the session can be reused.
func (s *Simulation) Reset() {
	s.inputs = make(map[string]float64)
	s.result = nil
}
