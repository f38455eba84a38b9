package fuzzy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotComputed is returned when outputs are read before a successful compute.
var ErrNotComputed = errors.New("outputs are not computed for the current inputs")

// ConfigurationError reports a structural problem found while building
// membership functions, variables or a rule base. It is not recoverable.
type ConfigurationError struct {
	// Subject names the offending element, e.g. "rule 3" or "variable Skill".
	Subject string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return "fuzzy configuration: " + e.Reason
	}
	return fmt.Sprintf("fuzzy configuration: %s: %s", e.Subject, e.Reason)
}

func configErrorf(subject, format string, args ...any) error {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports a bad crisp input. The caller may correct the input
// and try again.
type ValidationError struct {
	Variable string
	Value    float64
	// Missing lists inputs required by compute that were never set.
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return "fuzzy validation: missing inputs: " + strings.Join(e.Missing, ", ")
	case e.Variable != "":
		return fmt.Sprintf("fuzzy validation: %s=%g: %s", e.Variable, e.Value, e.Reason)
	default:
		return "fuzzy validation: " + e.Reason
	}
}
