package ratings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

// Ratings maps declared input names to crisp values.
type Ratings map[string]float64

// ParsePairs parses "Name=value" pairs as given on the command line.
func ParsePairs(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("rating %q: expected Name=value", pair)
		}
		value, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("rating %q: %w", pair, err)
		}
		out[name] = value
	}
	return out, nil
}

// ParseValue parses a single numeric rating. A decimal comma is accepted.
func ParseValue(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, fmt.Errorf("value is empty")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a number", raw)
	}
	return v, nil
}

// Coerce converts loosely typed values, such as those decoded from a config
// file, into numbers.
func Coerce(raw map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, val := range raw {
		switch v := val.(type) {
		case float64:
			out[name] = v
		case float32:
			out[name] = float64(v)
		case int:
			out[name] = float64(v)
		case int64:
			out[name] = float64(v)
		case string:
			f, err := ParseValue(v)
			if err != nil {
				return nil, fmt.Errorf("rating %s: %w", name, err)
			}
			out[name] = f
		default:
			return nil, fmt.Errorf("rating %s: unsupported value %v", name, val)
		}
	}
	return out, nil
}

// Resolve maps user supplied names onto the declared inputs of the rule base,
// ignoring case, spaces, dashes and underscores. Later sources override earlier
// ones. Two spellings of the same input within one source are ambiguous and
// rejected. Unknown names are reported together.
func Resolve(rb *fuzzy.RuleBase, sources ...map[string]float64) (Ratings, error) {
	index := make(map[string]string)
	for _, name := range rb.Inputs() {
		index[normalize(name)] = name
	}

	out := make(Ratings)
	var unknown, ambiguous []string
	for _, src := range sources {
		spellings := make(map[string][]string)
		for name, value := range src {
			declared, ok := index[normalize(name)]
			if !ok {
				unknown = append(unknown, name)
				continue
			}
			spellings[declared] = append(spellings[declared], name)
			out[declared] = value
		}
		for declared, names := range spellings {
			if len(names) > 1 {
				sort.Strings(names)
				ambiguous = append(ambiguous, fmt.Sprintf("%s (%s)", declared, strings.Join(names, ", ")))
			}
		}
	}

	if len(ambiguous) > 0 {
		sort.Strings(ambiguous)
		return nil, fmt.Errorf("ambiguous ratings for inputs %s", strings.Join(ambiguous, "; "))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown inputs %s; declared inputs are %s",
			strings.Join(unknown, ", "), strings.Join(rb.Inputs(), ", "))
	}
	return out, nil
}

func normalize(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}

// Missing lists declared inputs without a rating, in declaration order.
func (r Ratings) Missing(rb *fuzzy.RuleBase) []string {
	var missing []string
	for _, name := range rb.Inputs() {
		if _, ok := r[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Names returns rated input names in declaration order.
func (r Ratings) Names(rb *fuzzy.RuleBase) []string {
	var names []string
	for _, name := range rb.Inputs() {
		if _, ok := r[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
