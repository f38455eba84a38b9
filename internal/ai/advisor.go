package ai

import (
	"context"

	"github.com/spigell/fuzzy-advisor/internal/ranking"
)

// Rating is one crisp input the way the user supplied it.
type Rating struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Profile is what an advisor gets to reason about: the ratings and the
// ranked categories produced by the inference system.
type Profile struct {
	System     string           `json:"system"`
	Ratings    []Rating         `json:"ratings"`
	Categories []*ranking.Entry `json:"categories"`
}

// Advice is a narrative recommendation.
type Advice struct {
	Summary         string   `json:"summary" yaml:"summary"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Caveats         string   `json:"caveats,omitempty" yaml:"caveats,omitempty"`
	Raw             string   `json:"-" yaml:"-"`
}

type Advisor interface {
	Advise(ctx context.Context, profile *Profile) (*Advice, error)
}
