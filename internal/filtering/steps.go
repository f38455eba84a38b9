package filtering

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/fuzzy-advisor/internal/ranking"
)

// toggle carries the enabled state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type degradedFilter struct {
	toggle
	exclude bool
}

// NewDegraded creates a filter that removes categories for which no rule fired.
func NewDegraded() Filter {
	return &degradedFilter{}
}

func (f *degradedFilter) Name() string { return "exclude_degraded" }

func (f *degradedFilter) Validate(cfg *Config) error {
	f.exclude = cfg != nil && cfg.ExcludeDegraded
	return nil
}

func (f *degradedFilter) Apply(_ context.Context, deps Deps, e *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := e.Len()
	if !f.exclude {
		return e, Step{Initial: initial, Left: e.Len()}, nil
	}

	excluded := e.Keep(func(item *ranking.Entry) bool { return !item.Degraded })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding categories without fired rules",
			zap.Strings("excluded_categories", excluded),
			zap.Int("categories_left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *degradedFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"exclude_degraded": strconv.FormatBool(f.exclude)},
	}
}

type excludedFilter struct {
	toggle
	names []string
}

// NewExcluded creates a filter that removes categories listed in the config.
func NewExcluded() Filter {
	return &excludedFilter{}
}

func (f *excludedFilter) Name() string { return "exclude" }

func (f *excludedFilter) Validate(cfg *Config) error {
	f.names = nil
	if cfg == nil {
		return nil
	}
	for _, name := range cfg.Exclude {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("empty category name in exclude list")
		}
		f.names = append(f.names, name)
	}
	return nil
}

func (f *excludedFilter) Apply(_ context.Context, deps Deps, e *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := e.Len()
	if len(f.names) == 0 {
		return e, Step{Initial: initial, Left: e.Len()}, nil
	}

	excluded := e.Exclude(f.names)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding categories by config",
			zap.Strings("exclude", f.names),
			zap.Strings("excluded_categories", excluded),
			zap.Int("categories_left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *excludedFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["exclude"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type minimumScoreFilter struct {
	toggle
	minimum float64
}

// NewMinimumScore creates a filter that removes categories scoring below the configured minimum.
func NewMinimumScore() Filter {
	return &minimumScoreFilter{}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Validate(cfg *Config) error {
	f.minimum = 0
	if cfg == nil {
		return nil
	}
	if math.IsNaN(cfg.MinimumScore) || cfg.MinimumScore < 0 {
		return fmt.Errorf("minimum score must be a non-negative number, got %v", cfg.MinimumScore)
	}
	f.minimum = cfg.MinimumScore
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, deps Deps, e *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := e.Len()
	if f.minimum == 0 {
		return e, Step{Initial: initial, Left: e.Len()}, nil
	}

	excluded := e.Keep(func(item *ranking.Entry) bool { return item.Score >= f.minimum })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding categories below minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Strings("excluded_categories", excluded),
			zap.Int("categories_left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.FormatFloat(f.minimum, 'f', -1, 64)},
	}
}

type topFilter struct {
	toggle
	top int
}

// NewTop creates a filter that keeps only the best N categories.
func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Validate(cfg *Config) error {
	f.top = 0
	if cfg == nil {
		return nil
	}
	if cfg.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", cfg.Top)
	}
	f.top = cfg.Top
	return nil
}

func (f *topFilter) Apply(_ context.Context, deps Deps, e *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := e.Len()
	if f.top == 0 || initial <= f.top {
		return e, Step{Initial: initial, Left: e.Len()}, nil
	}

	kept := 0
	excluded := e.Keep(func(*ranking.Entry) bool {
		kept++
		return kept <= f.top
	})
	if deps.Logger != nil {
		deps.Logger.Debug("truncating categories",
			zap.Int("top", f.top),
			zap.Strings("excluded_categories", excluded),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *topFilter) Status() Status {
	details := map[string]string{}
	if f.top > 0 {
		details["top"] = strconv.Itoa(f.top)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
