package ranking

import (
	"sort"
	"strings"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

// Entry is one scored category.
type Entry struct {
	Name     string  `json:"name" yaml:"name"`
	Label    string  `json:"label" yaml:"label"`
	Score    float64 `json:"score" yaml:"score"`
	Degraded bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Rank     int     `json:"rank" yaml:"rank"`
}

// Entries is an ordered list of scored categories.
type Entries struct {
	Items []*Entry `json:"items" yaml:"items"`
}

// FromResult ranks the outputs of an inference result. Outputs are taken in
// the given order and then sorted: higher scores first, degraded outputs after
// every computed one, ties broken by label and then by name.
func FromResult(res *fuzzy.Result, outputs []string, label func(string) string) *Entries {
	items := make([]*Entry, 0, len(outputs))
	for _, name := range outputs {
		out, ok := res.Outputs[name]
		if !ok {
			continue
		}
		l := name
		if label != nil {
			l = label(name)
		}
		items = append(items, &Entry{
			Name:     name,
			Label:    l,
			Score:    out.Value,
			Degraded: out.Degraded,
		})
	}

	e := &Entries{Items: items}
	e.Sort()
	return e
}

// Sort orders the entries and reassigns ranks starting at 1.
func (e *Entries) Sort() {
	sort.SliceStable(e.Items, func(i, j int) bool {
		a, b := e.Items[i], e.Items[j]
		if a.Degraded != b.Degraded {
			return !a.Degraded
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Name < b.Name
	})
	for i := range e.Items {
		e.Items[i].Rank = i + 1
	}
}

func (e *Entries) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Items)
}

// Names returns entry names in rank order.
func (e *Entries) Names() []string {
	names := make([]string, 0, e.Len())
	for _, item := range e.Items {
		names = append(names, item.Name)
	}
	return names
}

// Find returns the entry with the given name, ignoring case.
func (e *Entries) Find(name string) *Entry {
	for _, item := range e.Items {
		if strings.EqualFold(item.Name, name) {
			return item
		}
	}
	return nil
}

// Keep retains entries accepted by fn and returns the names of dropped ones.
// Ranks are not reassigned so the original position stays visible.
func (e *Entries) Keep(fn func(*Entry) bool) []string {
	kept := e.Items[:0]
	var dropped []string
	for _, item := range e.Items {
		if fn(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.Name)
	}
	e.Items = kept
	return dropped
}

// Exclude drops entries whose name or label matches any of the given values,
// ignoring case.
func (e *Entries) Exclude(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return e.Keep(func(item *Entry) bool {
		_, byName := set[strings.ToLower(item.Name)]
		_, byLabel := set[strings.ToLower(item.Label)]
		return !byName && !byLabel
	})
}
