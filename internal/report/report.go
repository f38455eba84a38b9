package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spigell/fuzzy-advisor/internal/ai"
	"github.com/spigell/fuzzy-advisor/internal/ranking"
	"github.com/spigell/fuzzy-advisor/internal/utils"
)

type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"

	barWidth = 20
)

// ParseFormat accepts a format name, ignoring case. Empty means Table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Table, nil
	case Table, JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table, json or yaml)", s)
	}
}

// Input is a rating as shown in the report.
type Input struct {
	Name  string  `json:"name" yaml:"name"`
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Report is everything printed after a scoring session.
type Report struct {
	System     string           `json:"system" yaml:"system"`
	Session    string           `json:"session" yaml:"session"`
	Method     string           `json:"method" yaml:"method"`
	Inputs     []Input          `json:"inputs" yaml:"inputs"`
	Categories []*ranking.Entry `json:"categories" yaml:"categories"`
	// Filtered holds categories removed by the filter pipeline.
	Filtered   []string         `json:"filtered,omitempty" yaml:"filtered,omitempty"`
	Advice     *ai.Advice       `json:"advice,omitempty" yaml:"advice,omitempty"`
}

// Render writes r to w in the given format.
func Render(w io.Writer, format Format, r *Report) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case Table, "":
		return renderTable(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderTable(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "System: %s (%s)\n", r.System, r.Method)

	if len(r.Inputs) > 0 {
		pairs := make([]string, 0, len(r.Inputs))
		for _, in := range r.Inputs {
			pairs = append(pairs, in.Label+"="+strconv.FormatFloat(in.Value, 'g', -1, 64))
		}
		fmt.Fprintf(w, "Ratings: %s\n", strings.Join(pairs, ", "))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCATEGORY\tSCORE\tFIT")
	for _, e := range r.Categories {
		if e.Degraded {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Rank, e.Label, "n/a", "no rule fired")
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%s\n", e.Rank, e.Label, e.Score, utils.Bar(e.Score, barWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Categories) == 0 {
		fmt.Fprintln(w, "No categories left after filtering.")
	}
	if len(r.Filtered) > 0 {
		fmt.Fprintf(w, "\nFiltered out: %s\n", strings.Join(r.Filtered, ", "))
	}

	if r.Advice != nil {
		fmt.Fprintf(w, "\nAdvice\n  %s\n", r.Advice.Summary)
		for _, rec := range r.Advice.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
		if r.Advice.Caveats != "" {
			fmt.Fprintf(w, "  Note: %s\n", r.Advice.Caveats)
		}
	}

	return nil
}
