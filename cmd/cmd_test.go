package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
	"github.com/spigell/fuzzy-advisor/internal/report"
	"github.com/spigell/fuzzy-advisor/internal/system"
)

func allRatings(value string) []string {
	names := []string{"Logic", "Creativity", "Teamwork", "Analysis", "Empathy", "Technology", "Art", "Research", "human relations", "Business"}
	pairs := make([]string, 0, len(names))
	for _, n := range names {
		pairs = append(pairs, n+"="+value)
	}
	return pairs
}

func newTestSession(t *testing.T, method fuzzy.Method, pairs []string) *session {
	t.Helper()

	sys, err := loadSystem("")
	if err != nil {
		t.Fatalf("loading default system: %v", err)
	}
	engine, err := sys.NewEngine(method)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	r, err := collectRatings(sys, map[string]any{"logic": 0}, pairs)
	if err != nil {
		t.Fatalf("collecting ratings: %v", err)
	}

	return &session{sys: sys, sim: fuzzy.NewSimulation(engine), ratings: r, logger: zap.NewNop()}
}

func TestSessionCompute(t *testing.T) {
	s := newTestSession(t, fuzzy.MeanOfMaximum, allRatings("5"))

	config := &Config{Report: &ReportConfig{Exclude: []string{"health sciences"}, Top: 3}, AI: &AIConfig{}}
	if err := s.compute(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.report.Method != "mom" || s.report.System != "vocational" || s.report.Session != s.sim.ID() {
		t.Fatalf("unexpected report header: %+v", s.report)
	}
	if len(s.report.Inputs) != 10 || s.report.Inputs[8].Label != "Human relations" {
		t.Fatalf("unexpected inputs: %+v", s.report.Inputs)
	}
	// Flags override config ratings.
	if s.report.Inputs[0].Value != 5 {
		t.Fatalf("expected Logic from flags, got %v", s.report.Inputs[0].Value)
	}

	if len(s.report.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(s.report.Categories))
	}
	for _, c := range s.report.Categories {
		if c.Score != 1 || c.Degraded {
			t.Fatalf("expected a full score for %s, got %+v", c.Name, c)
		}
	}
	if len(s.report.Filtered) != 2 {
		t.Fatalf("expected 2 filtered categories, got %v", s.report.Filtered)
	}

	p := s.profile()
	if len(p.Ratings) != 10 || p.Ratings[0].Max != 5 || len(p.Categories) != 3 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestSessionComputeSkipsFilters(t *testing.T) {
	s := newTestSession(t, fuzzy.MeanOfMaximum, allRatings("5"))

	config := &Config{
		Report: &ReportConfig{Exclude: []string{"health sciences"}, Top: 3, SkipFilters: []string{"top"}},
		AI:     &AIConfig{},
	}
	if err := s.compute(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.report.Categories) != 4 || len(s.report.Filtered) != 1 || s.report.Filtered[0] != "HealthSciences" {
		t.Fatalf("expected only the exclude filter to apply, got %v and %v", s.entries.Names(), s.report.Filtered)
	}

	var filters bytes.Buffer
	if err := s.printFilters(&filters); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(filters.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 filters, got:\n%s", filters.String())
	}
	if !strings.HasPrefix(lines[1], "exclude ") || !strings.Contains(lines[1], "enabled") || !strings.HasSuffix(lines[1], "exclude=health sciences") {
		t.Fatalf("unexpected exclude status %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "top ") || !strings.Contains(lines[3], "disabled (skipped by config)") {
		t.Fatalf("unexpected top status %q", lines[3])
	}

	var curves bytes.Buffer
	if err := s.printCurves(&curves); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Health sciences (filtered)\n", "(rank 1, score 1.000)\n"} {
		if !strings.Contains(curves.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, curves.String())
		}
	}
}

func TestSessionComputeRejectsUnknownFilter(t *testing.T) {
	s := newTestSession(t, "", allRatings("5"))

	config := &Config{Report: &ReportConfig{SkipFilters: []string{"newest"}}, AI: &AIConfig{}}
	err := s.compute(context.Background(), config)
	if err == nil || !strings.Contains(err.Error(), `unknown filter "newest"`) {
		t.Fatalf("expected unknown filter error, got %v", err)
	}
}

func TestSessionComputeRejectsOutOfRange(t *testing.T) {
	s := newTestSession(t, "", allRatings("7"))

	config := &Config{Report: &ReportConfig{}, AI: &AIConfig{}}
	if err := s.compute(context.Background(), config); err == nil {
		t.Fatal("expected out of range ratings to fail")
	}
}

func TestCollectRatingsRejectsUnknownNames(t *testing.T) {
	sys, err := loadSystem("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := collectRatings(sys, nil, []string{"Cooking=3"}); err == nil || !strings.Contains(err.Error(), "Cooking") {
		t.Fatalf("expected unknown input error, got %v", err)
	}
}

func TestNewAdvisorRejectsUnknownProvider(t *testing.T) {
	cfg := &AIConfig{Provider: "openai", Gemini: &GeminiConfig{}}
	if _, err := newAdvisor(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

func TestDropped(t *testing.T) {
	got := dropped([]string{"a", "b", "c", "d"}, []string{"c", "a"})
	if strings.Join(got, ",") != "b,d" {
		t.Fatalf("unexpected dropped: %v", got)
	}
}

func TestPrintRules(t *testing.T) {
	sys, err := loadSystem("")
	if err != nil {
		t.Fatal(err)
	}

	var plain bytes.Buffer
	if err := printRules(&plain, sys, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines := strings.Count(plain.String(), "\n"); lines != 23 {
		t.Fatalf("expected 23 rules, got %d", lines)
	}

	var fired bytes.Buffer
	if err := printRules(&fired, sys, nil, allRatings("5")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"1.000  IF Logic.high THEN Engineering.high",
		"0.000  IF Logic.low THEN Engineering.low",
	} {
		if !strings.Contains(fired.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, fired.String())
		}
	}

	if err := printRules(&fired, sys, nil, []string{"Logic=5"}); err == nil {
		t.Fatal("expected error for incomplete ratings")
	}
}

func TestPrintVariable(t *testing.T) {
	sys, err := loadSystem("")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printVariable(&buf, sys, "human relations"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Human relations (input, 0..5 step 1)", "high: triangular[3 5 5]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	// header, three terms, blank line, table header and six samples
	if lines := strings.Count(out, "\n"); lines != 12 {
		t.Fatalf("expected 12 lines, got %d:\n%s", lines, out)
	}

	if err := printVariable(&buf, sys, "Cooking"); err == nil {
		t.Fatal("expected unknown variable error")
	}
}

func TestPrintDefinitionRoundTrips(t *testing.T) {
	def, err := system.Default()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printDefinition(&buf, def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}

	decoded, err := system.Decode(raw)
	if err != nil {
		t.Fatalf("decoding printed definition: %v", err)
	}
	sys, err := decoded.Build()
	if err != nil {
		t.Fatalf("building printed definition: %v", err)
	}
	if sys.RuleBase.Len() != 23 {
		t.Fatalf("expected 23 rules, got %d", sys.RuleBase.Len())
	}
}

func TestDumpReport(t *testing.T) {
	r := &report.Report{System: "vocational", Method: "centroid"}

	name, err := dumpReport(r, report.JSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Remove(name) })

	if !strings.HasSuffix(name, ".json") {
		t.Fatalf("unexpected file name %q", name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"system": "vocational"`) {
		t.Fatalf("unexpected content: %s", data)
	}
}
