package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/fuzzy-advisor/internal/ai"
	"github.com/spigell/fuzzy-advisor/internal/ai/gemini"
	"github.com/spigell/fuzzy-advisor/internal/filtering"
	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
	"github.com/spigell/fuzzy-advisor/internal/logger"
	"github.com/spigell/fuzzy-advisor/internal/ranking"
	"github.com/spigell/fuzzy-advisor/internal/ratings"
	"github.com/spigell/fuzzy-advisor/internal/report"
	"github.com/spigell/fuzzy-advisor/internal/secrets"
	"github.com/spigell/fuzzy-advisor/internal/system"
	"github.com/spigell/fuzzy-advisor/internal/utils"
)

const (
	PromptShowReport = "Show report"
	PromptStrengths  = "Show fired rules"
	PromptCurves     = "Show aggregated curves"
	PromptFilters    = "Show filters"
	PromptAdvice     = "Ask for advice"
	PromptDump       = "Dump report to file"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every category of the system from the given ratings",
	Example: `  fuzzy-advisor score -r Logic=5 -r Technology=4 ...
  fuzzy-advisor score --interactive`,
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringArrayP("rating", "r", nil, "a rating as Name=value, may be repeated")
	scoreCmd.Flags().BoolP("interactive", "i", false, "prompt for missing ratings and show an action menu")
	scoreCmd.Flags().StringP("defuzzify", "m", "", "defuzzification method: centroid, bisector, mom, som or lom")
	scoreCmd.Flags().StringP("format", "o", "", "report format: table, json or yaml")
	scoreCmd.Flags().Int("top", 0, "show only the best N categories")
	scoreCmd.Flags().Float64("minimum-score", 0, "hide categories scoring below this value")
	scoreCmd.Flags().Bool("exclude-degraded", false, "hide categories for which no rule fired")
	scoreCmd.Flags().StringArray("skip-filter", nil, "leave a filter out of the pipeline, may be repeated")
	scoreCmd.Flags().Bool("advise", false, "ask the configured AI provider for a narrative recommendation")

	viper.BindPFlag("defuzzify", scoreCmd.Flags().Lookup("defuzzify"))
	viper.BindPFlag("report.format", scoreCmd.Flags().Lookup("format"))
	viper.BindPFlag("report.top", scoreCmd.Flags().Lookup("top"))
	viper.BindPFlag("report.minimum-score", scoreCmd.Flags().Lookup("minimum-score"))
	viper.BindPFlag("report.exclude-degraded", scoreCmd.Flags().Lookup("exclude-degraded"))
	viper.BindPFlag("report.skip-filters", scoreCmd.Flags().Lookup("skip-filter"))
	viper.BindPFlag("ai.enabled", scoreCmd.Flags().Lookup("advise"))
}

// session holds everything produced by one scoring run.
type session struct {
	sys     *system.System
	sim     *fuzzy.Simulation
	ratings ratings.Ratings
	entries *ranking.Entries
	filters []filtering.Filter
	report  *report.Report
	logger  *zap.Logger
}

// score is the main command for the cli.
func score(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	baseLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer baseLogger.Sync()

	config, err := getConfig()
	if err != nil {
		baseLogger.Fatal("getting a config", zap.Error(err))
	}

	format, err := report.ParseFormat(config.Report.Format)
	if err != nil {
		baseLogger.Fatal("parsing report format", zap.Error(err))
	}

	sys, err := loadSystem(config.System)
	if err != nil {
		baseLogger.Fatal("building the system", zap.Error(err), zap.String("path", config.System))
	}

	engine, err := sys.NewEngine(fuzzy.Method(strings.ToLower(strings.TrimSpace(config.Defuzzify))))
	if err != nil {
		baseLogger.Fatal("creating the inference engine", zap.Error(err))
	}

	sim := fuzzy.NewSimulation(engine)
	s := &session{
		sys:    sys,
		sim:    sim,
		logger: logger.WithSession(baseLogger, sys.Name, sim.ID(), string(engine.Method())),
	}

	s.logger.Info("system built",
		zap.Int("inputs", len(sys.RuleBase.Inputs())),
		zap.Int("outputs", len(sys.RuleBase.Outputs())),
		zap.Int("rules", sys.RuleBase.Len()),
	)

	interactive, _ := cmd.Flags().GetBool("interactive")
	flagRatings, _ := cmd.Flags().GetStringArray("rating")

	s.ratings, err = collectRatings(sys, config.Ratings, flagRatings)
	if err != nil {
		s.logger.Fatal("reading ratings", zap.Error(err))
	}

	if missing := s.ratings.Missing(sys.RuleBase); len(missing) > 0 {
		if !interactive {
			s.logger.Fatal("ratings are incomplete",
				zap.Strings("missing", missing),
				zap.String("hint", "pass --rating Name=value, set ratings in the config file or use --interactive"),
			)
		}
		if err := promptRatings(sys, s.ratings, missing); err != nil {
			s.logger.Fatal("exiting", zap.Error(err))
		}
	}

	if err := s.compute(ctx, config); err != nil {
		s.logger.Fatal("scoring failed", zap.Error(err))
	}

	if config.AI.Enabled {
		s.advise(ctx, config.AI)
	}

	if !interactive {
		if err := report.Render(os.Stdout, format, s.report); err != nil {
			s.logger.Fatal("rendering report", zap.Error(err))
		}
		return
	}

	menu := promptui.Select{
		Label: "What next?",
		Items: []string{PromptShowReport, PromptStrengths, PromptCurves, PromptFilters, PromptAdvice, PromptDump, PromptExit},
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			s.logger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handleAction(ctx, action, format, config); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			s.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func loadSystem(path string) (*system.System, error) {
	def, err := system.Load(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	return def.Build()
}

func collectRatings(sys *system.System, fromConfig map[string]any, pairs []string) (ratings.Ratings, error) {
	configured, err := ratings.Coerce(fromConfig)
	if err != nil {
		return nil, fmt.Errorf("config ratings: %w", err)
	}

	flagged, err := ratings.ParsePairs(pairs)
	if err != nil {
		return nil, err
	}

	return ratings.Resolve(sys.RuleBase, configured, flagged)
}

func promptRatings(sys *system.System, r ratings.Ratings, missing []string) error {
	for _, name := range missing {
		v, _ := sys.RuleBase.Variable(name)
		u := v.Universe()

		p := promptui.Prompt{
			Label: fmt.Sprintf("%s (%g-%g)", sys.Label(name), u.Min, u.Max),
			Validate: func(input string) error {
				value, err := ratings.ParseValue(input)
				if err != nil {
					return err
				}
				if !u.Contains(value) {
					return fmt.Errorf("value must be between %g and %g", u.Min, u.Max)
				}
				return nil
			},
		}

		raw, err := p.Run()
		if err != nil {
			return err
		}

		value, err := ratings.ParseValue(raw)
		if err != nil {
			return err
		}
		r[name] = value
	}
	return nil
}

// compute runs inference, ranks the outputs and applies the configured filters.
func (s *session) compute(ctx context.Context, config *Config) error {
	if err := s.sim.SetInputs(s.ratings); err != nil {
		return err
	}
	s.logger.Debug("inputs accepted", zap.Any("ratings", s.ratings))

	if err := s.sim.Compute(); err != nil {
		return err
	}

	res, err := s.sim.Result()
	if err != nil {
		return err
	}

	outputs := s.sys.RuleBase.Outputs()
	if degraded := res.DegradedOutputs(outputs); len(degraded) > 0 {
		s.logger.Warn("no rule fired for some categories, their score is a fallback",
			zap.Strings("categories", degraded),
			zap.Float64("fallback", fuzzy.DegradedValue),
		)
	}
	s.logger.Info("compute done", zap.Int("categories", len(res.Outputs)))

	s.entries = ranking.FromResult(res, outputs, s.sys.Label)
	all := s.entries.Names()

	filterCfg := &filtering.Config{
		MinimumScore:    config.Report.MinimumScore,
		ExcludeDegraded: config.Report.ExcludeDegraded,
		Exclude:         config.Report.Exclude,
		Top:             config.Report.Top,
	}

	s.filters = filtering.Default()
	for _, name := range config.Report.SkipFilters {
		name = strings.TrimSpace(name)
		if !filtering.DisableByName(s.filters, name, "skipped by config") {
			return fmt.Errorf("unknown filter %q; known filters are %s", name, strings.Join(filtering.Names(s.filters), ", "))
		}
	}

	kept, err := filtering.Run(ctx, filterCfg, filtering.Deps{Logger: s.logger}, s.filters, s.entries)
	if err != nil {
		return fmt.Errorf("filtering: %w", err)
	}

	s.report = &report.Report{
		System:     s.sys.Name,
		Session:    s.sim.ID(),
		Method:     string(s.sim.Engine().Method()),
		Inputs:     reportInputs(s.sys, s.ratings),
		Categories: kept.Items,
		Filtered:   dropped(all, kept.Names()),
	}

	return nil
}

func reportInputs(sys *system.System, r ratings.Ratings) []report.Input {
	names := r.Names(sys.RuleBase)
	inputs := make([]report.Input, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, report.Input{Name: name, Label: sys.Label(name), Value: r[name]})
	}
	return inputs
}

func dropped(all, kept []string) []string {
	seen := make(map[string]struct{}, len(kept))
	for _, name := range kept {
		seen[name] = struct{}{}
	}
	var out []string
	for _, name := range all {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// advise asks the AI provider for a narrative reading. Failures are logged
// and never abort the command.
func (s *session) advise(ctx context.Context, cfg *AIConfig) {
	advisor, err := newAdvisor(ctx, cfg, s.logger)
	if err != nil {
		s.logger.Warn("skipping advice", zap.Error(err))
		return
	}

	advice, err := advisor.Advise(ctx, s.profile())
	if err != nil {
		s.logger.Warn("advice failed", zap.Error(err))
		return
	}

	s.logger.Info("advice generated", zap.Int("recommendations", len(advice.Recommendations)))
	s.report.Advice = advice
}

func (s *session) profile() *ai.Profile {
	p := &ai.Profile{System: s.sys.Name, Categories: s.entries.Items}
	for _, name := range s.ratings.Names(s.sys.RuleBase) {
		v, _ := s.sys.RuleBase.Variable(name)
		p.Ratings = append(p.Ratings, ai.Rating{
			Name:  name,
			Label: s.sys.Label(name),
			Value: s.ratings[name],
			Min:   v.Universe().Min,
			Max:   v.Universe().Max,
		})
	}
	return p
}

func newAdvisor(ctx context.Context, cfg *AIConfig, sessionLogger *zap.Logger) (ai.Advisor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := sessionLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAdvisor(generator, sessionLogger, cfg.Gemini.MaxLogLength), nil
}

func (s *session) handleAction(ctx context.Context, action string, format report.Format, config *Config) error {
	switch action {
	case PromptShowReport:
		return report.Render(os.Stdout, format, s.report)
	case PromptStrengths:
		return s.printStrengths(os.Stdout)
	case PromptCurves:
		return s.printCurves(os.Stdout)
	case PromptFilters:
		return s.printFilters(os.Stdout)
	case PromptAdvice:
		s.advise(ctx, config.AI)
		if s.report.Advice != nil {
			return report.Render(os.Stdout, format, s.report)
		}
		return nil
	case PromptDump:
		filename, err := dumpReport(s.report, format)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		s.logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) printStrengths(w io.Writer) error {
	res, err := s.sim.Result()
	if err != nil {
		return err
	}

	rules := s.sys.RuleBase.Rules()
	fired := 0
	for i, strength := range res.Strengths {
		if strength <= 0 {
			continue
		}
		fired++
		fmt.Fprintf(w, "%3d  %.3f  %s\n", i+1, strength, rules[i])
	}
	fmt.Fprintf(w, "%d of %d rules fired\n", fired, len(rules))
	return nil
}

// printCurves prints the aggregated curve of every output. Categories removed
// by the filters are marked as such.
func (s *session) printCurves(w io.Writer) error {
	res, err := s.sim.Result()
	if err != nil {
		return err
	}

	for _, name := range s.sys.RuleBase.Outputs() {
		curve, ok := res.Curves[name]
		if !ok {
			continue
		}
		if e := s.entries.Find(name); e != nil {
			fmt.Fprintf(w, "%s (rank %d, score %.3f)\n", s.sys.Label(name), e.Rank, e.Score)
		} else {
			fmt.Fprintf(w, "%s (filtered)\n", s.sys.Label(name))
		}
		for i, x := range curve.X {
			fmt.Fprintf(w, "  %6.2f  %s %.3f\n", x, utils.Bar(curve.Y[i], 20), curve.Y[i])
		}
	}
	return nil
}

func (s *session) printFilters(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, status := range filtering.Describe(s.filters) {
		state := "enabled"
		if !status.Enabled {
			state = "disabled"
			if status.Reason != "" {
				state += " (" + status.Reason + ")"
			}
		}

		keys := make([]string, 0, len(status.Details))
		for k := range status.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, k+"="+status.Details[k])
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", status.Name, state, strings.Join(details, " "))
	}
	return tw.Flush()
}

func dumpReport(r *report.Report, format report.Format) (string, error) {
	ext := string(format)
	if format == report.Table {
		ext = "txt"
	}

	f, err := os.CreateTemp("", app+"-*."+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := report.Render(f, format, r); err != nil {
		return "", err
	}
	return f.Name(), nil
}
