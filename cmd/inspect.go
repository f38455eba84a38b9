package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/fuzzy-advisor/internal/logger"
	"github.com/spigell/fuzzy-advisor/internal/system"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the system definition, its rules or the term curves of a variable",
	Run: func(cmd *cobra.Command, _ []string) {
		inspect(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("rules", false, "list the rules; with --rating also show their firing strengths")
	inspectCmd.Flags().String("variable", "", "print the sampled term curves of a variable")
	inspectCmd.Flags().StringArrayP("rating", "r", nil, "a rating as Name=value, may be repeated")
}

func inspect(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	def, err := system.Load(strings.TrimSpace(config.System))
	if err != nil {
		logger.Fatal("loading the system", zap.Error(err))
	}

	sys, err := def.Build()
	if err != nil {
		logger.Fatal("building the system", zap.Error(err))
	}

	rules, _ := cmd.Flags().GetBool("rules")
	variable, _ := cmd.Flags().GetString("variable")
	pairs, _ := cmd.Flags().GetStringArray("rating")

	switch {
	case variable != "":
		err = printVariable(os.Stdout, sys, variable)
	case rules:
		err = printRules(os.Stdout, sys, config.Ratings, pairs)
	default:
		err = printDefinition(os.Stdout, def)
	}
	if err != nil {
		logger.Fatal("inspecting the system", zap.Error(err))
	}
}

func printDefinition(w io.Writer, def *system.Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	return enc.Close()
}

// printRules lists every rule. When all inputs are rated the firing strength
// of each rule is shown too.
func printRules(w io.Writer, sys *system.System, fromConfig map[string]any, pairs []string) error {
	var strengths []float64
	if len(fromConfig) > 0 || len(pairs) > 0 {
		r, err := collectRatings(sys, fromConfig, pairs)
		if err != nil {
			return err
		}
		if missing := r.Missing(sys.RuleBase); len(missing) > 0 {
			return fmt.Errorf("firing strengths need every input, missing %s", strings.Join(missing, ", "))
		}
		strengths, err = sys.RuleBase.Strengths(r)
		if err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, rule := range sys.RuleBase.Rules() {
		if strengths != nil {
			fmt.Fprintf(tw, "%d\t%.3f\t%s\n", i+1, strengths[i], rule)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\n", i+1, rule)
	}
	return tw.Flush()
}

func printVariable(w io.Writer, sys *system.System, name string) error {
	var found string
	for _, candidate := range append(sys.RuleBase.Inputs(), sys.RuleBase.Outputs()...) {
		if strings.EqualFold(candidate, name) || strings.EqualFold(sys.Label(candidate), name) {
			found = candidate
			break
		}
	}
	v, ok := sys.RuleBase.Variable(found)
	if !ok {
		return fmt.Errorf("unknown variable %q", name)
	}

	terms := v.Terms()
	curves := v.Curve()
	samples := v.Universe().Samples()

	fmt.Fprintf(w, "%s (%s, %g..%g step %g)\n", sys.Label(found), v.Role(), v.Universe().Min, v.Universe().Max, v.Universe().Resolution)
	for _, t := range terms {
		term, _ := v.Term(t)
		fmt.Fprintf(w, "  %s: %s\n", t, term.Membership)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "x\t%s\t\n", strings.Join(terms, "\t"))
	for i, x := range samples {
		row := make([]string, 0, len(terms))
		for _, t := range terms {
			row = append(row, fmt.Sprintf("%.3f", curves[t][i]))
		}
		fmt.Fprintf(tw, "%g\t%s\t\n", x, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
