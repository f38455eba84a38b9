package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/fuzzy-advisor/internal/fuzzy"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		methods := make([]string, 0, len(fuzzy.Methods()))
		for _, m := range fuzzy.Methods() {
			methods = append(methods, string(m))
		}
		fmt.Printf("%s version: %s\n", app, version)
		fmt.Printf("defuzzification methods: %s\n", strings.Join(methods, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
