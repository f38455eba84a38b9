package main

import (
	"os"

	"github.com/spigell/fuzzy-advisor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
