package main

import (
	"os"

	// Embedded zoneinfo so learner and league timezones resolve on hosts
	// without a system tz database.
	_ "time/tzdata"

	"github.com/abhisek/skilltree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
