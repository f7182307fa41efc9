package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("skilltree", resolvedVersion())
	},
}

// resolvedVersion prefers the linker-set version, then the module version
// recorded by `go install`.
func resolvedVersion() string {
	if semver.IsValid(version) {
		return semver.Canonical(version) + semver.Build(version)
	}
	if info, ok := debug.ReadBuildInfo(); ok && semver.IsValid(info.Main.Version) {
		return info.Main.Version
	}
	return version
}
