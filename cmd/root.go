package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "skilltree",
	Short: "Skill-tree progress and gamification engine",
	Long: "skilltree tracks learner progress through a prerequisite graph of skill nodes, " +
		"awards XP, gems, streaks and league tiers, and calibrates node difficulty from cohort results.",
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SKILLTREE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides SKILLTREE_CONFIG env var)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log format: dev or prod")
	rootCmd.PersistentFlags().Bool("trace", false, "Print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(unlockedCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(timezoneCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(rolloverCmd)
	rootCmd.AddCommand(leagueCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (SKILLTREE_DB or db_path), then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
