package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/gamify"
)

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Close a league week: rank tiers, promote and demote",
	RunE: func(cmd *cobra.Command, args []string) error {
		week, _ := cmd.Flags().GetString("week")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.engine.Rollover(cmd.Context(), week)
		if err != nil {
			return err
		}
		if res.AlreadyClosed {
			fmt.Printf("Week of %s was already closed.\n", res.Week)
			return e.writeMetrics(cmd)
		}
		var promoted, demoted int
		for _, c := range res.Changes {
			if c.To.Rank() > c.From.Rank() {
				promoted++
			} else {
				demoted++
			}
		}
		fmt.Printf("Closed week of %s: %d tiers ranked, %d promoted, %d demoted.\n",
			res.Week, len(res.Standings), promoted, demoted)
		return e.writeMetrics(cmd)
	},
}

var leagueCmd = &cobra.Command{
	Use:   "league",
	Short: "Show the standings of one tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		tierFlag, _ := cmd.Flags().GetString("tier")
		week, _ := cmd.Flags().GetString("week")
		tier, err := gamify.ParseTier(tierFlag)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		week, standings, err := e.engine.Standings(cmd.Context(), week)
		if err != nil {
			return err
		}
		if week == "" {
			fmt.Println("No league week has been closed yet.")
			return nil
		}
		for _, st := range standings {
			if st.Tier != tier {
				continue
			}
			fmt.Printf("%s league, week of %s\n", strings.ToUpper(string(tier[:1]))+string(tier[1:]), week)
			fmt.Println(strings.Repeat("─", 60))
			fmt.Printf("%4s  %-24s  %8s  %-6s  %s\n", "Rank", "Learner", "XP", "Trend", "Move")
			for _, en := range st.Entries {
				fmt.Printf("%4d  %-24s  %8d  %-6s  %s\n", en.Rank, truncate(en.LearnerID, 24), en.WeeklyXP, trendArrow(en.Trend), en.Move)
			}
			return nil
		}
		fmt.Printf("No %s standings for week of %s.\n", tier, week)
		return nil
	},
}

func trendArrow(t gamify.Trend) string {
	switch t {
	case gamify.TrendUp:
		return "▲"
	case gamify.TrendDown:
		return "▼"
	case gamify.TrendSame:
		return "="
	default:
		return "new"
	}
}

func init() {
	rolloverCmd.Flags().String("week", "", "Any date in the week to close, YYYY-MM-DD (default last week)")
	rolloverCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile")

	leagueCmd.Flags().String("tier", "bronze", "League tier")
	leagueCmd.Flags().String("week", "", "Any date in the week, YYYY-MM-DD (default latest closed)")
}
