package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

var unlockedCmd = &cobra.Command{
	Use:   "unlocked",
	Short: "List the nodes a learner can start now",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetInt("grade")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		nodes, err := e.engine.Unlocked(cmd.Context(), learner, skillgraph.Subject(subject), grade)
		var integrity *skillgraph.GraphIntegrityError
		if err != nil && !errors.As(err, &integrity) {
			return err
		}
		if integrity != nil {
			fmt.Printf("warning: %d content problems; affected nodes are hidden\n\n", len(integrity.Problems))
		}
		if len(nodes) == 0 {
			fmt.Println("Nothing unlocked.")
			return nil
		}
		for _, n := range nodes {
			fmt.Printf("%-24s  %-8s  %-6s  %s\n", n.ID, n.Subject, n.Difficulty, n.Title)
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest the next best nodes for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetInt("grade")
		n, _ := cmd.Flags().GetInt("count")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		recs, err := e.engine.Recommend(cmd.Context(), learner, skillgraph.Subject(subject), grade, n)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No recommendations: nothing is unlocked.")
			return nil
		}
		for i, r := range recs {
			fmt.Printf("%d. %-24s  %-32s  ~%d min\n   %s\n",
				i+1, r.Node.ID, truncate(r.Node.Title, 32), r.EstimatedMins, r.Reason)
		}
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show a learner's XP, level, gems, streak and league",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		v, err := e.engine.State(cmd.Context(), learner)
		if err != nil {
			return err
		}
		fmt.Printf("Learner:   %s\n", v.LearnerID)
		fmt.Printf("Level:     %d (%d XP, next at %d)\n", v.Level, v.TotalXP, v.NextLevelAt)
		fmt.Printf("Gems:      %d\n", v.Gems)
		fmt.Printf("Streak:    %d days (longest %d)\n", v.CurrentStreak, v.LongestStreak)
		fmt.Printf("League:    %s\n", v.Tier())
		if v.WeekStart != "" {
			fmt.Printf("This week: %d XP (week of %s)\n", v.WeeklyXP, v.WeekStart)
		}
		return nil
	},
}

var timezoneCmd = &cobra.Command{
	Use:   "timezone",
	Short: "Set the timezone a learner's streak days are counted in",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		tz, _ := cmd.Flags().GetString("tz")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.principal(cmd, &identity.Principal{ID: learner, Role: identity.RoleLearner})
		if err != nil {
			return err
		}
		st, err := e.engine.SetTimezone(cmd.Context(), p, learner, tz)
		if err != nil {
			return err
		}
		fmt.Printf("%s: timezone %s (streak %d, last active %s)\n",
			st.LearnerID, st.Timezone, st.Streak, orDash(st.LastActivity))
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show cohort metrics for a node",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := e.engine.NodeMetrics(cmd.Context(), nodeID)
		if err != nil {
			return err
		}
		fmt.Printf("Node:             %s\n", m.NodeID)
		fmt.Printf("Students:         %d\n", m.UniqueStudents)
		fmt.Printf("Completion rate:  %.1f%%\n", m.CompletionRate*100)
		fmt.Printf("Average score:    %.1f\n", m.AverageScore)
		fmt.Printf("Average attempts: %.2f\n", m.AverageAttempts)
		fmt.Printf("Dropout rate:     %.1f%%\n", m.DropoutRate*100)
		fmt.Printf("As of:            %s\n", m.AsOf.Local().Format(time.DateTime))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{unlockedCmd, recommendCmd, stateCmd, timezoneCmd} {
		c.Flags().String("learner", "", "Learner ID")
		_ = c.MarkFlagRequired("learner")
	}
	for _, c := range []*cobra.Command{unlockedCmd, recommendCmd} {
		c.Flags().String("subject", "", "Filter by subject")
		c.Flags().Int("grade", 0, "Filter by grade")
	}
	recommendCmd.Flags().IntP("count", "n", 3, "Number of recommendations")

	timezoneCmd.Flags().String("tz", "", "IANA timezone, e.g. Pacific/Auckland")
	timezoneCmd.Flags().String("token", "", "Bearer token")
	_ = timezoneCmd.MarkFlagRequired("tz")

	metricsCmd.Flags().String("node", "", "Node ID")
	_ = metricsCmd.MarkFlagRequired("node")
}
