package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/progress"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Record a scored attempt on a node",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		nodeID, _ := cmd.Flags().GetString("node")
		score, _ := cmd.Flags().GetInt("score")
		spent, _ := cmd.Flags().GetDuration("time-spent")
		atFlag, _ := cmd.Flags().GetString("at")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		at, err := attemptTime(atFlag, e.clock)
		if err != nil {
			return err
		}

		// Without a token the CLI acts as the learner themself.
		p, err := e.principal(cmd, &identity.Principal{ID: learner, Role: identity.RoleLearner})
		if err != nil {
			return err
		}
		res, err := e.engine.RecordCompletion(cmd.Context(), p, progress.Attempt{
			LearnerID: learner,
			NodeID:    nodeID,
			Score:     score,
			At:        at,
			TimeSpent: spent,
		})
		if err != nil {
			return err
		}

		ev := res.Events
		fmt.Printf("%s: best %d (%s), attempt %d\n",
			res.Record.NodeID, res.Record.BestScore, stars(res.Record.Stars), res.Record.Attempts)
		fmt.Printf("+%d XP  +%d gems  total %d XP, %d gems\n",
			ev.XPAwarded, ev.GemsAwarded, res.State.TotalXP, res.State.Gems)
		if ev.LeveledUp {
			fmt.Printf("Level up! %d → %d\n", ev.FromLevel, ev.ToLevel)
		}
		switch {
		case res.OutOfOrder:
			fmt.Printf("Attempt predates last activity (%s); streak unchanged at %d\n", res.State.LastActivity, res.State.Streak)
		case ev.StreakMilestone > 0:
			fmt.Printf("Streak milestone: %d days!\n", ev.StreakMilestone)
		case ev.StreakBroken:
			fmt.Println("Streak restarted at 1 day")
		case ev.StreakExtended:
			fmt.Printf("Streak: %d days\n", res.State.Streak)
		}
		if len(res.NewlyUnlocked) > 0 {
			ids := make([]string, len(res.NewlyUnlocked))
			for i, n := range res.NewlyUnlocked {
				ids[i] = n.ID
			}
			fmt.Printf("Unlocked: %s\n", strings.Join(ids, ", "))
		}
		return nil
	},
}

// attemptTime parses --at, defaulting to the current time on c.
func attemptTime(flag string, c clock.Clock) (time.Time, error) {
	if flag == "" {
		return c.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t, nil
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", 3-n)
}

func init() {
	completeCmd.Flags().String("learner", "", "Learner ID")
	completeCmd.Flags().String("node", "", "Node ID")
	completeCmd.Flags().Int("score", 0, "Score 0-100")
	completeCmd.Flags().Duration("time-spent", 0, "Time spent on the attempt (e.g. 12m)")
	completeCmd.Flags().String("at", "", "Attempt time, RFC 3339 (default now)")
	completeCmd.Flags().String("token", "", "Bearer token")
	_ = completeCmd.MarkFlagRequired("learner")
	_ = completeCmd.MarkFlagRequired("node")
	_ = completeCmd.MarkFlagRequired("score")
}
