package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/engine"
	"github.com/abhisek/skilltree/internal/llm"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/tutor"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Suggest difficulty changes from cohort metrics (dry run unless --apply)",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetInt("grade")
		apply, _ := cmd.Flags().GetBool("apply")
		draft, _ := cmd.Flags().GetBool("draft-support")
		ctx := cmd.Context()

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.principal(cmd, nil)
		if err != nil {
			return err
		}
		run, err := e.engine.Calibrate(ctx, p, skillgraph.Subject(subject), grade, !apply)
		if err != nil {
			return err
		}
		printCalibration(run)

		if draft && len(run.Report.Flagged) > 0 {
			provider, err := llm.New(ctx, e.cfg.LLM, llm.Recorder{Events: e.store, Log: e.log, Metrics: e.metrics})
			switch {
			case err != nil:
				return err
			case provider == nil:
				fmt.Println("\nNo LLM provider configured; skipping support drafts.")
			default:
				byID := make(map[string]skillgraph.SkillNode, len(run.Nodes))
				for _, n := range run.Nodes {
					byID[n.ID] = n
				}
				drafts, err := tutor.NewDrafter(provider, e.cfg.Tutor).DraftAll(ctx, byID, run.Report.Flagged)
				if err != nil {
					e.log.Warn("support drafting failed", "error", err)
					fmt.Println("\nSupport drafting failed:", err)
					break
				}
				printDrafts(drafts)
			}
		}
		return e.writeMetrics(cmd)
	},
}

func printCalibration(run engine.CalibrationRun) {
	r := run.Report
	if len(r.Proposals) > 0 {
		fmt.Println("Proposed changes")
		fmt.Println(strings.Repeat("─", 100))
		fmt.Printf("%-24s  %-15s  %-11s  %-9s  %5s  %s\n", "Node", "Difficulty", "XP", "Gems", "Conf", "Rationale")
		for _, pr := range r.Proposals {
			fmt.Printf("%-24s  %-15s  %-11s  %-9s  %5.2f  %s\n",
				truncate(pr.NodeID, 24),
				fmt.Sprintf("%s → %s", pr.Before.Difficulty, pr.After.Difficulty),
				fmt.Sprintf("%d → %d", pr.Before.XPReward, pr.After.XPReward),
				fmt.Sprintf("%d → %d", pr.Before.GemReward, pr.After.GemReward),
				pr.Confidence, pr.Rationale)
		}
		fmt.Println()
	}
	if len(r.Flagged) > 0 {
		fmt.Println("Needs support")
		fmt.Println(strings.Repeat("─", 100))
		for _, f := range r.Flagged {
			fmt.Printf("%-24s  %-10s  %s\n  %s\n", truncate(f.NodeID, 24), f.Kind, f.SupportAction, f.Rationale)
		}
		fmt.Println()
	}
	fmt.Printf("%d to change, %d flagged, %d unchanged, %d skipped\n",
		len(r.Proposals), len(r.Flagged), len(r.Kept), len(r.Skipped))

	switch {
	case len(r.Proposals) == 0:
	case run.DryRun:
		fmt.Println("Dry run: nothing was written. Re-run with --apply to apply.")
	default:
		fmt.Printf("Applied as run %s.\n", run.RunID)
	}
}

func printDrafts(drafts []tutor.SupportDraft) {
	fmt.Println("\nSupport drafts (review before use)")
	fmt.Println(strings.Repeat("─", 100))
	for _, d := range drafts {
		fmt.Printf("%s\n", d.NodeID)
		for i, h := range d.Hints {
			fmt.Printf("  %d. %s\n", i+1, h)
		}
		if d.TeacherNote != "" {
			fmt.Printf("  Note: %s\n", d.TeacherNote)
		}
	}
}

func init() {
	calibrateCmd.Flags().String("subject", "", "Subject to calibrate")
	calibrateCmd.Flags().Int("grade", 0, "Grade to calibrate")
	calibrateCmd.Flags().String("token", "", "Bearer token (teacher or admin)")
	calibrateCmd.Flags().Bool("apply", false, "Write the proposed changes")
	calibrateCmd.Flags().Bool("draft-support", false, "Draft hints for flagged nodes with the configured LLM")
	calibrateCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile")
	_ = calibrateCmd.MarkFlagRequired("subject")
	_ = calibrateCmd.MarkFlagRequired("grade")
}
