package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Load, validate and browse skill content",
}

var graphLoadCmd = &cobra.Command{
	Use:   "load [path]...",
	Short: "Validate and store content files or directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		builtin, _ := cmd.Flags().GetBool("builtin")
		nodes, err := readContent(args, builtin)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.principal(cmd, &identity.System)
		if err != nil {
			return err
		}
		if err := e.engine.LoadContent(cmd.Context(), p, nodes); err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		fmt.Printf("Loaded %d nodes.\n", len(nodes))
		return nil
	},
}

var graphValidateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Check content files without storing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := readContent(args, false)
		if err != nil {
			return err
		}
		g, err := skillgraph.New(nodes)
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d nodes, %d roots, subjects %s\n", g.Len(), len(g.Roots()), joinSubjects(g.Subjects()))
		return nil
	},
}

var graphListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored nodes (optionally filtered by subject or grade)",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetInt("grade")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		nodes, err := e.engine.Nodes(cmd.Context(), skillgraph.Subject(subject), grade)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Println("No nodes found. Load content with `skilltree graph load`.")
			return nil
		}

		// Header.
		fmt.Printf("%-24s  %-32s  %-8s  %5s  %-6s  %5s  %4s  %-10s  %s\n",
			"ID", "Title", "Subject", "Grade", "Diff", "XP", "Gems", "Kind", "Prerequisites")
		fmt.Println(strings.Repeat("─", 120))

		for _, n := range nodes {
			kind := ""
			if n.Content != nil {
				kind = string(n.Content.Kind())
			}
			if n.Checkpoint {
				kind += "*"
			}
			if !n.Active {
				kind += " (retired)"
			}
			fmt.Printf("%-24s  %-32s  %-8s  %5d  %-6s  %5d  %4d  %-10s  %s\n",
				truncate(n.ID, 24), truncate(n.Title, 32), n.Subject, n.Grade, n.Difficulty,
				n.XPReward, n.GemReward, kind, strings.Join(n.Prerequisites, ", "))
		}

		fmt.Printf("\n%d nodes (* = checkpoint)\n", len(nodes))
		return nil
	},
}

// readContent parses every path, or the built-in catalog.
func readContent(paths []string, builtin bool) ([]skillgraph.SkillNode, error) {
	if builtin {
		if len(paths) > 0 {
			return nil, fmt.Errorf("use paths or --builtin, not both")
		}
		return skillgraph.DefaultCatalog()
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no content paths given")
	}
	var all []skillgraph.SkillNode
	for _, p := range paths {
		nodes, err := skillgraph.LoadPath(p)
		if err != nil {
			return nil, err
		}
		all = append(all, nodes...)
	}
	return all, nil
}

func joinSubjects(subjects []skillgraph.Subject) string {
	names := make([]string, len(subjects))
	for i, s := range subjects {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func init() {
	graphLoadCmd.Flags().Bool("builtin", false, "Load the built-in grade 3 catalog")
	graphLoadCmd.Flags().String("token", "", "Bearer token (teacher or admin)")
	graphListCmd.Flags().String("subject", "", "Filter by subject (e.g. math)")
	graphListCmd.Flags().Int("grade", 0, "Filter by grade")

	graphCmd.AddCommand(graphLoadCmd)
	graphCmd.AddCommand(graphValidateCmd)
	graphCmd.AddCommand(graphListCmd)
}
