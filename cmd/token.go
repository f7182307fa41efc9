package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed bearer token for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, _ := cmd.Flags().GetString("sub")
		roleFlag, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		role, err := identity.ParseRole(roleFlag)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		issuer, err := identity.NewIssuer(cfg.Auth, nil)
		if err != nil {
			return fmt.Errorf("%w (set SKILLTREE_JWT_SECRET)", err)
		}
		token, err := issuer.Issue(identity.Principal{ID: sub, Role: role}, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("sub", "", "Principal ID")
	tokenCmd.Flags().String("role", "learner", "Role: learner, teacher or admin")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}
