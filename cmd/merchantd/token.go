package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/auth"
)

func newTokenCmd() *cobra.Command {
	var actor entity.Actor

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
			if err != nil {
				return err
			}

			token, expiresAt, err := tokens.Issue(actor)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&actor.UserID, "user", "", "user id recorded on status changes")
	cmd.Flags().StringVar(&actor.Email, "email", "", "operator email")
	cmd.Flags().StringVar(&actor.Role, "role", "reviewer", "operator role")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
