package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/service/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Long: `Signs an access token for the given owner with the configured JWT secret.
Intended for development and operator use; the API has no login endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("owner")
			ownerID, err := uuid.Parse(raw)
			if err != nil || ownerID == uuid.Nil {
				return fmt.Errorf("invalid --owner %q: must be a non-nil UUID", raw)
			}

			cfg, err := loadConfig(cmd, config.GroupAuth)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return err
			}

			token, err := jwtService.GenerateToken(cmd.Context(), ownerID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().String("owner", "", "Owner UUID the token identifies")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
