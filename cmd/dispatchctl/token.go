package main

import (
	"fmt"
	"waste-dispatch-service/internal/auth"
	"waste-dispatch-service/internal/domain"

	"github.com/spf13/cobra"
)

// newTokenCommand mints a bearer token for local testing. The login is not
// checked against the user table.
func newTokenCommand() *cobra.Command {
	var login, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if r != domain.RoleAdmin && r != domain.RoleDriver && r != domain.RoleKiosk {
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL).Issue(login, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "User login (token subject)")
	cmd.Flags().StringVar(&role, "role", "driver", "admin, driver or kiosk")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}
