package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-portal/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		configPath string
		email      string
		roles      []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		Long:  "Signs a token with the configured secret, for local testing against the API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, configPath, email, roles)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVar(&email, "email", "", "identity carried by the token (required)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"user"}, "roles granted to the token")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runToken(cmd *cobra.Command, configPath, email string, roles []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(email, roles)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
	return nil
}
