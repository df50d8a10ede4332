package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/omnidesk/omnidesk/internal/auth"
	"github.com/omnidesk/omnidesk/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		operatorID   string
		operatorName string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator JWT for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
			if err != nil {
				return fmt.Errorf("parse jwt_expires_in: %w", err)
			}
			token, expiresAt, err := auth.GenerateToken(operatorID, operatorName, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Println(token)
			fmt.Printf("expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&operatorID, "operator-id", "", "operator identifier embedded in the token")
	cmd.Flags().StringVar(&operatorName, "operator-name", "", "operator display name embedded in the token")
	_ = cmd.MarkFlagRequired("operator-id")
	return cmd
}
