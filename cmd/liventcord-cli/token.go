package main

import (
	"fmt"
	"os"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <userId>",
		Short: "Issue an access token for local testing",
		Long: "Issue a signed access token for a user id.\n\n" +
			"Environment:\n  JWT_SECRET  HMAC secret shared with the server (required)",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := requireValue(os.Getenv("JWT_SECRET"), "JWT_SECRET")
			if err != nil {
				return err
			}
			if !snowflake.ValidUserID(args[0]) {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			token, err := auth.NewTokenService(secret).GenerateAccessToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
