package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "liventcord-cli",
		Short:         "Operator tooling for the LiventCord message service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newTokenCmd(),
		newHealthCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "liventcord-cli %s\n", version)
			},
		},
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireValue returns v, or an error naming the environment variable that
// should have supplied it.
func requireValue(v, env string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("%s environment variable is required", env)
	}
	return v, nil
}
