package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check if the server is running",
		Long: "Check if the LiventCord server is running.\n\n" +
			"Environment:\n  SERVER_URL  Server base URL (default: http://localhost:8080)",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			url := serverURL + "/health"
			fmt.Fprintf(out, "checking %s ...\n", url)

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(out, "status: %d\n", resp.StatusCode)
			if len(body) > 0 {
				fmt.Fprintf(out, "body:   %s\n", string(body))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned non-200 status")
			}
			fmt.Fprintln(out, "server is healthy")
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server-url", envOr("SERVER_URL", "http://localhost:8080"), "server base URL")
	return cmd
}
