package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gomarten/spur/client"
	"github.com/spf13/cobra"
)

var checkURL string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the health endpoint of a running server",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkURL, "url", "http://127.0.0.1:8080", "server base URL")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	var health struct {
		Status string `json:"status"`
		Notes  int    `json:"notes"`
	}
	if err := client.New(checkURL).JSON(ctx, "GET", "/health", nil, &health); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d notes)\n", checkURL, health.Status, health.Notes)
	return nil
}
