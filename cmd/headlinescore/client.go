package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/headlinescore/internal/client"
	"github.com/crimson-sun/headlinescore/internal/interactive"
)

var clientURL string

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Edit headlines interactively and score them through the API",
	Args:  cobra.NoArgs,
	RunE:  runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientURL, "url", "", "API base URL (overrides client.url)")
}

func runClient(cmd *cobra.Command, _ []string) error {
	url := cfg.Client.URL
	if clientURL != "" {
		url = clientURL
	}
	c := client.New(url, client.WithTimeout(cfg.Client.Timeout.Std()))

	if status, err := c.Status(cmd.Context()); err != nil {
		slog.Warn("scoring API not reachable yet", "url", url, "error", err)
	} else {
		slog.Debug("scoring API reachable", "url", url, "status", status)
	}

	err := interactive.NewSession(c, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
