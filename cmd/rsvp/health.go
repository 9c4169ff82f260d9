package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-rsvp/internal/server"
)

func newHealthCmd() *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			version, err := server.ProbeHTTP(ctx, addr)
			if err != nil {
				return fmt.Errorf("probe %s: %w", addr, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", version)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP server address to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")

	return cmd
}
