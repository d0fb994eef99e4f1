package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/internal/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		maxLimit int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and Prometheus metrics",
		Long: `Serve canonicalize, check and bounded search over HTTP.

Endpoints:
  GET  /healthz
  POST /v1/canonicalize   {"family": "{{}, {1}, {1, 2}}"}
  POST /v1/check          {"formula": "...", "family": "..."}
  POST /v1/search         {"n": 4, "limit": 100, "semiframes": true}
  GET  /metrics`,
		Example: `  semiframes serve --addr :9000
  curl -s localhost:9000/v1/search -H 'Content-Type: application/json' -d '{"n": 3, "limit": 20}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("max-limit") {
				cfg.MaxLimit = maxLimit
			}

			srv := server.New(cfg, c.Config.Search, loggerFromContext(cmd.Context()))
			srv.Metrics().Install()

			printInfo("serving on %s", cfg.Addr)
			err := srv.ListenAndServe(cmd.Context())
			if errors.Is(err, context.Canceled) {
				printSuccess("server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().IntVar(&maxLimit, "max-limit", 0, "largest limit a search request may ask for")

	return cmd
}
