package commands

import (
	"os/signal"
	"syscall"

	"github.com/promptdb/promptdb/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP",
		Long: `Serve exposes the agent as a small JSON API:

  GET  /healthz    Liveness check
  GET  /v1/schema  Introspect and return the database schema
  POST /v1/plan    Generate a query plan from {"prompt": "..."}
  POST /v1/query   Generate (or accept) a plan and execute it`,
		Example: `  promptdb serve --listen :8080
  curl -s localhost:8080/v1/schema
  curl -s -X POST localhost:8080/v1/query -d '{"prompt":"count users"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg := ConfigFrom(ctx)

			ag, err := newAgent(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = ag.Close() }()

			gen, err := newGenerator(ctx)
			if err != nil {
				return err
			}

			srv := server.New(server.Config{
				Agent:     ag,
				Generator: gen,
				Model:     cfg.Model,
				Addr:      cfg.Listen,
				Logger:    LoggerFrom(ctx),
			})
			return srv.Serve(ctx)
		},
	}
}
