// Package commands implements the promptdb subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/promptdb/promptdb/internal/cli/config"
	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/promptdb/promptdb/pkg/llm"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded config on the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFrom retrieves the config from the context, falling back to
// defaults when none was stored.
func ConfigFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Provider: config.DefaultProvider,
		Format:   config.DefaultFormat,
		Listen:   config.DefaultListen,
	}
}

// WithLogger stores the logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom retrieves the logger from the context, falling back to a
// discard logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newAgent builds an agent from the configured DSN. The connection itself
// is established lazily on first use.
func newAgent(ctx context.Context) (*agent.Agent, error) {
	cfg := ConfigFrom(ctx)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("no connection string configured (set --dsn, PROMPTDB_DSN, or dsn in promptdb.yaml)")
	}
	return agent.New(cfg.DSN, LoggerFrom(ctx)), nil
}

// newGenerator builds the plan generator for the configured provider,
// resolving its credential from the environment.
func newGenerator(ctx context.Context) (llm.Generator, error) {
	cfg := ConfigFrom(ctx)
	return llm.New(llm.Provider(cfg.Provider), LoggerFrom(ctx))
}
