// Package agent implements the natural-language-to-SQL agent core:
// a lazily-connected PostgreSQL handle, schema introspection, and the
// compilation and execution of structured query plans.
package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	// pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrUnsupportedOperation is returned when a plan's operation tag matches
// none of the four supported kinds. No query is run in that case.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Agent owns a single database connection and the table-name resolution
// map derived from the last introspection. It is designed for one logical
// flow at a time; methods are not safe for concurrent use on the same
// instance.
type Agent struct {
	dsn        string
	db         *sql.DB
	tableNames map[string]string // lowercase name -> stored-case name
	logger     *slog.Logger
}

// New creates an agent for the given connection string. The DSN is passed
// through to the driver opaquely; no connection is made until first use.
// If logger is nil, a discard logger is used.
func New(dsn string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{dsn: dsn, logger: logger}
}

// NewWithDB creates an agent over an already-open database handle. Used by
// tests and callers that manage the connection themselves.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Agent {
	a := New("", logger)
	a.db = db
	return a
}

// Connect establishes the database connection if it is not already
// established. Repeated calls before a Close are no-ops.
func (a *Agent) Connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	a.logger.Debug("connecting to database", slog.String("database", a.DatabaseName()))

	db, err := sql.Open("pgx", a.dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Close tears down the connection and resets state so that a subsequent
// operation re-establishes it. Closing a disconnected agent is a no-op.
func (a *Agent) Close() error {
	if a.db == nil {
		return nil
	}
	a.logger.Debug("closing database connection")
	err := a.db.Close()
	a.db = nil
	return err
}

// IsConnected reports whether the connection is currently established.
func (a *Agent) IsConnected() bool {
	return a.db != nil
}

// DatabaseName returns a display name for the target database, parsed from
// the final path segment of the connection string up to an optional query
// string.
func (a *Agent) DatabaseName() string {
	name := a.dsn
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	return name
}
