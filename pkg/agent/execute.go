package agent

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/promptdb/promptdb/pkg/plan"
)

// QueryTypeSQL is the fixed query-type tag attached to every result.
const QueryTypeSQL = "sql"

// Result carries the rows an operation produced together with the literal
// SQL text that was run, so callers can audit exactly what executed.
type Result struct {
	Rows      []map[string]any `json:"rows"`
	Columns   []string         `json:"columns,omitempty"`
	RawQuery  string           `json:"rawQuery"`
	QueryType string           `json:"queryType"`
}

// Execute compiles the plan into one parameterized statement and runs it.
// An unsupported operation fails before any query is issued. Driver and
// query errors propagate wrapped, never retried.
func (a *Agent) Execute(ctx context.Context, p *plan.Plan) (*Result, error) {
	stmt, err := a.compile(p)
	if err != nil {
		return nil, err
	}

	if err := a.Connect(ctx); err != nil {
		return nil, err
	}

	a.logger.Debug("executing statement",
		slog.String("sql", stmt.sql),
		slog.Int("params", len(stmt.args)))

	rows, err := a.db.QueryContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, collected, err := collectRows(rows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rows:      collected,
		Columns:   cols,
		RawQuery:  stmt.sql,
		QueryType: QueryTypeSQL,
	}, nil
}

// collectRows drains a row set into ordered column names and row mappings.
// []byte values are converted to strings for readability.
func collectRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return cols, results, nil
}
