package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Field describes a single column's declared data type.
type Field struct {
	Type string `json:"type"`
}

// TableSchema holds the column definitions for one table.
type TableSchema struct {
	Fields map[string]Field `json:"fields"`
}

// Schema maps stored-case table names to their column definitions.
type Schema map[string]TableSchema

// introspectQuery enumerates every column in the default schema. The full
// catalog is assumed to fit in memory; there is no pagination.
const introspectQuery = `
	SELECT table_name, column_name, data_type
	FROM information_schema.columns
	WHERE table_schema = 'public'
	ORDER BY table_name, ordinal_position
`

// Introspect queries the system catalog and returns a fresh mapping from
// table name to column definitions. The result is recomputed on every call,
// never cached. As a side effect the agent's case-insensitive table-name
// map is rebuilt, replacing any previous one.
func (a *Agent) Introspect(ctx context.Context) (Schema, error) {
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, introspectQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schema := make(Schema)
	names := make(map[string]string)

	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}

		ts, ok := schema[table]
		if !ok {
			ts = TableSchema{Fields: make(map[string]Field)}
			schema[table] = ts
			names[strings.ToLower(table)] = table
		}
		ts.Fields[column] = Field{Type: dataType}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema catalog: %w", err)
	}

	a.tableNames = names
	a.logger.Debug("introspected schema", slog.Int("tables", len(schema)))

	return schema, nil
}

// resolveTable maps a caller-supplied table name to its authoritative
// stored case. Names with no case-insensitive match pass through unchanged,
// assuming the caller already has the correct casing.
func (a *Agent) resolveTable(name string) string {
	if stored, ok := a.tableNames[strings.ToLower(name)]; ok {
		return stored
	}
	return name
}
