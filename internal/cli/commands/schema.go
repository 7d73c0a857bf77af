package commands

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table]",
		Short: "Introspect and print the database schema",
		Long: `Schema queries the database's system catalog and prints every table
and column visible in the default schema. The schema is recomputed on
every invocation, never cached.`,
		Example: `  promptdb schema
  promptdb schema orders
  promptdb schema --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ag, err := newAgent(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = ag.Close() }()

			schema, err := ag.Introspect(ctx)
			if err != nil {
				return err
			}

			var filter string
			if len(args) > 0 {
				filter = args[0]
			}

			format := ConfigFrom(ctx).Format
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if filter != "" {
					return enc.Encode(filterSchema(schema, filter))
				}
				return enc.Encode(schema)
			}

			cols, rows := schemaRows(schema, filter)
			return renderRows(cmd.OutOrStdout(), cols, rows, format)
		},
	}
}

// filterSchema narrows a schema to one table, matched case-insensitively
// against the stored names.
func filterSchema(schema agent.Schema, table string) agent.Schema {
	out := make(agent.Schema)
	for name, ts := range schema {
		if strings.EqualFold(name, table) {
			out[name] = ts
		}
	}
	return out
}

// schemaRows flattens a schema into (table, column, type) rows sorted by
// table then column name.
func schemaRows(schema agent.Schema, filter string) ([]string, []map[string]any) {
	cols := []string{"table", "column", "type"}

	var rows []map[string]any
	for _, table := range sortedTableNames(schema) {
		if filter != "" && !strings.EqualFold(table, filter) {
			continue
		}
		ts := schema[table]

		columns := make([]string, 0, len(ts.Fields))
		for column := range ts.Fields {
			columns = append(columns, column)
		}
		sort.Strings(columns)

		for _, column := range columns {
			rows = append(rows, map[string]any{
				"table":  table,
				"column": column,
				"type":   ts.Fields[column].Type,
			})
		}
	}
	return cols, rows
}

