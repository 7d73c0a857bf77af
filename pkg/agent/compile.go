package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptdb/promptdb/pkg/plan"
)

// statement is a compiled SQL statement with its positional bind parameters.
type statement struct {
	sql  string
	args []any
}

// compile maps a plan onto exactly one parameterized SQL statement. The
// table name is resolved through the case-insensitive map first and always
// identifier-quoted.
//
// The WHERE predicate is interpolated as raw text, never bound: the plan
// generator supplies full predicate expressions ("price > 100 AND …") that
// cannot be represented as a single bind value. This is a known injection
// surface; callers must treat plans built from untrusted prompts
// accordingly.
func (a *Agent) compile(p *plan.Plan) (statement, error) {
	table := quoteIdent(a.resolveTable(p.Table))

	switch p.Operation {
	case plan.OpSelect:
		fields := "*"
		if len(p.Fields) > 0 {
			fields = strings.Join(p.Fields, ", ")
		}
		where := p.Where
		if where == "" {
			where = "TRUE"
		}
		return statement{
			sql: fmt.Sprintf("SELECT %s FROM %s WHERE %s", fields, table, where),
		}, nil

	case plan.OpInsert:
		if len(p.Values) == 0 {
			return statement{}, fmt.Errorf("insert plan for %s has no values", p.Table)
		}
		cols := sortedKeys(p.Values)
		placeholders := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, col := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = p.Values[col]
		}
		return statement{
			sql: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
				table, strings.Join(cols, ", "), strings.Join(placeholders, ", ")),
			args: args,
		}, nil

	case plan.OpUpdate:
		if len(p.Values) == 0 {
			return statement{}, fmt.Errorf("update plan for %s has no values", p.Table)
		}
		if p.Where == "" {
			return statement{}, fmt.Errorf("update plan for %s has no where predicate", p.Table)
		}
		cols := sortedKeys(p.Values)
		sets := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, col := range cols {
			sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
			args[i] = p.Values[col]
		}
		return statement{
			sql: fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING *",
				table, strings.Join(sets, ", "), p.Where),
			args: args,
		}, nil

	case plan.OpDelete:
		if p.Where == "" {
			return statement{}, fmt.Errorf("delete plan for %s has no where predicate", p.Table)
		}
		return statement{
			sql: fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING *", table, p.Where),
		}, nil

	default:
		return statement{}, fmt.Errorf("%w: %q", ErrUnsupportedOperation, p.Operation)
	}
}

// quoteIdent wraps a name in identifier quotes, doubling any embedded
// quote characters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sortedKeys returns the map's keys in sorted order so compiled statements
// are deterministic regardless of map iteration order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
