package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/spf13/cobra"
)

// agentREPL is the subset of the agent the dot-commands need.
type agentREPL interface {
	Introspect(ctx context.Context) (agent.Schema, error)
}

func runAskREPL(cmd *cobra.Command, opts *AskOptions) error {
	ctx := cmd.Context()
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

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "promptdb> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive mode: %w", err)
	}
	defer func() { _ = rl.Close() }()

	format := cfg.Format

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "promptdb interactive mode (database: %s)\n", ag.DatabaseName())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type a question, or .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			quit, newFormat := handleDotCommand(cmd, ag, line, format)
			format = newFormat
			if quit {
				break
			}
			continue
		}

		res, err := askOnce(ctx, ag, gen, line)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := renderAskResult(cmd.OutOrStdout(), res, format, opts.ShowSQL); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand processes REPL dot-commands. Returns whether to quit
// and the (possibly updated) output format.
func handleDotCommand(cmd *cobra.Command, ag agentREPL, line, format string) (bool, string) {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true, format

	case ".help":
		printREPLHelp(w)

	case ".tables":
		schema, err := ag.Introspect(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			break
		}
		for _, name := range sortedTableNames(schema) {
			_, _ = fmt.Fprintln(w, name)
		}

	case ".schema":
		schema, err := ag.Introspect(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			break
		}
		var filter string
		if len(parts) > 1 {
			filter = parts[1]
		}
		cols, rows := schemaRows(schema, filter)
		if err := renderRows(w, cols, rows, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(w, "Current format: %s\n", format)
			break
		}
		switch parts[1] {
		case "table", "json", "csv", "md":
			format = parts[1]
		default:
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown format: %s (table|json|csv|md)\n", parts[1])
		}

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (try .help)\n", parts[0])
	}

	return false, format
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  .tables          List tables in the database")
	_, _ = fmt.Fprintln(w, "  .schema [table]  Show columns, optionally for one table")
	_, _ = fmt.Fprintln(w, "  .format <fmt>    Set output format (table|json|csv|md)")
	_, _ = fmt.Fprintln(w, "  .quit            Exit")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Anything else is sent to the model as a question.")
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptdb_history"
	}
	return filepath.Join(home, ".promptdb_history")
}

func sortedTableNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
