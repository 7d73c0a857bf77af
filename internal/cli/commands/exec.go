package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/promptdb/promptdb/pkg/plan"
	"github.com/spf13/cobra"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	JSON    string
	ShowSQL bool
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Execute a query plan from JSON",
		Long: `Exec reads a query plan as JSON from a file, stdin, or the --json flag,
validates it, and executes it as a single parameterized statement. This is
the replay half of 'promptdb plan': plans can be audited before they run.`,
		Example: `  promptdb exec plan.json
  promptdb plan "delete stale sessions" | promptdb exec
  promptdb exec --json '{"operation":"select","table":"users"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.JSON, "json", "", "Plan as an inline JSON string")
	cmd.Flags().BoolVar(&opts.ShowSQL, "sql", false, "Print the executed SQL before the rows")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	raw, err := readPlanInput(args, opts.JSON, os.Stdin)
	if err != nil {
		return err
	}

	p, err := plan.Decode(raw)
	if err != nil {
		return err
	}
	if !p.Validate() {
		return fmt.Errorf("plan is missing operation or table")
	}

	ctx := cmd.Context()
	ag, err := newAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ag.Close() }()

	// Resolve stored-case table names before compiling.
	if _, err := ag.Introspect(ctx); err != nil {
		return err
	}

	res, err := ag.Execute(ctx, p)
	if err != nil {
		return err
	}

	return renderAskResult(cmd.OutOrStdout(), res, ConfigFrom(ctx).Format, opts.ShowSQL)
}

// readPlanInput resolves the plan JSON from, in order: the --json flag, a
// file argument ("-" for stdin), or piped stdin.
func readPlanInput(args []string, inline string, stdin *os.File) (map[string]any, error) {
	var data []byte

	switch {
	case inline != "":
		data = []byte(inline)
	case len(args) > 0 && args[0] != "-":
		content, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read plan file: %w", err)
		}
		data = content
	case len(args) > 0 || !isTerminal(stdin):
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = content
	default:
		return nil, fmt.Errorf("no plan given (pass a file, pipe JSON, or use --json)")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return raw, nil
}
