package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/promptdb/promptdb/pkg/llm"
	"github.com/promptdb/promptdb/pkg/plan"
	"github.com/spf13/cobra"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	ShowSQL bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Translate a natural-language prompt into SQL and run it",
		Long: `Ask translates a natural-language prompt into a query plan using the
configured language model, compiles the plan into one parameterized SQL
statement, executes it, and prints the rows.

When invoked without arguments on a terminal, enters interactive mode.`,
		Example: `  # One-shot question
  promptdb ask "how many orders were placed last month"

  # Show the SQL that was executed
  promptdb ask --sql "delete the user with id 4"

  # Pipe a prompt
  echo "list all customers in Berlin" | promptdb ask

  # Interactive mode
  promptdb ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowSQL, "sql", false, "Print the executed SQL before the rows")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	var prompt string

	switch {
	case len(args) > 0:
		prompt = strings.Join(args, " ")
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(content))
	default:
		return runAskREPL(cmd, opts)
	}

	if prompt == "" {
		return fmt.Errorf("empty prompt")
	}

	ctx := cmd.Context()
	ag, err := newAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ag.Close() }()

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}

	res, err := askOnce(ctx, ag, gen, prompt)
	if err != nil {
		return err
	}

	return renderAskResult(cmd.OutOrStdout(), res, ConfigFrom(ctx).Format, opts.ShowSQL)
}

// askOnce runs the full pipeline for one prompt: fresh introspection, plan
// generation, shallow validation, execution.
func askOnce(ctx context.Context, ag *agent.Agent, gen llm.Generator, prompt string) (*agent.Result, error) {
	cfg := ConfigFrom(ctx)

	raw, err := ag.GeneratePlan(ctx, gen, prompt, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	p, err := plan.Decode(raw)
	if err != nil {
		return nil, err
	}
	if !p.Validate() {
		return nil, fmt.Errorf("model returned an incomplete plan (operation=%q table=%q)", p.Operation, p.Table)
	}

	return ag.Execute(ctx, p)
}

func renderAskResult(w io.Writer, res *agent.Result, format string, showSQL bool) error {
	if showSQL {
		_, _ = fmt.Fprintf(w, "-- %s\n", res.RawQuery)
	}
	return renderRows(w, res.Columns, res.Rows, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
