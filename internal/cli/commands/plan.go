package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <prompt>",
		Short: "Generate a query plan without executing it",
		Long: `Plan introspects the schema, asks the language model for a query plan
describing the prompt, and prints the plan as JSON. Nothing is executed;
the output can be reviewed and replayed with 'promptdb exec'.`,
		Example: `  promptdb plan "archive orders older than a year"
  promptdb plan "list overdue invoices" > plan.json
  promptdb exec plan.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			ag, err := newAgent(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = ag.Close() }()

			gen, err := newGenerator(ctx)
			if err != nil {
				return err
			}

			raw, err := ag.GeneratePlan(ctx, gen, prompt, ConfigFrom(ctx).Model)
			if err != nil {
				return fmt.Errorf("plan generation failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(raw)
		},
	}
}
