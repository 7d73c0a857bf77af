package agent

import (
	"context"

	"github.com/promptdb/promptdb/pkg/llm"
)

// GeneratePlan asks the generator for a query plan describing the prompt.
// The schema is re-introspected fresh on every call; nothing is cached
// between plan generation and a later Execute, so the schema can drift if
// the caller delays between the two. The generator's plan is returned
// unmodified; typing and validation happen at the plan.Decode boundary.
func (a *Agent) GeneratePlan(ctx context.Context, gen llm.Generator, prompt, model string) (map[string]any, error) {
	schema, err := a.Introspect(ctx)
	if err != nil {
		return nil, err
	}

	return gen.GeneratePlan(ctx, llm.Request{
		Prompt: prompt,
		Model:  model,
		Schema: schema,
	})
}
