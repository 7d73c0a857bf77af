// Package llm turns natural-language prompts into structured query plans
// using a hosted language model. Two providers are supported, each with
// its own credential looked up from the environment.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Provider selects which hosted model family serves plan generation.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// credentialVars maps each provider to its environment credential.
var credentialVars = map[Provider]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Credential returns the provider's API key from the environment.
func Credential(p Provider) (string, error) {
	envVar, ok := credentialVars[p]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", p)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set", envVar)
	}
	return key, nil
}

// Request carries everything the generator needs to produce one plan.
// Schema is the introspected database schema; it is serialized into the
// prompt as JSON.
type Request struct {
	Prompt string
	Model  string
	Schema any
}

// Generator produces a query plan from a prompt and database schema. The
// returned value is the model's raw JSON object; callers type it through
// plan.Decode.
type Generator interface {
	GeneratePlan(ctx context.Context, req Request) (map[string]any, error)
}

// New returns a Generator for the provider, resolving its credential from
// the environment. If logger is nil, a discard logger is used.
func New(p Provider, logger *slog.Logger) (Generator, error) {
	key, err := Credential(p)
	if err != nil {
		return nil, err
	}

	switch p {
	case ProviderOpenAI:
		return NewOpenAI(key, logger), nil
	case ProviderAnthropic:
		return NewAnthropic(key, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
}
