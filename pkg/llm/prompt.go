package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt instructs the model to answer with nothing but a plan
// object. Field semantics mirror pkg/plan.
const systemPrompt = `You translate natural-language requests into database query plans.
Respond with a single JSON object and nothing else. The object has:
  "operation": one of "select", "insert", "update", "delete"
  "table": the target table name
  "fields": (select only) list of column names to return; omit for all
  "where": SQL predicate text, e.g. "id = 1"; required for update and delete
  "values": (insert, update) object mapping column names to values
Use only tables and columns present in the provided schema.`

// buildPrompt renders the user's request together with the introspected
// schema, serialized as JSON.
func buildPrompt(req Request) (string, error) {
	schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize schema: %w", err)
	}
	return fmt.Sprintf("Database schema:\n%s\n\nRequest: %s", schemaJSON, req.Prompt), nil
}

// extractPlan parses the model's reply into a plan object, tolerating
// markdown code fences and surrounding prose around the JSON.
func extractPlan(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	// Fall back to the outermost braces when the model wrapped the object
	// in prose despite instructions.
	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("model response contains no JSON object: %q", content)
		}
		s = s[start : end+1]
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return m, nil
}
