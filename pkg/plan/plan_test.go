package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		expected  *Plan
		expectErr bool
	}{
		{
			name: "full select plan",
			input: map[string]any{
				"operation": "select",
				"table":     "Users",
				"fields":    []any{"id", "name"},
				"where":     "id = 1",
			},
			expected: &Plan{
				Operation: OpSelect,
				Table:     "Users",
				Fields:    []string{"id", "name"},
				Where:     "id = 1",
			},
		},
		{
			name: "insert plan with mixed value types",
			input: map[string]any{
				"operation": "insert",
				"table":     "orders",
				"values":    map[string]any{"qty": float64(3), "sku": "A-1"},
			},
			expected: &Plan{
				Operation: OpInsert,
				Table:     "orders",
				Values:    map[string]any{"qty": float64(3), "sku": "A-1"},
			},
		},
		{
			name: "unknown keys are ignored",
			input: map[string]any{
				"operation":  "delete",
				"table":      "t",
				"where":      "id = 2",
				"confidence": 0.9,
			},
			expected: &Plan{
				Operation: OpDelete,
				Table:     "t",
				Where:     "id = 2",
			},
		},
		{
			name:      "non-object input",
			input:     "select * from users",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		plan     *Plan
		expected bool
	}{
		{
			name:     "operation and table present",
			plan:     &Plan{Operation: OpSelect, Table: "users"},
			expected: true,
		},
		{
			name:     "unknown operation still passes shallow validation",
			plan:     &Plan{Operation: "truncate", Table: "users"},
			expected: true,
		},
		{
			name:     "missing operation",
			plan:     &Plan{Table: "users", Where: "id = 1", Values: map[string]any{"a": 1}},
			expected: false,
		},
		{
			name:     "missing table",
			plan:     &Plan{Operation: OpUpdate, Where: "id = 1", Values: map[string]any{"a": 1}},
			expected: false,
		},
		{
			name:     "nil plan",
			plan:     nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.plan.Validate())
		})
	}
}
