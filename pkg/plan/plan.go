// Package plan defines the structured query plan produced by the language
// model and consumed by the agent's SQL compiler.
package plan

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Operation identifies the kind of SQL statement a plan describes.
type Operation string

// The four supported operation kinds. Any other tag is rejected by the
// compiler, not here.
const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Plan describes a single database operation: what to do, against which
// table, and the operation-specific field, predicate, and value data.
// A plan is built once per request by the plan generator, consumed once,
// and discarded.
type Plan struct {
	Operation Operation      `json:"operation" mapstructure:"operation"`
	Table     string         `json:"table" mapstructure:"table"`
	Fields    []string       `json:"fields,omitempty" mapstructure:"fields"`
	Where     string         `json:"where,omitempty" mapstructure:"where"`
	Values    map[string]any `json:"values,omitempty" mapstructure:"values"`
}

// Decode converts an arbitrary decoded value (typically the JSON object
// returned by the plan generator) into a typed Plan. Unknown keys are
// ignored; scalar types are coerced weakly since model output is loosely
// typed.
func Decode(v any) (*Plan, error) {
	var p Plan
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build plan decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &p, nil
}

// Validate reports whether the plan has the minimum required shape: a
// non-empty operation and table. It deliberately does not check that the
// operation is one of the supported kinds, or that per-operation fields
// like values and where are present; the compiler is the enforcement
// point for those.
func (p *Plan) Validate() bool {
	if p == nil {
		return false
	}
	return p.Operation != "" && p.Table != ""
}
