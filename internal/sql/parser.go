// Package sql provides SQL-text parsing for the plan compiler: turning a
// scan filter expression or a schema-qualified table reference into plan
// IR, using dolthub/vitess's enhanced sqlparser fork.
package sql

import (
	"strings"

	"github.com/canonica-labs/dagplan/internal/capabilities"
	"github.com/canonica-labs/dagplan/internal/errors"
)

// LogicalPlan is the minimal per-query shape the split-index engine stats
// provider and the planner package's routing logic need: the request's
// SQL text, its operation, and the tables it touches. The compiler itself
// never holds one of these — it works from plan IR tables, not SQL text —
// this exists for the engine-adapter-backed stats path that still issues
// real SQL.
type LogicalPlan struct {
	RawSQL    string
	Operation capabilities.OperationType
	Tables    []string
}

// ValidateTableName validates that a table name is schema-qualified:
// <schema>.<table>. The plan compiler rejects any table reference that
// omits the schema rather than guessing one.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.NewInvalidTableDefinition("name", "table name cannot be empty")
	}

	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return errors.NewInvalidTableDefinition("name",
			"fully-qualified name required: <schema>.<table>. Got: '"+name+"'")
	}

	schema := parts[0]
	table := parts[1]

	if schema == "" {
		return errors.NewInvalidTableDefinition("name",
			"schema cannot be empty. Required format: <schema>.<table>")
	}
	if table == "" {
		return errors.NewInvalidTableDefinition("name",
			"table cannot be empty. Required format: <schema>.<table>")
	}

	return nil
}

// IsQualifiedTableName checks if a table name is fully qualified (schema.table).
func IsQualifiedTableName(name string) bool {
	return ValidateTableName(name) == nil
}
