// Package planir defines the plan intermediate representation compiled by
// internal/joincompiler and internal/aggcompiler: the Table/Join/
// Aggregation tree, the worker-input descriptor leaves of the execution
// DAG, and the Operator tree that drives submission order.
//
// All types here are plain data. Identity is structural, not pointer-based,
// except where the lifecycle explicitly calls for a mutable reference (the
// two documented mutations in Join and Operator: completing an incomplete
// chain-join, and attaching post-partitioning to a child's output).
package planir

import (
	"github.com/canonica-labs/dagplan/internal/errors"
)

// ColumnID identifies a column by position within a table's column list.
type ColumnID int

// TableKind tags which variant a Table holds.
type TableKind int

const (
	TableBase TableKind = iota
	TableJoined
	TableAggregated
)

func (k TableKind) String() string {
	switch k {
	case TableBase:
		return "BASE"
	case TableJoined:
		return "JOINED"
	case TableAggregated:
		return "AGGREGATED"
	default:
		return "UNKNOWN"
	}
}

// Table is the tagged Base/Joined/Aggregated variant of the plan IR.
// Only the fields relevant to Kind are populated; the others are zero.
type Table struct {
	Kind    TableKind
	Schema  string
	Name    string
	Columns []string

	// Base only.
	ScanFilter *Predicate

	// Joined only.
	Join *Join

	// Aggregated only.
	Aggregation *Aggregation
}

// FullName returns the schema-qualified table name.
func (t *Table) FullName() string {
	return t.Schema + "." + t.Name
}

// NewBaseTable constructs a Base table, validating that it carries no
// Join/Aggregation payload.
func NewBaseTable(schema, name string, columns []string, filter *Predicate) (*Table, error) {
	if schema == "" || name == "" {
		return nil, errors.NewInvalidPlan(schema, name, "base table requires schema and name")
	}
	return &Table{
		Kind:       TableBase,
		Schema:     schema,
		Name:       name,
		Columns:    columns,
		ScanFilter: filter,
	}, nil
}

// NewJoinedTable constructs a Joined table from a validated Join node.
func NewJoinedTable(schema, name string, columns []string, join *Join) (*Table, error) {
	if join == nil {
		return nil, errors.NewInvalidPlan(schema, name, "joined table requires a join node")
	}
	if err := ValidateJoin(join); err != nil {
		return nil, err
	}
	return &Table{
		Kind:    TableJoined,
		Schema:  schema,
		Name:    name,
		Columns: columns,
		Join:    join,
	}, nil
}

// NewAggregatedTable constructs an Aggregated table from a validated
// Aggregation node.
func NewAggregatedTable(schema, name string, columns []string, agg *Aggregation) (*Table, error) {
	if agg == nil {
		return nil, errors.NewInvalidPlan(schema, name, "aggregated table requires an aggregation node")
	}
	if agg.Origin == nil {
		return nil, errors.NewInvalidPlan(schema, name, "aggregation origin table is required")
	}
	return &Table{
		Kind:        TableAggregated,
		Schema:      schema,
		Name:        name,
		Columns:     columns,
		Aggregation: agg,
	}, nil
}

// IsBase reports whether the table is a Base table.
func (t *Table) IsBase() bool { return t.Kind == TableBase }

// IsJoined reports whether the table is a Joined table.
func (t *Table) IsJoined() bool { return t.Kind == TableJoined }

// IsAggregated reports whether the table is an Aggregated table.
func (t *Table) IsAggregated() bool { return t.Kind == TableAggregated }
