// Package joinadvisor answers the two questions the join compiler needs
// from outside its own tree-rewriting logic: how many hash buckets a
// partitioned join should use, and how selective a table's scan filter is.
//
// Selectivity estimation is generalized from the SQL-predicate-operator
// heuristics in the federation gateway's cost model
// (estimatePredicateSelectivity) to the plan IR's column-id predicate tree;
// numPartitions reuses that same cost model's per-engine row-count
// estimates, falling back to a configured default when a table's
// cardinality is unknown.
package joinadvisor

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// Advisor is the join advisor external interface consumed by the
// compiler (§6): numPartitions and tableSelectivity.
type Advisor interface {
	// NumPartitions returns the hash fan-out to use for a partitioned
	// join between left and right, given which side is small.
	NumPartitions(ctx context.Context, left, right *planir.Table, endian planir.JoinEndian) (int, error)

	// TableSelectivity returns the fraction of rows that pass a table's
	// filters, or a negative value if unknown.
	TableSelectivity(ctx context.Context, table *planir.Table) (float64, error)
}

// RowCountEstimator supplies per-table row-count estimates, typically
// backed by one of internal/splitindex's engine StatsProviders.
type RowCountEstimator interface {
	EstimateRows(ctx context.Context, schema, table string) (int64, error)
}

// CostAdvisor is the concrete Advisor implementation: a row-count
// estimator plus a fixed partition-count fallback.
type CostAdvisor struct {
	rows RowCountEstimator

	// DefaultPartitions is used when the large side's row count is
	// unavailable.
	DefaultPartitions int

	// RowsPerPartition is the target rows handled by one partition
	// worker; NumPartitions scales with the large side's rows (right for
	// SMALL_LEFT, left for LARGE_LEFT) / this.
	RowsPerPartition int64

	// hints is the set of non-binding join hints parsed off the current
	// plan request's SQL text, if any. NumPartitions/TableSelectivity
	// never consult it; it exists purely so a caller can surface what
	// a request asked for alongside what the compiler actually did.
	hints []JoinHint
}

// RecordHints attaches the hints parsed from a plan request's SQL text to
// this advisor, for later observability via HintsFor. It does not change
// NumPartitions or TableSelectivity's behavior.
func (a *CostAdvisor) RecordHints(hints []JoinHint) {
	a.hints = hints
}

// HintsFor returns the recorded hints that name table.
func (a *CostAdvisor) HintsFor(table string) []JoinHint {
	return ForTable(a.hints, table)
}

// NewCostAdvisor constructs a CostAdvisor.
func NewCostAdvisor(rows RowCountEstimator, defaultPartitions int, rowsPerPartition int64) *CostAdvisor {
	if defaultPartitions <= 0 {
		defaultPartitions = 16
	}
	if rowsPerPartition <= 0 {
		rowsPerPartition = 1_000_000
	}
	return &CostAdvisor{rows: rows, DefaultPartitions: defaultPartitions, RowsPerPartition: rowsPerPartition}
}

// NumPartitions implements Advisor.
func (a *CostAdvisor) NumPartitions(ctx context.Context, left, right *planir.Table, endian planir.JoinEndian) (int, error) {
	largeTable := right
	if endian == planir.LargeLeft {
		largeTable = left
	}
	rows, err := a.estimateRows(ctx, largeTable)
	if err != nil || rows <= 0 {
		return a.DefaultPartitions, nil
	}
	n := int((rows + a.RowsPerPartition - 1) / a.RowsPerPartition)
	if n < 1 {
		n = 1
	}
	return n, nil
}

// TableSelectivity implements Advisor, generalizing
// estimatePredicateSelectivity's per-operator heuristics (originally over
// SQL-text comparison operators) to the IR's Predicate tree.
func (a *CostAdvisor) TableSelectivity(ctx context.Context, table *planir.Table) (float64, error) {
	if table == nil || !table.IsBase() || table.ScanFilter == nil {
		return -1, nil
	}
	return estimatePredicateSelectivity(table.ScanFilter), nil
}

func (a *CostAdvisor) estimateRows(ctx context.Context, table *planir.Table) (int64, error) {
	if a.rows == nil || table == nil {
		return -1, nil
	}
	base := leftmostBase(table)
	if base == nil {
		return -1, nil
	}
	return a.rows.EstimateRows(ctx, base.Schema, base.Name)
}

func leftmostBase(t *planir.Table) *planir.Table {
	for t != nil {
		switch {
		case t.IsBase():
			return t
		case t.IsJoined():
			t = t.Join.Left
		case t.IsAggregated():
			t = t.Aggregation.Origin
		default:
			return nil
		}
	}
	return nil
}

// estimatePredicateSelectivity walks the predicate tree combining per-leaf
// selectivity with AND (product) / OR (probabilistic union) / NOT
// (complement), matching the federation cost model's operator-based
// heuristics: equality assumes a moderate hit rate, range comparisons
// default to 0.33, LIKE depends on leading-wildcard vs. prefix match, IN
// is treated like a small equality set, and <> is treated as "almost
// everything passes".
func estimatePredicateSelectivity(p *planir.Predicate) float64 {
	if p == nil {
		return 1.0
	}
	switch p.Op {
	case planir.PredicateCompare:
		return compareSelectivity(p)
	case planir.PredicateNot:
		if len(p.Children) != 1 {
			return 1.0
		}
		return 1.0 - estimatePredicateSelectivity(p.Children[0])
	case planir.PredicateAnd:
		s := 1.0
		for _, c := range p.Children {
			s *= estimatePredicateSelectivity(c)
		}
		return s
	case planir.PredicateOr:
		s := 0.0
		for _, c := range p.Children {
			cs := estimatePredicateSelectivity(c)
			s = s + cs - s*cs
		}
		return s
	default:
		return 1.0
	}
}

func compareSelectivity(p *planir.Predicate) float64 {
	switch p.CompareOp {
	case "=":
		return 0.1
	case "<", "<=", ">", ">=":
		return 0.33
	case "LIKE":
		if len(p.Literal) > 0 && p.Literal[0] == '%' {
			return 0.5
		}
		return 0.1
	case "IN":
		if n := len(p.LiteralSet); n > 0 {
			return 0.1 * float64(n)
		}
		return 0.2
	case "<>":
		return 0.9
	default:
		return 1.0
	}
}
