package splitindex

import (
	"context"
	"fmt"

	"github.com/canonica-labs/dagplan/internal/adapters"
	"github.com/canonica-labs/dagplan/internal/capabilities"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/canonica-labs/dagplan/internal/planner"
	"github.com/canonica-labs/dagplan/internal/sql"
)

// EngineStatsProvider adapts any existing internal/adapters.EngineAdapter
// (duckdb, trino, snowflake, bigquery, redshift, spark) into a
// StatsProvider by issuing a COUNT(*) against the adapter's engine and
// deriving a split size from the row count and a target rows-per-split
// ratio. It does not modify the wrapped adapter: it only ever calls the
// same Execute(ctx, *planner.ExecutionPlan) method every query path
// already uses, with a synthetic single-table logical plan.
type EngineStatsProvider struct {
	engine         adapters.EngineAdapter
	rowsPerSplit   int64
	fallbackSize   int
}

// NewEngineStatsProvider wraps engine. rowsPerSplit is the target row
// count per split (a COST_BASED index divides estimated row count by
// this to produce a split size); fallbackSize is returned when the row
// count cannot be determined (e.g. COUNT(*) returns zero rows, meaning
// the table is empty or not yet materialized).
func NewEngineStatsProvider(engine adapters.EngineAdapter, rowsPerSplit int64, fallbackSize int) *EngineStatsProvider {
	if rowsPerSplit <= 0 {
		rowsPerSplit = 1
	}
	return &EngineStatsProvider{engine: engine, rowsPerSplit: rowsPerSplit, fallbackSize: fallbackSize}
}

// Name implements StatsProvider.
func (p *EngineStatsProvider) Name() string { return p.engine.Name() }

// EstimateRows implements StatsProvider and joinadvisor.RowCountEstimator.
func (p *EngineStatsProvider) EstimateRows(ctx context.Context, schema, table string) (int64, error) {
	plan := countPlan(schema, table)
	result, err := p.engine.Execute(ctx, plan)
	if err != nil {
		return 0, fmt.Errorf("engine stats provider %s: %w", p.engine.Name(), err)
	}
	if result == nil || result.RowCount == 0 || len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	return toInt64(result.Rows[0][0]), nil
}

// EstimateSplitSize implements StatsProvider.
func (p *EngineStatsProvider) EstimateSplitSize(ctx context.Context, schema, table string, columns []planir.ColumnID) (int, error) {
	rows, err := p.EstimateRows(ctx, schema, table)
	if err != nil {
		return 0, err
	}
	if rows <= 0 {
		return p.fallbackSize, nil
	}
	size := rows / p.rowsPerSplit
	if size < 1 {
		size = 1
	}
	return int(size), nil
}

func countPlan(schema, table string) *planner.ExecutionPlan {
	qualified := table
	if schema != "" {
		qualified = schema + "." + table
	}
	return &planner.ExecutionPlan{
		LogicalPlan: &sql.LogicalPlan{
			RawSQL:    fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified),
			Operation: capabilities.OperationSelect,
			Tables:    []string{qualified},
		},
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
