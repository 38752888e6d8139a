// Package splitindex implements §4.2's split-sizing algorithm and the
// index factory external interface (§6): lookup/cache/rebuild of Inverted
// and CostBased split indices and Inverted projection indices. The
// concurrency contract (§5 EXPANDED) is lock-free reads of an
// atomically-stored snapshot, with rebuilds serialized per (schema,table)
// key so only one goroutine rebuilds a missing index while other lookups
// for that key wait for it. Invalidate clears the snapshot, so it is not
// served while the rebuild runs.
package splitindex

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// IndexType selects how a split index computes its size (§4.2 step 1.b).
type IndexType int

const (
	IndexInverted IndexType = iota
	IndexCostBased
)

// Index is a cached split-size decision for one (schema, table). Inverted
// indices match exact column-set patterns with a default fallback;
// CostBased indices derive a size from engine statistics. Both results are
// bounded above by MaxSplitSize.
type Index struct {
	Type         IndexType
	Version      int64
	MaxSplitSize int

	patterns    map[string]int
	defaultSize int
	statsSize   int
}

// SplitSize returns the split size for the given set of columns actually
// read, bounded by MaxSplitSize.
func (idx *Index) SplitSize(columns []planir.ColumnID) int {
	var size int
	switch idx.Type {
	case IndexInverted:
		key := columnSetKey(columns)
		if n, ok := idx.patterns[key]; ok {
			size = n
		} else {
			size = idx.defaultSize
		}
	default: // IndexCostBased
		size = idx.statsSize
	}
	if size > idx.MaxSplitSize {
		size = idx.MaxSplitSize
	}
	if size < 1 {
		size = 1
	}
	return size
}

func columnSetKey(columns []planir.ColumnID) string {
	seen := make(map[planir.ColumnID]bool, len(columns))
	key := ""
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		key += string(rune(c)) + ","
	}
	return key
}

// StatsProvider answers row-count and split-size questions for a table
// backed by a particular query engine, implemented by adapting each of
// internal/adapters/{duckdb,trino,snowflake,bigquery,redshift,spark}. It
// also satisfies internal/joinadvisor.RowCountEstimator by structural
// typing (same EstimateRows signature), so the join advisor can reuse
// whichever StatsProvider owns a table without an explicit dependency
// between the two packages.
type StatsProvider interface {
	Name() string
	EstimateRows(ctx context.Context, schema, table string) (int64, error)
	EstimateSplitSize(ctx context.Context, schema, table string, columns []planir.ColumnID) (int, error)
}
