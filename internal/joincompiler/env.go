// Package joincompiler implements the single- and multi-pipeline join
// compiler (§4.3, §4.4): it rewrites a Joined table into an Operator tree
// of BroadcastJoinInput/BroadcastChainJoinInput/PartitionedJoinInput/
// PartitionedChainJoinInput worker-input descriptors, recursing left-deep
// over each side's own join subtree.
package joincompiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

// StatsLookup resolves the StatsProvider that owns a given table, used by
// the split index factory on a cache miss.
type StatsLookup func(schema, table string) splitindex.StatsProvider

// Env bundles every external collaborator the join compiler consults:
// the metadata service and storage abstraction it reaches through §4.2's
// split-sizing algorithm, the index factory that algorithm caches into,
// and the join advisor it asks for partition counts and table selectivity.
type Env struct {
	Meta    *metadata.Service
	Storage *objstorage.Registry
	Index   *splitindex.Factory
	Stats   StatsLookup
	Advisor joinadvisor.Advisor

	// SplitOpts carries the process-wide split-sizing configuration
	// (fixed.split.size, splits.index.type, projection.read.enabled).
	SplitOpts splitindex.Options

	// IntraWorkerParallelism is the number of InputSplits (or, for
	// broadcast batching, large-side splits) a single worker consumes.
	IntraWorkerParallelism int

	// PreAggrThreshold and ComputeFinalAggrInServer are consumed by
	// internal/aggcompiler, carried here so a single Env threads through
	// both compilers.
	PreAggrThreshold         int
	ComputeFinalAggrInServer bool

	// InputStorage is the scheme/endpoint base tables are scanned from.
	InputStorage planir.StorageInfo

	// IntermediateStorage is where non-final worker outputs land.
	IntermediateStorage planir.StorageInfo
	IntermediateFolder  string

	// QueryID identifies the current compilation for intermediate path
	// construction (invariant 7: <intermediateRoot>/<queryId>/...).
	QueryID string
}

func (e *Env) statsFor(schema, table string) splitindex.StatsProvider {
	if e.Stats == nil {
		return nil
	}
	return e.Stats(schema, table)
}

// buildInputSplits resolves InputSplits for a base table via §4.2,
// selecting its selectivity estimate from the join advisor when one is
// configured.
func (e *Env) buildInputSplits(ctx context.Context, t *planir.Table, columns []planir.ColumnID, info planir.StorageInfo) ([]planir.InputSplit, error) {
	opts := e.SplitOpts
	opts.Selectivity = -1
	if e.Advisor != nil {
		if s, err := e.Advisor.TableSelectivity(ctx, t); err == nil {
			opts.Selectivity = s
		}
	}
	return splitindex.BuildInputSplits(ctx, e.Meta, e.Storage, e.Index, e.statsFor(t.Schema, t.Name), t.Schema, t.Name, info, columns, opts)
}

// baseColumns returns the column ids a Base table's scan must read: its
// join keys plus whatever the join's projection keeps from it.
func baseColumns(keyColumnIDs []planir.ColumnID, projection planir.Bitmask) []planir.ColumnID {
	seen := make(map[planir.ColumnID]bool)
	var out []planir.ColumnID
	add := func(c planir.ColumnID) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range keyColumnIDs {
		add(c)
	}
	for _, c := range projection.Columns() {
		add(c)
	}
	return out
}

// intermediatePath builds this query's intermediate path for one table,
// per invariant 7.
func (e *Env) intermediatePath(schema, table, suffix string) string {
	return planir.JoinPath(e.IntermediateFolder, e.QueryID, schema, table, suffix)
}

// BuildInputSplits exposes buildInputSplits to internal/aggcompiler, which
// needs the same §4.2 base-table split resolution for an Aggregation
// node's Base origin.
func (e *Env) BuildInputSplits(ctx context.Context, t *planir.Table, columns []planir.ColumnID, info planir.StorageInfo) ([]planir.InputSplit, error) {
	return e.buildInputSplits(ctx, t, columns, info)
}

// IntermediatePath exposes intermediatePath to internal/aggcompiler.
func (e *Env) IntermediatePath(schema, table, suffix string) string {
	return e.intermediatePath(schema, table, suffix)
}
