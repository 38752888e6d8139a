// Package compiler is the root dispatcher: it takes a plan IR Table and
// an Env and returns the Operator tree the execution layer submits,
// routing to internal/joincompiler for Joined tables and
// internal/aggcompiler for Aggregated ones.
package compiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/aggcompiler"
	"github.com/canonica-labs/dagplan/internal/config"
	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/joincompiler"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

// Compile dispatches root to the join or aggregation compiler and
// validates the resulting operator tree before returning it. A Base root
// is rejected: there is nothing to compile for a table that is already a
// physical scan.
func Compile(ctx context.Context, env *joincompiler.Env, root *planir.Table) (*planir.Operator, error) {
	if root == nil {
		return nil, errors.NewInvalidPlan("", "", "compile requires a root table")
	}
	var (
		op  *planir.Operator
		err error
	)
	switch {
	case root.IsJoined():
		op, err = joincompiler.CompileJoin(ctx, env, root, nil)
	case root.IsAggregated():
		op, err = aggcompiler.CompileAggregation(ctx, env, root)
	default:
		return nil, errors.NewInvalidPlan(root.Schema, root.Name, "compile root must be a joined or aggregated table")
	}
	if err != nil {
		return nil, err
	}
	if !op.IsBroadcastChainComplete() {
		return nil, errors.NewInvalidPlan(root.Schema, root.Name, "root operator carries an incomplete chain-join")
	}
	return op, nil
}

// NewEnv assembles a joincompiler.Env from the compiler configuration and
// the already-constructed collaborators a bootstrap wires up: the
// metadata service, storage registry, split index factory, per-table
// stats lookup, and join advisor. inputStorage/intermediateStorage carry
// whatever endpoint/region/credentials the matching objstorage backend
// needs; only their Scheme is read from configuration.
func NewEnv(
	cfg config.CompilerConfig,
	meta *metadata.Service,
	storage *objstorage.Registry,
	index *splitindex.Factory,
	stats joincompiler.StatsLookup,
	advisor joinadvisor.Advisor,
	inputStorage, intermediateStorage planir.StorageInfo,
	queryID string,
) *joincompiler.Env {
	return &joincompiler.Env{
		Meta:                     meta,
		Storage:                  storage,
		Index:                    index,
		Stats:                    stats,
		Advisor:                  advisor,
		SplitOpts:                splitOptionsFromConfig(cfg),
		IntraWorkerParallelism:   cfg.Executor.IntraWorkerParallelism,
		PreAggrThreshold:         cfg.Aggregation.PreAggregateThreshold,
		ComputeFinalAggrInServer: cfg.Aggregation.ComputeFinalAggrInServer,
		InputStorage:             inputStorage,
		IntermediateStorage:      intermediateStorage,
		IntermediateFolder:       cfg.Executor.IntermediateFolder,
		QueryID:                  queryID,
	}
}

// splitOptionsFromConfig translates the compiler configuration's split-
// sizing keys into splitindex.Options.
func splitOptionsFromConfig(cfg config.CompilerConfig) splitindex.Options {
	indexType := splitindex.IndexCostBased
	if cfg.SplitsIndexType == "INVERTED" {
		indexType = splitindex.IndexInverted
	}
	return splitindex.Options{
		FixedSplitSize:        cfg.FixedSplitSize,
		IndexType:             indexType,
		ProjectionReadEnabled: cfg.ProjectionReadEnabled,
	}
}
