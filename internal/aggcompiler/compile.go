// Package aggcompiler implements the aggregation compiler (§4.5): it
// compiles an Aggregated table's Base or Joined origin into partial-
// aggregation producers, optionally groups those into a pre-aggregation
// stage, and always emits one final AggregationInput.
package aggcompiler

import (
	"context"
	"fmt"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/joincompiler"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// CompileAggregation implements §4.5's entry point.
func CompileAggregation(ctx context.Context, env *joincompiler.Env, table *planir.Table) (*planir.Operator, error) {
	if table == nil || !table.IsAggregated() {
		return nil, errors.NewInvalidPlan("", "", "compileAggregation requires an aggregated table")
	}
	agg := table.Aggregation
	info := planir.NewPartialAggregationInfo(agg)

	var scanInputs []planir.ScanInput
	var childOp *planir.Operator
	var producerPaths []string

	switch {
	case agg.Origin.IsBase():
		var err error
		scanInputs, producerPaths, err = compileBaseProducers(ctx, env, table, agg, info)
		if err != nil {
			return nil, err
		}
	case agg.Origin.IsJoined():
		var err error
		childOp, err = joincompiler.CompileJoin(ctx, env, agg.Origin, nil)
		if err != nil {
			return nil, err
		}
		producerPaths = mutateJoinOutputsForAggregation(childOp, info, func(i int) string {
			return env.IntermediatePath(table.Schema, table.Name, fmt.Sprintf("partial_aggr_%d", i))
		})
	default:
		return nil, errors.NewInvalidPlan(table.Schema, table.Name, "aggregation origin must be a base or joined table")
	}

	numProducers := len(producerPaths)
	preAggregate := env.PreAggrThreshold > 0 && numProducers > env.PreAggrThreshold

	// §4.5 step 6: producer output storage.
	producerStorage := env.IntermediateStorage
	if env.ComputeFinalAggrInServer && !preAggregate {
		producerStorage = agg.OutputEndPoint
		rewriteProducerStorage(scanInputs, childOp, producerStorage)
	}

	var preAggrInputs []planir.AggregationInput
	inputFiles := producerPaths
	inputStorage := producerStorage
	if preAggregate {
		preAggrInputs = buildPreAggregation(env, table, agg, producerPaths, producerStorage)
		inputFiles = make([]string, len(preAggrInputs))
		for i, in := range preAggrInputs {
			inputFiles[i] = in.Output.Path
		}
		inputStorage = env.IntermediateStorage
	}

	finalPath := agg.OutputPath
	if finalPath == "" {
		finalPath = "final_aggr"
	} else {
		finalPath = planir.FilePath(finalPath, "final_aggr")
	}

	final := &planir.AggregationInput{
		InputFiles:          inputFiles,
		InputStorage:        inputStorage,
		GroupKeyColumnIDs:   agg.GroupKeyColumnIDs,
		GroupKeyColumnAlias: agg.GroupKeyColumnAlias,
		ResultColumnAlias:   agg.ResultColumnAlias,
		ResultColumnTypes:   agg.ResultColumnTypes,
		FunctionTypes:       agg.FunctionTypes,
		Parallelism:         env.IntraWorkerParallelism,
		Output:              planir.OutputInfo{Storage: agg.OutputEndPoint, Path: finalPath},
	}

	op := &planir.Operator{
		Name:          table.FullName(),
		Kind:          planir.OperatorAggregation,
		ScanInputs:    scanInputs,
		PreAggrInputs: preAggrInputs,
		FinalInput:    final,
	}
	// The aggregation operator has at most one child pipeline (the Base
	// scan producers carry no separate operator; the Joined case does);
	// SmallChild is reused as that single submission-ordering slot.
	if childOp != nil {
		op.SmallChild = childOp
	}
	return op, nil
}

// compileBaseProducers implements §4.5 step 2's Base-origin case.
func compileBaseProducers(ctx context.Context, env *joincompiler.Env, table *planir.Table, agg *planir.Aggregation, info *planir.PartialAggregationInfo) ([]planir.ScanInput, []string, error) {
	columns := uniqueColumns(agg.GroupKeyColumnIDs, agg.AggregateColumnIDs)
	splits, err := env.BuildInputSplits(ctx, agg.Origin, columns, env.InputStorage)
	if err != nil {
		return nil, nil, err
	}

	batches := batchSplits(splits, env.IntraWorkerParallelism)
	scanInputs := make([]planir.ScanInput, 0, len(batches))
	paths := make([]string, 0, len(batches))
	for i, batch := range batches {
		path := env.IntermediatePath(table.Schema, table.Name, fmt.Sprintf("%d/partial_aggr", i))
		scanInputs = append(scanInputs, planir.ScanInput{
			Splits:             batch,
			ColumnsToRead:      columns,
			Filter:             agg.Origin.ScanFilter,
			PartialAggregation: info,
			Output:             planir.OutputInfo{Storage: env.IntermediateStorage, Path: path},
		})
		paths = append(paths, path)
	}
	return scanInputs, paths, nil
}

// buildPreAggregation implements §4.5 step 4.
func buildPreAggregation(env *joincompiler.Env, table *planir.Table, agg *planir.Aggregation, files []string, storage planir.StorageInfo) []planir.AggregationInput {
	var out []planir.AggregationInput
	for i := 0; i < len(files); i += env.PreAggrThreshold {
		end := i + env.PreAggrThreshold
		if end > len(files) {
			end = len(files)
		}
		path := env.IntermediatePath(table.Schema, table.Name, fmt.Sprintf("%d/pre_aggr", len(out)))
		out = append(out, planir.AggregationInput{
			InputFiles:          files[i:end],
			InputStorage:        storage,
			GroupKeyColumnIDs:   agg.GroupKeyColumnIDs,
			GroupKeyColumnAlias: agg.GroupKeyColumnAlias,
			ResultColumnTypes:   agg.ResultColumnTypes,
			FunctionTypes:       agg.FunctionTypes,
			Parallelism:         env.IntraWorkerParallelism,
			Output:              planir.OutputInfo{Storage: env.IntermediateStorage, Path: path},
		})
	}
	return out
}

func uniqueColumns(groups ...[]planir.ColumnID) []planir.ColumnID {
	seen := make(map[planir.ColumnID]bool)
	var out []planir.ColumnID
	for _, g := range groups {
		for _, c := range g {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func batchSplits(splits []planir.InputSplit, size int) [][]planir.InputSplit {
	if size <= 0 || size >= len(splits) {
		if len(splits) == 0 {
			return nil
		}
		return [][]planir.InputSplit{splits}
	}
	var batches [][]planir.InputSplit
	for i := 0; i < len(splits); i += size {
		end := i + size
		if end > len(splits) {
			end = len(splits)
		}
		batches = append(batches, splits[i:end])
	}
	return batches
}
