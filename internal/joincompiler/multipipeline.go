package joincompiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// compileMultiPipeline implements §4.4: both children of joined are
// themselves Joined tables, requiring joinEndian = SMALL_LEFT (checked by
// the caller).
func compileMultiPipeline(ctx context.Context, env *Env, joined, parent *planir.Table) (*planir.Operator, error) {
	j := joined.Join
	switch j.JoinAlgo {
	case planir.JoinBroadcast:
		return compileMultiBroadcast(ctx, env, joined, parent)
	case planir.JoinPartitioned:
		return compileMultiPartitioned(ctx, env, joined, parent)
	default:
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "multi-pipeline join must be BROADCAST or PARTITIONED")
	}
}

func compileMultiBroadcast(ctx context.Context, env *Env, joined, parent *planir.Table) (*planir.Operator, error) {
	j := joined.Join

	leftOp, err := CompileJoin(ctx, env, j.Left, joined)
	if err != nil {
		return nil, err
	}
	if leftOp.Algorithm != planir.JoinBroadcastChain || len(leftOp.ChainInputs) != 1 || !leftOp.ChainInputs[0].Incomplete() {
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "left pipeline of a multi-pipeline SMALL_LEFT broadcast must yield an incomplete BROADCAST_CHAIN")
	}

	rightOp, err := CompileJoin(ctx, env, j.Right, nil)
	if err != nil {
		return nil, err
	}

	switch rightOp.Algorithm {
	case planir.JoinBroadcast, planir.JoinBroadcastChain:
		rightSplits := childOutputSplits(rightOp)
		rightInfo := planir.BroadcastTableInfo{
			Splits:        rightSplits,
			ColumnsToRead: j.RightProjection.Columns(),
			KeyColumnIDs:  j.RightKeyColumnIDs,
		}
		completed, err := completeChain(ctx, env, joined, parent, leftOp, rightInfo, rightSplits)
		if err != nil {
			return nil, err
		}
		completed.LargeChild = rightOp
		return completed, nil

	case planir.JoinPartitioned:
		return promoteToPartitionedChain(ctx, env, joined, parent, leftOp, rightOp)

	default:
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "right pipeline of a multi-pipeline broadcast must be BROADCAST, BROADCAST_CHAIN, or PARTITIONED")
	}
}

// promoteToPartitionedChain implements §4.4's BROADCAST-over-PARTITIONED
// case: every right PartitionedJoinInput is promoted into a
// PartitionedChainJoinInput carrying the left chain's in-memory tables.
func promoteToPartitionedChain(ctx context.Context, env *Env, joined, parent *planir.Table, leftOp, rightOp *planir.Operator) (*planir.Operator, error) {
	j := joined.Join
	chain := leftOp.ChainInputs[0]

	postPartition, numParts, keyIDs, err := resolvePostPartition(ctx, env, joined, parent)
	if err != nil {
		return nil, err
	}

	finalLink := planir.ChainJoinInfo{
		JoinType:     j.JoinType,
		KeyColumnIDs: j.LeftKeyColumnIDs,
		Projection:   j.LeftProjection,
		ColumnAlias:  j.LeftColumnAlias,
	}

	promoted := make([]planir.PartitionedChainJoinInput, 0, len(rightOp.PartitionedInputs))
	for _, in := range rightOp.PartitionedInputs {
		ji := in.JoinInfo
		if postPartition {
			ji.PostPartition = &planir.PostPartitionInfo{KeyColumnIDs: keyIDs, NumPartitions: numParts}
		}
		promoted = append(promoted, planir.PartitionedChainJoinInput{
			ChainTables:    append([]planir.BroadcastTableInfo{}, chain.ChainTables...),
			ChainJoinInfos: append(append([]planir.ChainJoinInfo{}, chain.ChainJoinInfos...), finalLink),
			SmallTable:     in.SmallTable,
			LargeTable:     in.LargeTable,
			JoinInfo:       ji,
			Output:         in.Output,
		})
	}

	return &planir.Operator{
		Name:                   joined.FullName(),
		Kind:                   planir.OperatorPartitionedJoin,
		Algorithm:              planir.JoinPartitionedChain,
		PartitionedChainInputs: promoted,
		SmallPartitionInputs:   rightOp.SmallPartitionInputs,
		LargePartitionInputs:   rightOp.LargePartitionInputs,
		SmallChild:             rightOp.SmallChild,
		LargeChild:             rightOp.LargeChild,
	}, nil
}

// compileMultiPartitioned implements §4.4's PARTITIONED multi-pipeline
// case: both children are recompiled with this join as parent (so each
// arrives pre-partitioned on the bucket keys this join needs), then one
// PartitionedJoinInput is emitted per bucket exactly as in the single-
// pipeline case.
func compileMultiPartitioned(ctx context.Context, env *Env, joined, parent *planir.Table) (*planir.Operator, error) {
	j := joined.Join

	leftOp, err := CompileJoin(ctx, env, j.Left, joined)
	if err != nil {
		return nil, err
	}
	rightOp, err := CompileJoin(ctx, env, j.Right, joined)
	if err != nil {
		return nil, err
	}

	numParts, err := numPartitionsFor(ctx, env, j.Left, j.Right, j.JoinEndian)
	if err != nil {
		return nil, err
	}

	leftInfo := partitionedTableInfoFromChild(env, j.Left, j.LeftProjection, j.LeftKeyColumnIDs, numParts)
	rightInfo := partitionedTableInfoFromChild(env, j.Right, j.RightProjection, j.RightKeyColumnIDs, numParts)

	var small, large planir.PartitionedTableInfo
	if j.JoinEndian == planir.SmallLeft {
		small, large = leftInfo, rightInfo
	} else {
		small, large = rightInfo, leftInfo
	}

	postPartition, ppNumParts, ppKeyIDs, err := resolvePostPartition(ctx, env, joined, parent)
	if err != nil {
		return nil, err
	}

	partInputs := buildPartitionedJoinInputs(env, joined, j, small, large, numParts, postPartition, ppNumParts, ppKeyIDs)

	return &planir.Operator{
		Name:              joined.FullName(),
		Kind:              planir.OperatorPartitionedJoin,
		Algorithm:         planir.JoinPartitioned,
		PartitionedInputs: partInputs,
		SmallChild:        leftOpOrNil(j, leftOp, rightOp, true),
		LargeChild:        leftOpOrNil(j, leftOp, rightOp, false),
	}, nil
}

func leftOpOrNil(j *planir.Join, leftOp, rightOp *planir.Operator, wantSmall bool) *planir.Operator {
	isLeftSmall := j.JoinEndian == planir.SmallLeft
	if wantSmall == isLeftSmall {
		return leftOp
	}
	return rightOp
}
