package joincompiler

import (
	"context"
	"fmt"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// broadcastWorkerThreshold is the target-worker-count gate above which
// the input-split-size adjustment kicks in (§4.3, Open Question 1).
const broadcastWorkerThreshold = 32

// compileBroadcast implements the BROADCAST branch of §4.3: chain-join
// initiation, extension, completion, and plain broadcast.
func compileBroadcast(ctx context.Context, env *Env, joined, parent *planir.Table, childOp *planir.Operator) (*planir.Operator, error) {
	j := joined.Join
	left, right := j.Left, j.Right

	rightColumns := baseColumns(j.RightKeyColumnIDs, j.RightProjection)
	rightSplits, err := env.buildInputSplits(ctx, right, rightColumns, env.InputStorage)
	if err != nil {
		return nil, err
	}
	rightInfo := planir.BroadcastTableInfo{Splits: rightSplits, ColumnsToRead: rightColumns, KeyColumnIDs: j.RightKeyColumnIDs}

	var leftInfo planir.BroadcastTableInfo
	if childOp == nil {
		leftColumns := baseColumns(j.LeftKeyColumnIDs, j.LeftProjection)
		leftSplits, err := env.buildInputSplits(ctx, left, leftColumns, env.InputStorage)
		if err != nil {
			return nil, err
		}
		leftInfo = planir.BroadcastTableInfo{Splits: leftSplits, ColumnsToRead: leftColumns, KeyColumnIDs: j.LeftKeyColumnIDs}
	} else {
		leftInfo = planir.BroadcastTableInfo{
			Splits:        childOutputSplits(childOp),
			ColumnsToRead: j.LeftProjection.Columns(),
			KeyColumnIDs:  j.LeftKeyColumnIDs,
		}
	}

	// Step 2: chain-join initiation.
	if left.IsBase() && j.JoinAlgo == planir.JoinBroadcast && isSmallLeftBroadcast(parent) {
		return initiateChain(joined, parent, leftInfo, rightInfo), nil
	}

	// Step 3: chain-join extension.
	if left.IsJoined() && childOp != nil && childOp.Algorithm == planir.JoinBroadcastChain &&
		isSmallLeftBroadcast(joined) && isSmallLeftBroadcast(parent) {
		if extended := extendChain(childOp, parent, rightInfo); extended {
			return childOp, nil
		}
	}

	// Step 4: chain-join completion.
	if left.IsJoined() && childOp != nil && childOp.Algorithm == planir.JoinBroadcastChain &&
		len(childOp.ChainInputs) == 1 && childOp.ChainInputs[0].Incomplete() && !isSmallLeftBroadcast(parent) {
		return completeChain(ctx, env, joined, parent, childOp, rightInfo, rightSplits)
	}

	// Step 5: plain broadcast.
	return compilePlainBroadcast(ctx, env, joined, parent, childOp, leftInfo, rightInfo, rightSplits)
}

// initiateChain implements §4.3 step 2.
func initiateChain(joined, parent *planir.Table, leftInfo, rightInfo planir.BroadcastTableInfo) *planir.Operator {
	j := joined.Join
	jt := j.JoinType
	chainTables := []planir.BroadcastTableInfo{leftInfo, rightInfo}
	if j.JoinEndian != planir.SmallLeft {
		chainTables = []planir.BroadcastTableInfo{rightInfo, leftInfo}
		jt = jt.Flipped()
	}
	chainJoin := planir.ChainJoinInfo{
		JoinType:     jt,
		KeyColumnIDs: parent.Join.LeftKeyColumnIDs,
		Projection:   parent.Join.LeftProjection,
		ColumnAlias:  parent.Join.LeftColumnAlias,
	}
	chain := planir.BroadcastChainJoinInput{
		ChainTables:    chainTables,
		ChainJoinInfos: []planir.ChainJoinInfo{chainJoin},
	}
	return &planir.Operator{
		Name:        joined.FullName(),
		Kind:        planir.OperatorSingleStageJoin,
		Algorithm:   planir.JoinBroadcastChain,
		ChainInputs: []planir.BroadcastChainJoinInput{chain},
	}
}

// extendChain implements §4.3 step 3, mutating childOp in place. It
// returns false (no mutation) when the child's chain is not in the
// expected incomplete single-link state.
func extendChain(childOp *planir.Operator, parent *planir.Table, rightInfo planir.BroadcastTableInfo) bool {
	if len(childOp.ChainInputs) != 1 || !childOp.ChainInputs[0].Incomplete() {
		return false
	}
	chain := &childOp.ChainInputs[0]
	chain.ChainTables = append(chain.ChainTables, rightInfo)
	chain.ChainJoinInfos = append(chain.ChainJoinInfos, planir.ChainJoinInfo{
		JoinType:     parent.Join.JoinType,
		KeyColumnIDs: parent.Join.LeftKeyColumnIDs,
		Projection:   parent.Join.LeftProjection,
		ColumnAlias:  parent.Join.LeftColumnAlias,
	})
	return true
}

// completeChain implements §4.3 step 4.
func completeChain(ctx context.Context, env *Env, joined, parent *planir.Table, childOp *planir.Operator, rightInfo planir.BroadcastTableInfo, rightSplits []planir.InputSplit) (*planir.Operator, error) {
	j := joined.Join

	postPartition, numParts, keyIDs, err := resolvePostPartition(ctx, env, joined, parent)
	if err != nil {
		return nil, err
	}

	rightSplits = adjustForWorkerThreshold(env, joined, parent, j.Left, j.Right, rightSplits)
	batches := batchSplits(rightSplits, env.IntraWorkerParallelism)

	incomplete := childOp.ChainInputs[0]
	var completed []planir.BroadcastChainJoinInput
	for i, batch := range batches {
		c := incomplete
		large := rightInfo
		large.Splits = batch
		c.LargeTable = &large

		ji := planir.JoinInfo{
			JoinType:         j.JoinType,
			LeftProjection:   j.LeftProjection,
			RightProjection:  j.RightProjection,
			LeftColumnAlias:  j.LeftColumnAlias,
			RightColumnAlias: j.RightColumnAlias,
		}
		if postPartition {
			ji.PostPartition = &planir.PostPartitionInfo{KeyColumnIDs: keyIDs, NumPartitions: numParts}
		}
		c.JoinInfo = &ji

		outPath := env.intermediatePath(joined.Schema, joined.Name, fmt.Sprintf("%d/join", i))
		c.Output = &planir.MultiOutputInfo{Storage: env.IntermediateStorage, Paths: []string{outPath}}
		completed = append(completed, c)
	}

	if len(completed) == 0 {
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "chain-join completion produced no batches")
	}

	return &planir.Operator{
		Name:        joined.FullName(),
		Kind:        planir.OperatorSingleStageJoin,
		Algorithm:   planir.JoinBroadcastChain,
		ChainInputs: completed,
	}, nil
}

// compilePlainBroadcast implements §4.3 step 5.
func compilePlainBroadcast(ctx context.Context, env *Env, joined, parent *planir.Table, childOp *planir.Operator, leftInfo, rightInfo planir.BroadcastTableInfo, rightSplits []planir.InputSplit) (*planir.Operator, error) {
	j := joined.Join

	postPartition, numParts, keyIDs, err := resolvePostPartition(ctx, env, joined, parent)
	if err != nil {
		return nil, err
	}

	rightSplits = adjustForWorkerThreshold(env, joined, parent, j.Left, j.Right, rightSplits)

	batchSize := env.IntraWorkerParallelism
	if tableUnfiltered(j.Left) && tableUnfiltered(j.Right) {
		batchSize = 2
	}
	batches := batchSplits(rightSplits, batchSize)

	jt := j.JoinType
	leftProj, rightProj := j.LeftProjection, j.RightProjection
	leftAlias, rightAlias := j.LeftColumnAlias, j.RightColumnAlias
	if j.JoinEndian != planir.SmallLeft {
		jt = jt.Flipped()
		leftProj, rightProj = rightProj, leftProj
		leftAlias, rightAlias = rightAlias, leftAlias
	}

	var broadcastInputs []planir.BroadcastJoinInput
	for i, batch := range batches {
		var small, large planir.BroadcastTableInfo
		if j.JoinEndian == planir.SmallLeft {
			small = leftInfo
			large = rightInfo
			large.Splits = batch
		} else {
			small = rightInfo
			small.Splits = batch
			large = leftInfo
		}

		ji := planir.JoinInfo{
			JoinType:         jt,
			LeftProjection:   leftProj,
			RightProjection:  rightProj,
			LeftColumnAlias:  leftAlias,
			RightColumnAlias: rightAlias,
		}
		if postPartition {
			ji.PostPartition = &planir.PostPartitionInfo{KeyColumnIDs: keyIDs, NumPartitions: numParts}
		}

		outPath := env.intermediatePath(joined.Schema, joined.Name, fmt.Sprintf("%d/join", i))
		broadcastInputs = append(broadcastInputs, planir.BroadcastJoinInput{
			SmallTable: small,
			LargeTable: large,
			JoinInfo:   ji,
			Output:     planir.MultiOutputInfo{Storage: env.IntermediateStorage, Paths: []string{outPath}},
		})
	}

	op := &planir.Operator{
		Name:            joined.FullName(),
		Kind:            planir.OperatorSingleStageJoin,
		Algorithm:       planir.JoinBroadcast,
		BroadcastInputs: broadcastInputs,
	}
	attachChild(op, j, childOp)
	return op, nil
}

// resolvePostPartition implements the post-partitioning rule (§4.3).
func resolvePostPartition(ctx context.Context, env *Env, joined, parent *planir.Table) (bool, int, []planir.ColumnID, error) {
	if parent == nil || !parent.IsJoined() || parent.Join.JoinAlgo != planir.JoinPartitioned {
		return false, 0, nil, nil
	}
	var keyIDs []planir.ColumnID
	if parent.Join.Left == joined {
		keyIDs = parent.Join.LeftKeyColumnIDs
	} else {
		keyIDs = parent.Join.RightKeyColumnIDs
	}
	n, err := numPartitionsFor(ctx, env, parent.Join.Left, parent.Join.Right, parent.Join.JoinEndian)
	if err != nil {
		return false, 0, nil, err
	}
	return true, n, keyIDs, nil
}

// adjustForWorkerThreshold implements the input-split-size adjustment for
// broadcast output: it only fires when this join's output will itself be
// consumed, whole, by every worker of a PARTITIONED or SMALL_LEFT
// BROADCAST parent (i.e. this join is the parent's left child), and the
// resulting worker count exceeds broadcastWorkerThreshold.
func adjustForWorkerThreshold(env *Env, joined, parent, left, right *planir.Table, splits []planir.InputSplit) []planir.InputSplit {
	if parent == nil || parent.Join == nil || parent.Join.Left != joined {
		return splits
	}
	if !(parent.Join.JoinAlgo == planir.JoinPartitioned || isSmallLeftBroadcast(parent)) {
		return splits
	}
	numSplits := len(splits)
	if numSplits <= broadcastWorkerThreshold {
		return splits
	}

	smallSel, largeSel := -1.0, -1.0
	if env.Advisor != nil {
		if s, err := env.Advisor.TableSelectivity(context.Background(), left); err == nil {
			smallSel = s
		}
		if s, err := env.Advisor.TableSelectivity(context.Background(), right); err == nil {
			largeSel = s
		}
	}
	if smallSel < 0 || largeSel < 0 || smallSel >= largeSel {
		return splits
	}

	numInfos := countInfos(splits)
	infosPerSplit := ceilDiv(numInfos, numSplits)
	if largeSel > 0 && smallSel/largeSel < 0.25 {
		infosPerSplit *= 2
	}
	return repackInputInfos(splits, infosPerSplit)
}

// tableUnfiltered reports whether a table carries no scan filter, used by
// the plain-broadcast batch-size latency heuristic.
func tableUnfiltered(t *planir.Table) bool {
	if t == nil {
		return true
	}
	if t.IsBase() {
		return t.ScanFilter == nil
	}
	return false
}
