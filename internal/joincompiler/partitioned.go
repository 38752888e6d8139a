package joincompiler

import (
	"context"
	"fmt"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// compilePartitioned implements the PARTITIONED branch of §4.3: hash-
// partition whichever side(s) are not already partitioned, then emit one
// PartitionedJoinInput per bucket.
func compilePartitioned(ctx context.Context, env *Env, joined, parent *planir.Table, childOp *planir.Operator) (*planir.Operator, error) {
	j := joined.Join
	left, right := j.Left, j.Right

	numParts, err := numPartitionsFor(ctx, env, left, right, j.JoinEndian)
	if err != nil {
		return nil, err
	}

	rightCols, rightKeys, rightProj := rewritePartitionProjection(right, j.RightProjection, j.RightKeyColumnIDs)
	rightSplits, err := env.buildInputSplits(ctx, right, rightCols, env.InputStorage)
	if err != nil {
		return nil, err
	}
	_ = rightProj
	rightPath := env.intermediatePath(right.Schema, right.Name, "partition")
	rightPartitionInputs := buildPartitionInputs(env, rightSplits, rightCols, rightKeys, numParts, env.InputStorage, rightPath)
	rightPartitioned := planir.PartitionedTableInfo{Path: rightPath, Storage: env.InputStorage, ColumnsToRead: rightCols, KeyColumnIDs: rightKeys, NumPartitions: numParts}

	var leftPartitioned planir.PartitionedTableInfo
	var leftPartitionInputs []planir.PartitionInput

	childIsPartitioned := childOp != nil && childOp.Kind == planir.OperatorPartitionedJoin
	switch {
	case childIsPartitioned:
		leftPartitioned = partitionedTableInfoFromChild(env, left, j.LeftProjection, j.LeftKeyColumnIDs, numParts)
	case left.IsBase():
		leftCols, leftKeys, _ := rewritePartitionProjection(left, j.LeftProjection, j.LeftKeyColumnIDs)
		leftSplits, err := env.buildInputSplits(ctx, left, leftCols, env.InputStorage)
		if err != nil {
			return nil, err
		}
		leftPath := env.intermediatePath(left.Schema, left.Name, "partition")
		leftPartitionInputs = buildPartitionInputs(env, leftSplits, leftCols, leftKeys, numParts, env.InputStorage, leftPath)
		leftPartitioned = planir.PartitionedTableInfo{Path: leftPath, Storage: env.InputStorage, ColumnsToRead: leftCols, KeyColumnIDs: leftKeys, NumPartitions: numParts}
	default:
		return nil, errors.NewInvalidPlan(joined.Schema, joined.Name, "partitioned join requires a base or already-partitioned left child")
	}

	var smallPartInputs, largePartInputs []planir.PartitionInput
	var small, large planir.PartitionedTableInfo
	if j.JoinEndian == planir.SmallLeft {
		smallPartInputs, largePartInputs = leftPartitionInputs, rightPartitionInputs
		small, large = leftPartitioned, rightPartitioned
	} else {
		smallPartInputs, largePartInputs = rightPartitionInputs, leftPartitionInputs
		small, large = rightPartitioned, leftPartitioned
	}

	postPartition, ppNumParts, ppKeyIDs, err := resolvePostPartition(ctx, env, joined, parent)
	if err != nil {
		return nil, err
	}

	partInputs := buildPartitionedJoinInputs(env, joined, j, small, large, numParts, postPartition, ppNumParts, ppKeyIDs)

	op := &planir.Operator{
		Name:                 joined.FullName(),
		Kind:                 planir.OperatorPartitionedJoin,
		Algorithm:            planir.JoinPartitioned,
		PartitionedInputs:    partInputs,
		SmallPartitionInputs: smallPartInputs,
		LargePartitionInputs: largePartInputs,
	}
	attachChild(op, j, childOp)
	return op, nil
}

// buildPartitionInputs packs splits into groups of IntraWorkerParallelism
// and emits one PartitionInput per group, writing to the same storage the
// splits were read from (the partition step writes to input storage so
// subsequent joiners can read it).
func buildPartitionInputs(env *Env, splits []planir.InputSplit, columns, keyColumnIDs []planir.ColumnID, numPartitions int, storage planir.StorageInfo, path string) []planir.PartitionInput {
	projection := planir.NewBitmask(len(columns))
	var inputs []planir.PartitionInput
	for _, batch := range batchSplits(splits, env.IntraWorkerParallelism) {
		inputs = append(inputs, planir.PartitionInput{
			Splits:        batch,
			ColumnsToRead: columns,
			Partition:     planir.PartitionSpec{KeyColumnIDs: keyColumnIDs, NumPartitions: numPartitions},
			Projection:    projection,
			Output:        planir.OutputInfo{Storage: storage, Path: path},
		})
	}
	return inputs
}

// buildPartitionedJoinInputs emits one PartitionedJoinInput per bucket
// id, shared by the single-pipeline and multi-pipeline PARTITIONED
// compilers.
func buildPartitionedJoinInputs(env *Env, joined *planir.Table, j *planir.Join, small, large planir.PartitionedTableInfo, numParts int, postPartition bool, ppNumParts int, ppKeyIDs []planir.ColumnID) []planir.PartitionedJoinInput {
	var partInputs []planir.PartitionedJoinInput
	for id := 0; id < numParts; id++ {
		ji := planir.PartitionedJoinInfo{
			JoinInfo: planir.JoinInfo{
				JoinType:         j.JoinType,
				LeftProjection:   j.LeftProjection,
				RightProjection:  j.RightProjection,
				LeftColumnAlias:  j.LeftColumnAlias,
				RightColumnAlias: j.RightColumnAlias,
			},
			NumPartitions: numParts,
			PartitionID:   id,
		}
		if postPartition {
			ji.PostPartition = &planir.PostPartitionInfo{KeyColumnIDs: ppKeyIDs, NumPartitions: ppNumParts}
		}

		suffixes := []string{fmt.Sprintf("%d/join", id)}
		if j.JoinType == planir.JoinEquiLeft || j.JoinType == planir.JoinEquiFull {
			suffixes = append(suffixes, fmt.Sprintf("%d/join_left", id))
		}
		paths := make([]string, len(suffixes))
		for i, s := range suffixes {
			paths[i] = env.intermediatePath(joined.Schema, joined.Name, s)
		}

		partInputs = append(partInputs, planir.PartitionedJoinInput{
			SmallTable: small,
			LargeTable: large,
			JoinInfo:   ji,
			Output:     planir.MultiOutputInfo{Storage: env.IntermediateStorage, Paths: paths},
		})
	}
	return partInputs
}

// partitionedTableInfoFromChild describes an already-partitioned left
// child by the same path convention used when that child's own join
// operator wrote its per-bucket output, keyed on the child table's own
// schema/name identity rather than on the operator's recorded paths.
func partitionedTableInfoFromChild(env *Env, left *planir.Table, joinProjection planir.Bitmask, keyColumnIDs []planir.ColumnID, numPartitions int) planir.PartitionedTableInfo {
	cols, keys, _ := rewritePartitionProjection(left, joinProjection, keyColumnIDs)
	path := env.intermediatePath(left.Schema, left.Name, "")
	return planir.PartitionedTableInfo{
		Path:          path,
		Storage:       env.IntermediateStorage,
		ColumnsToRead: cols,
		KeyColumnIDs:  keys,
		NumPartitions: numPartitions,
	}
}

// rewritePartitionProjection implements §4.3's "Partition projection"
// rule: for a Base table, a column survives only if the join projection
// or the join keys need it; surviving columns are compacted into a dense
// 0..n-1 id space and keyColumnIDs/joinProjection are rewritten into that
// space. Joined-table children are already exactly as wide as the join
// needs, so their partition projection keeps everything.
func rewritePartitionProjection(table *planir.Table, joinProjection planir.Bitmask, keyColumnIDs []planir.ColumnID) (columnsToRead, newKeyColumnIDs []planir.ColumnID, newJoinProjection planir.Bitmask) {
	if !table.IsBase() {
		n := len(joinProjection)
		columnsToRead = make([]planir.ColumnID, n)
		for i := range columnsToRead {
			columnsToRead[i] = planir.ColumnID(i)
		}
		return columnsToRead, keyColumnIDs, joinProjection.Clone()
	}

	keep := make(map[planir.ColumnID]bool)
	for _, c := range keyColumnIDs {
		keep[c] = true
	}
	for _, c := range joinProjection.Columns() {
		keep[c] = true
	}

	remap := make(map[planir.ColumnID]planir.ColumnID)
	var kept []planir.ColumnID
	for i := 0; i < len(table.Columns); i++ {
		c := planir.ColumnID(i)
		if keep[c] {
			remap[c] = planir.ColumnID(len(kept))
			kept = append(kept, c)
		}
	}

	newKeyColumnIDs = make([]planir.ColumnID, len(keyColumnIDs))
	for i, c := range keyColumnIDs {
		newKeyColumnIDs[i] = remap[c]
	}
	newJoinProjection = make(planir.Bitmask, len(kept))
	for _, c := range joinProjection.Columns() {
		newJoinProjection[remap[c]] = true
	}
	return kept, newKeyColumnIDs, newJoinProjection
}
