package planir

import "github.com/canonica-labs/dagplan/internal/errors"

// ValidateJoin enforces invariants 1, 2, and 4 on construction of a Joined
// table. Invariant 3 (no incomplete chain-join escaping) and invariant 5
// (partition bucket coverage) are enforced by the join compiler as it
// builds worker-inputs, not here — they are properties of a compiled
// Operator, not of the logical Join node.
func ValidateJoin(j *Join) error {
	if j.Left == nil || j.Right == nil {
		return errors.NewInvalidPlan("", "", "join requires both a left and right table")
	}

	// Invariant 1: multi-pipeline joins must be SMALL_LEFT.
	if j.IsMultiPipeline() && j.JoinEndian != SmallLeft {
		return errors.NewInvalidPlan(j.Left.Schema, j.Left.Name,
			"multi-pipeline join (both children joined) must have joinEndian = SMALL_LEFT")
	}

	// Invariant 2: single-pipeline joins require a Base right child.
	if !j.IsMultiPipeline() && !j.Right.IsBase() {
		return errors.NewInvalidPlan(j.Right.Schema, j.Right.Name,
			"single-pipeline join requires the right child to be a Base table")
	}

	// Invariant 4: EQUI_LEFT/EQUI_FULL forbids BROADCAST.
	if j.JoinType.IsOuter() && j.JoinAlgo == JoinBroadcast {
		return errors.NewInvalidPlan(j.Left.Schema, j.Left.Name,
			"joinType "+j.JoinType.String()+" forbids joinAlgo BROADCAST")
	}

	return nil
}

// ValidatePartitionBuckets enforces invariant 5 and property 1: every
// PartitionedJoinInput references exactly one bucket id in
// [0, numPartitions), and the set of inputs covers that range exactly
// once.
func ValidatePartitionBuckets(schema, table string, inputs []PartitionedJoinInput, numPartitions int) error {
	seen := make([]bool, numPartitions)
	for _, in := range inputs {
		if in.SmallTable.NumPartitions != in.LargeTable.NumPartitions {
			return errors.NewInvalidPlan(schema, table,
				"PartitionedJoinInput small/large NumPartitions mismatch")
		}
		id := in.JoinInfo.PartitionID
		if id < 0 || id >= numPartitions {
			return errors.NewInvalidPlan(schema, table, "partition id out of range")
		}
		if seen[id] {
			return errors.NewInvalidPlan(schema, table, "partition id covered more than once")
		}
		seen[id] = true
	}
	for i, ok := range seen {
		if !ok {
			return errors.NewInvalidPlan(schema, table, "partition id not covered")
		}
		_ = i
	}
	return nil
}
