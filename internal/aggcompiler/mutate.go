package aggcompiler

import "github.com/canonica-labs/dagplan/internal/planir"

// mutateJoinOutputsForAggregation implements §4.5 step 2's Joined-origin
// case: every worker-input an already-compiled join operator emits is
// mutated in place to carry the partial-aggregation spec and to redirect
// its output to a partial_aggr_<i> path, returning those paths in emission
// order. It rewrites the worker-inputs held by op itself (broadcast, chain,
// partitioned and partitioned-chain inputs, a chain's earlier links among
// them); it does not descend into op's SmallChild or LargeChild.
func mutateJoinOutputsForAggregation(op *planir.Operator, info *planir.PartialAggregationInfo, pathFor func(i int) string) []string {
	var paths []string
	next := func() string {
		p := pathFor(len(paths))
		paths = append(paths, p)
		return p
	}

	switch op.Kind {
	case planir.OperatorSingleStageJoin:
		switch op.Algorithm {
		case planir.JoinBroadcast:
			for i := range op.BroadcastInputs {
				op.BroadcastInputs[i].JoinInfo.PartialAggregation = info
				op.BroadcastInputs[i].Output.Paths = []string{next()}
			}
		case planir.JoinBroadcastChain:
			for i := range op.ChainInputs {
				c := &op.ChainInputs[i]
				if c.JoinInfo != nil {
					c.JoinInfo.PartialAggregation = info
				}
				if c.Output != nil {
					c.Output.Paths = []string{next()}
				}
			}
		}
	case planir.OperatorPartitionedJoin:
		switch op.Algorithm {
		case planir.JoinPartitioned:
			for i := range op.PartitionedInputs {
				op.PartitionedInputs[i].JoinInfo.PartialAggregation = info
				op.PartitionedInputs[i].Output.Paths = []string{next()}
			}
		case planir.JoinPartitionedChain:
			for i := range op.PartitionedChainInputs {
				op.PartitionedChainInputs[i].JoinInfo.PartialAggregation = info
				op.PartitionedChainInputs[i].Output.Paths = []string{next()}
			}
		}
	}
	return paths
}

// rewriteProducerStorage overrides every partial-aggregation producer's
// output storage, used when §4.5 step 6 routes partial output straight to
// the final endpoint (no intermediate hop needed).
func rewriteProducerStorage(scanInputs []planir.ScanInput, childOp *planir.Operator, storage planir.StorageInfo) {
	for i := range scanInputs {
		scanInputs[i].Output.Storage = storage
	}
	if childOp == nil {
		return
	}
	switch childOp.Kind {
	case planir.OperatorSingleStageJoin:
		switch childOp.Algorithm {
		case planir.JoinBroadcast:
			for i := range childOp.BroadcastInputs {
				childOp.BroadcastInputs[i].Output.Storage = storage
			}
		case planir.JoinBroadcastChain:
			for i := range childOp.ChainInputs {
				if childOp.ChainInputs[i].Output != nil {
					childOp.ChainInputs[i].Output.Storage = storage
				}
			}
		}
	case planir.OperatorPartitionedJoin:
		switch childOp.Algorithm {
		case planir.JoinPartitioned:
			for i := range childOp.PartitionedInputs {
				childOp.PartitionedInputs[i].Output.Storage = storage
			}
		case planir.JoinPartitionedChain:
			for i := range childOp.PartitionedChainInputs {
				childOp.PartitionedChainInputs[i].Output.Storage = storage
			}
		}
	}
}
