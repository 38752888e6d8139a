package joincompiler

import "github.com/canonica-labs/dagplan/internal/planir"

// childOutputPaths collects every file a completed operator writes,
// implementing the "child-output-to-splits" rule: a parent join treats
// its child's output files as its own input, one split per file.
func childOutputPaths(op *planir.Operator) []string {
	var out []string
	switch op.Kind {
	case planir.OperatorSingleStageJoin:
		switch op.Algorithm {
		case planir.JoinBroadcast:
			for _, in := range op.BroadcastInputs {
				out = append(out, in.Output.Paths...)
			}
		case planir.JoinBroadcastChain:
			for _, in := range op.ChainInputs {
				if in.Output != nil {
					out = append(out, in.Output.Paths...)
				}
			}
		}
	case planir.OperatorPartitionedJoin:
		switch op.Algorithm {
		case planir.JoinPartitioned:
			for _, in := range op.PartitionedInputs {
				out = append(out, in.Output.Paths...)
			}
		case planir.JoinPartitionedChain:
			for _, in := range op.PartitionedChainInputs {
				out = append(out, in.Output.Paths...)
			}
		}
	}
	return out
}

// childOutputSplits wraps a child operator's output files as InputSplits,
// one whole-file InputInfo per split.
func childOutputSplits(op *planir.Operator) []planir.InputSplit {
	paths := childOutputPaths(op)
	splits := make([]planir.InputSplit, 0, len(paths))
	for _, p := range paths {
		splits = append(splits, planir.InputSplit{
			Infos: []planir.InputInfo{{Path: p, StartRowGroupIndex: 0, RowGroupCount: -1}},
		})
	}
	return splits
}

// childOutputStorage returns the storage the child operator's outputs
// were written to, so the parent can read them back from the same place.
func childOutputStorage(op *planir.Operator) planir.StorageInfo {
	switch op.Kind {
	case planir.OperatorSingleStageJoin:
		switch op.Algorithm {
		case planir.JoinBroadcast:
			if len(op.BroadcastInputs) > 0 {
				return op.BroadcastInputs[0].Output.Storage
			}
		case planir.JoinBroadcastChain:
			for _, in := range op.ChainInputs {
				if in.Output != nil {
					return in.Output.Storage
				}
			}
		}
	case planir.OperatorPartitionedJoin:
		switch op.Algorithm {
		case planir.JoinPartitioned:
			if len(op.PartitionedInputs) > 0 {
				return op.PartitionedInputs[0].Output.Storage
			}
		case planir.JoinPartitionedChain:
			if len(op.PartitionedChainInputs) > 0 {
				return op.PartitionedChainInputs[0].Output.Storage
			}
		}
	}
	return planir.StorageInfo{}
}
