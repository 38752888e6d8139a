package planir

// OperatorKind tags which variant an Operator holds.
type OperatorKind int

const (
	OperatorSingleStageJoin OperatorKind = iota
	OperatorPartitionedJoin
	OperatorAggregation
)

func (k OperatorKind) String() string {
	switch k {
	case OperatorSingleStageJoin:
		return "SingleStageJoin"
	case OperatorPartitionedJoin:
		return "PartitionedJoin"
	case OperatorAggregation:
		return "Aggregation"
	default:
		return "Unknown"
	}
}

// Operator is a node in the submission-order tree returned by the
// compiler. Which input-descriptor fields below are populated is selected
// by Kind and Algorithm, as each field's comment notes.
type Operator struct {
	Name      string   `json:"name"`
	Kind      OperatorKind `json:"kind"`
	Algorithm JoinAlgo `json:"algorithm"`

	// OperatorSingleStageJoin, Algorithm == JoinBroadcast.
	BroadcastInputs []BroadcastJoinInput `json:"broadcastInputs,omitempty"`

	// OperatorSingleStageJoin, Algorithm == JoinBroadcastChain.
	ChainInputs []BroadcastChainJoinInput `json:"chainInputs,omitempty"`

	// OperatorPartitionedJoin, Algorithm == JoinPartitioned.
	PartitionedInputs []PartitionedJoinInput `json:"partitionedInputs,omitempty"`
	SmallPartitionInputs []PartitionInput    `json:"smallPartitionInputs,omitempty"`
	LargePartitionInputs []PartitionInput    `json:"largePartitionInputs,omitempty"`

	// OperatorPartitionedJoin, Algorithm == JoinPartitionedChain.
	PartitionedChainInputs []PartitionedChainJoinInput `json:"partitionedChainInputs,omitempty"`

	// OperatorAggregation.
	ScanInputs    []ScanInput        `json:"scanInputs,omitempty"`
	PreAggrInputs []AggregationInput `json:"preAggrInputs,omitempty"`
	FinalInput    *AggregationInput  `json:"finalInput,omitempty"`

	// Dependency ordering: the child operator(s) whose worker-inputs must
	// be submitted before this operator's.
	SmallChild *Operator `json:"smallChild,omitempty"`
	LargeChild *Operator `json:"largeChild,omitempty"`
}

// IsBroadcastChainComplete reports whether every chain-join input carried
// by this operator is complete, i.e. none escape the tree incomplete
// (property 2).
func (o *Operator) IsBroadcastChainComplete() bool {
	for _, c := range o.ChainInputs {
		if c.Incomplete() {
			return false
		}
	}
	return true
}
