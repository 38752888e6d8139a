package planir

// InputInfo identifies a contiguous slice of a columnar file.
// RowGroupCount = -1 means "to end of file".
type InputInfo struct {
	Path               string `json:"path"`
	StartRowGroupIndex int    `json:"startRowGroupIndex"`
	RowGroupCount      int    `json:"rowGroupCount"`
}

// InputSplit is an ordered list of InputInfo read by exactly one
// worker-thread slot.
type InputSplit struct {
	Infos []InputInfo `json:"infos"`
}

// PartitionSpec describes a hash-partition step.
type PartitionSpec struct {
	KeyColumnIDs  []ColumnID `json:"keyColumnIds"`
	NumPartitions int        `json:"numPartitions"`
}

// PostPartitionInfo is attached to a join worker-input's JoinInfo when the
// join's output must also be hash-partitioned on the parent's keys so the
// parent can consume it as a pre-partitioned input (§4.3 post-partitioning
// rule).
type PostPartitionInfo struct {
	KeyColumnIDs  []ColumnID `json:"keyColumnIds"`
	NumPartitions int        `json:"numPartitions"`
}

// JoinInfo is the shared join-description payload carried by broadcast and
// chain worker-inputs.
type JoinInfo struct {
	JoinType         JoinType           `json:"joinType"`
	LeftProjection   Bitmask            `json:"leftProjection"`
	RightProjection  Bitmask            `json:"rightProjection"`
	LeftColumnAlias  []string           `json:"leftColumnAlias,omitempty"`
	RightColumnAlias []string           `json:"rightColumnAlias,omitempty"`
	PostPartition    *PostPartitionInfo `json:"postPartition,omitempty"`

	// PartialAggregation is set when this join's output feeds directly
	// into an aggregation rather than a further join (§4.5 step 2's
	// Joined-origin case).
	PartialAggregation *PartialAggregationInfo `json:"partialAggregation,omitempty"`
}

// PartitionedJoinInfo is the JoinInfo payload carried by
// PartitionedJoinInput: it additionally designates exactly one bucket id
// this worker-input is responsible for (invariant 5).
type PartitionedJoinInfo struct {
	JoinInfo
	NumPartitions int `json:"numPartitions"`
	PartitionID   int `json:"partitionId"`
}

// ChainJoinInfo describes one link of a chain join: the join of the next
// chain table against the columns carried so far.
type ChainJoinInfo struct {
	JoinType    JoinType   `json:"joinType"`
	KeyColumnIDs []ColumnID `json:"keyColumnIds"`
	Projection  Bitmask    `json:"projection"`
	ColumnAlias []string   `json:"columnAlias,omitempty"`
}

// ScanInput is a scan worker-input: read a set of InputSplits, optionally
// filtering and partially aggregating, and write the result to Output.
type ScanInput struct {
	Splits             []InputSplit            `json:"splits"`
	ColumnsToRead      []ColumnID               `json:"columnsToRead"`
	Filter             *Predicate               `json:"filter,omitempty"`
	PartialAggregation *PartialAggregationInfo  `json:"partialAggregation,omitempty"`
	Output             OutputInfo               `json:"output"`
}

// PartitionInput is a scan-and-hash-partition worker-input.
type PartitionInput struct {
	Splits        []InputSplit  `json:"splits"`
	ColumnsToRead []ColumnID    `json:"columnsToRead"`
	Filter        *Predicate    `json:"filter,omitempty"`
	Partition     PartitionSpec `json:"partition"`
	Projection    Bitmask       `json:"projection"`
	Output        OutputInfo    `json:"output"`
}

// BroadcastTableInfo describes one side of a broadcast join: the splits
// that make up that side plus the columns/keys read from it.
type BroadcastTableInfo struct {
	Splits        []InputSplit `json:"splits"`
	ColumnsToRead []ColumnID   `json:"columnsToRead"`
	KeyColumnIDs  []ColumnID   `json:"keyColumnIds"`
}

// PartitionedTableInfo describes one side of a partitioned join: the
// already-partitioned directory plus the columns/keys read from it.
type PartitionedTableInfo struct {
	Path          string     `json:"path"`
	Storage       StorageInfo `json:"storage"`
	ColumnsToRead []ColumnID `json:"columnsToRead"`
	KeyColumnIDs  []ColumnID `json:"keyColumnIds"`
	NumPartitions int        `json:"numPartitions"`
}

// BroadcastJoinInput replicates the small side in memory and streams the
// large side's splits through it.
type BroadcastJoinInput struct {
	SmallTable BroadcastTableInfo `json:"smallTable"`
	LargeTable BroadcastTableInfo `json:"largeTable"`
	JoinInfo   JoinInfo           `json:"joinInfo"`
	Output     MultiOutputInfo    `json:"output"`
}

// PartitionedJoinInput joins one hash bucket from each already-partitioned
// side.
type PartitionedJoinInput struct {
	SmallTable PartitionedTableInfo `json:"smallTable"`
	LargeTable PartitionedTableInfo `json:"largeTable"`
	JoinInfo   PartitionedJoinInfo  `json:"joinInfo"`
	Output     MultiOutputInfo      `json:"output"`
}

// BroadcastChainJoinInput fuses a sequence of broadcast joins into one
// worker that keeps every chain table in memory simultaneously.
// It is incomplete (per invariant 3) when LargeTable is nil: an incomplete
// chain-join may only appear as the sole input of its operator and must be
// completed before surfacing at the root.
type BroadcastChainJoinInput struct {
	ChainTables    []BroadcastTableInfo `json:"chainTables"`
	ChainJoinInfos []ChainJoinInfo      `json:"chainJoinInfos"`
	LargeTable     *BroadcastTableInfo  `json:"largeTable,omitempty"`
	JoinInfo       *JoinInfo            `json:"joinInfo,omitempty"`
	Output         *MultiOutputInfo     `json:"output,omitempty"`
}

// Incomplete reports whether this chain-join still lacks its large side.
func (b *BroadcastChainJoinInput) Incomplete() bool {
	return b.LargeTable == nil
}

// PartitionedChainJoinInput is a PartitionedJoinInput augmented with chain
// tables to be joined (in memory, broadcast-style) before the final
// partitioned probe.
type PartitionedChainJoinInput struct {
	ChainTables    []BroadcastTableInfo `json:"chainTables"`
	ChainJoinInfos []ChainJoinInfo      `json:"chainJoinInfos"`
	SmallTable     PartitionedTableInfo `json:"smallTable"`
	LargeTable     PartitionedTableInfo `json:"largeTable"`
	JoinInfo       PartitionedJoinInfo  `json:"joinInfo"`
	Output         MultiOutputInfo      `json:"output"`
}

// AggregationInput consumes a set of input files and produces one
// aggregated output (partial, pre-aggregated, or final).
type AggregationInput struct {
	InputFiles          []string       `json:"inputFiles"`
	InputStorage        StorageInfo    `json:"inputStorage"`
	GroupKeyColumnIDs   []ColumnID     `json:"groupKeyColumnIds"`
	GroupKeyColumnAlias []string       `json:"groupKeyColumnAlias,omitempty"`
	ResultColumnAlias   []string       `json:"resultColumnAlias,omitempty"`
	ResultColumnTypes   []string       `json:"resultColumnTypes"`
	FunctionTypes       []FunctionType `json:"functionTypes"`
	Parallelism         int            `json:"parallelism"`
	Output              OutputInfo     `json:"output"`
}
