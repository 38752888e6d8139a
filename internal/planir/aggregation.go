package planir

// FunctionType is an aggregate function kind.
type FunctionType int

const (
	AggCount FunctionType = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (f FunctionType) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// Aggregation is the logical aggregation node carried by an Aggregated
// table.
type Aggregation struct {
	Origin *Table

	GroupKeyColumnIDs        []ColumnID
	GroupKeyColumnAlias      []string
	GroupKeyColumnProjection Bitmask

	AggregateColumnIDs []ColumnID
	ResultColumnAlias  []string
	ResultColumnTypes  []string
	FunctionTypes      []FunctionType

	OutputEndPoint StorageInfo
	OutputPath     string
}

// PartialAggregationInfo is the per-worker partial-aggregation spec
// attached to a ScanInput or join worker-input when a table is scanned or
// joined on the way to an Aggregation (§4.5 step 2).
type PartialAggregationInfo struct {
	GroupKeyColumnIDs []ColumnID   `json:"groupKeyColumnIds"`
	ResultColumnTypes []string     `json:"resultColumnTypes"`
	FunctionTypes     []FunctionType `json:"functionTypes"`
}

// NewPartialAggregationInfo builds a PartialAggregationInfo from an
// Aggregation node.
func NewPartialAggregationInfo(agg *Aggregation) *PartialAggregationInfo {
	return &PartialAggregationInfo{
		GroupKeyColumnIDs: agg.GroupKeyColumnIDs,
		ResultColumnTypes: agg.ResultColumnTypes,
		FunctionTypes:     agg.FunctionTypes,
	}
}
