package planir

// JoinType is the semantic join kind.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinEquiLeft
	JoinEquiRight
	JoinEquiFull
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "INNER"
	case JoinEquiLeft:
		return "EQUI_LEFT"
	case JoinEquiRight:
		return "EQUI_RIGHT"
	case JoinEquiFull:
		return "EQUI_FULL"
	default:
		return "UNKNOWN"
	}
}

// IsOuter reports whether the join type is EQUI_LEFT or EQUI_FULL, the
// types that invariant 4 forbids pairing with JoinBroadcast. EQUI_RIGHT
// is not included.
func (t JoinType) IsOuter() bool {
	return t == JoinEquiLeft || t == JoinEquiFull
}

// Flipped returns the join type as seen with left/right swapped.
func (t JoinType) Flipped() JoinType {
	switch t {
	case JoinEquiLeft:
		return JoinEquiRight
	case JoinEquiRight:
		return JoinEquiLeft
	default:
		return t
	}
}

// JoinAlgo is the physical join algorithm selected for a Join node.
type JoinAlgo int

const (
	JoinBroadcast JoinAlgo = iota
	JoinPartitioned
	JoinBroadcastChain
	JoinPartitionedChain
)

func (a JoinAlgo) String() string {
	switch a {
	case JoinBroadcast:
		return "BROADCAST"
	case JoinPartitioned:
		return "PARTITIONED"
	case JoinBroadcastChain:
		return "BROADCAST_CHAIN"
	case JoinPartitionedChain:
		return "PARTITIONED_CHAIN"
	default:
		return "UNKNOWN"
	}
}

// JoinEndian records which side of the join is the small side.
type JoinEndian int

const (
	SmallLeft JoinEndian = iota
	LargeLeft
)

func (e JoinEndian) String() string {
	if e == SmallLeft {
		return "SMALL_LEFT"
	}
	return "LARGE_LEFT"
}

// Flipped returns the opposite endian.
func (e JoinEndian) Flipped() JoinEndian {
	if e == SmallLeft {
		return LargeLeft
	}
	return SmallLeft
}

// Join is the logical join node carried by a Joined table.
type Join struct {
	Left  *Table
	Right *Table

	LeftKeyColumnIDs  []ColumnID
	RightKeyColumnIDs []ColumnID

	LeftProjection  Bitmask
	RightProjection Bitmask

	LeftColumnAlias  []string
	RightColumnAlias []string

	JoinType   JoinType
	JoinAlgo   JoinAlgo
	JoinEndian JoinEndian
}

// IsMultiPipeline reports whether both children are Joined tables, the
// condition that routes compilation into internal/joincompiler's
// multi-pipeline path (§4.4).
func (j *Join) IsMultiPipeline() bool {
	return j.Left != nil && j.Left.IsJoined() && j.Right != nil && j.Right.IsJoined()
}

// SmallChild returns the child on the small side given JoinEndian.
func (j *Join) SmallChild() *Table {
	if j.JoinEndian == SmallLeft {
		return j.Left
	}
	return j.Right
}

// LargeChild returns the child on the large side given JoinEndian.
func (j *Join) LargeChild() *Table {
	if j.JoinEndian == SmallLeft {
		return j.Right
	}
	return j.Left
}
