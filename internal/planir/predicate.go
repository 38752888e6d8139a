package planir

// PredicateOp tags the kind of node in a scan-filter predicate tree.
type PredicateOp int

const (
	PredicateAnd PredicateOp = iota
	PredicateOr
	PredicateNot
	PredicateCompare
)

// Predicate is a structured scan-filter predicate referencing column ids.
// Per the boundary-concern note in the compiler's design notes, this stays
// a structured value throughout compilation; it is serialized to JSON only
// when a worker-input descriptor is produced.
type Predicate struct {
	Op PredicateOp `json:"op"`

	// Compare-leaf fields. Unused for AND/OR/NOT.
	ColumnID   ColumnID `json:"columnId,omitempty"`
	CompareOp  string   `json:"compareOp,omitempty"` // "=", "<", "<=", ">", ">=", "<>", "LIKE", "IN"
	Literal    string   `json:"literal,omitempty"`
	LiteralSet []string `json:"literalSet,omitempty"` // for IN

	// AND/OR/NOT children.
	Children []*Predicate `json:"children,omitempty"`
}

// ReferencedColumns returns the set of column ids this predicate tree
// touches, used by partition-projection rewriting (§4.3 "partition
// projection").
func (p *Predicate) ReferencedColumns() map[ColumnID]bool {
	refs := map[ColumnID]bool{}
	p.collectColumns(refs)
	return refs
}

func (p *Predicate) collectColumns(refs map[ColumnID]bool) {
	if p == nil {
		return
	}
	if p.Op == PredicateCompare {
		refs[p.ColumnID] = true
	}
	for _, c := range p.Children {
		c.collectColumns(refs)
	}
}
