package splitindex

import (
	"encoding/json"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// ProjectionEntry is one pre-materialized column-subset layout advertised
// by a table's metadata, as carried in Layout.Projections (§3 EXPANDED,
// §4.2 step 3's "projection index substitution").
type ProjectionEntry struct {
	Columns []planir.ColumnID `json:"columns"`
	Path    string             `json:"path"`
}

// ProjectionIndex answers whether a narrower, pre-materialized layout
// exists for exactly the set of columns a scan actually reads, letting the
// split-sizing algorithm substitute a cheaper path than the table's full
// OrderedPath/CompactPath.
type ProjectionIndex struct {
	entries []ProjectionEntry
}

// DecodeProjections parses a Layout's raw Projections field, if present.
// A Layout with no Projections field yields an empty, always-missing
// index rather than an error: projection substitution is optional per
// table.
func DecodeProjections(layout metadata.Layout) (*ProjectionIndex, error) {
	if len(layout.Projections) == 0 {
		return &ProjectionIndex{}, nil
	}
	var entries []ProjectionEntry
	if err := json.Unmarshal(layout.Projections, &entries); err != nil {
		return nil, err
	}
	return &ProjectionIndex{entries: entries}, nil
}

// Lookup returns the pre-materialized path for an exact column-set match,
// and whether one was found.
func (p *ProjectionIndex) Lookup(columns []planir.ColumnID) (string, bool) {
	if p == nil {
		return "", false
	}
	want := columnSetKey(columns)
	for _, e := range p.entries {
		if columnSetKey(e.Columns) == want {
			return e.Path, true
		}
	}
	return "", false
}
