package splitindex

import (
	"context"
)

// StatsBuilder is the default Builder: it asks the table's StatsProvider
// for a split size and wraps it as either an Inverted index (a single
// default pattern, no per-column-set overrides) or a CostBased index
// (the provider's estimate used directly), per §4.2 step 1.b's choice
// between splits.index.type=INVERTED and COST_BASED.
type StatsBuilder struct{}

// NewStatsBuilder constructs a StatsBuilder.
func NewStatsBuilder() *StatsBuilder { return &StatsBuilder{} }

// Build implements Builder.
func (b *StatsBuilder) Build(ctx context.Context, schema, table string, indexType IndexType, maxSplitSize int, stats StatsProvider) (*Index, error) {
	size, err := stats.EstimateSplitSize(ctx, schema, table, nil)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		Type:         indexType,
		Version:      1,
		MaxSplitSize: maxSplitSize,
	}
	switch indexType {
	case IndexInverted:
		idx.patterns = make(map[string]int)
		idx.defaultSize = size
	default:
		idx.statsSize = size
	}
	return idx, nil
}
