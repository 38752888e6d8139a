package splitindex

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
)

type fakeLayoutProvider struct {
	name    string
	layouts []metadata.Layout
}

func (f *fakeLayoutProvider) Name() string { return f.name }
func (f *fakeLayoutProvider) GetLayouts(ctx context.Context, schema, table string) ([]metadata.Layout, error) {
	return f.layouts, nil
}

type fakeLocalStorage struct {
	files map[string][]string
}

func (s *fakeLocalStorage) Scheme() planir.Scheme { return planir.SchemeLocal }
func (s *fakeLocalStorage) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	return s.files[prefix], nil
}

type fakeStats struct {
	splitSize int
}

func (f *fakeStats) Name() string { return "fake" }
func (f *fakeStats) EstimateRows(ctx context.Context, schema, table string) (int64, error) {
	return 1000, nil
}
func (f *fakeStats) EstimateSplitSize(ctx context.Context, schema, table string, columns []planir.ColumnID) (int, error) {
	return f.splitSize, nil
}

func TestBuildInputSplits_OrderedAndCompactPaths(t *testing.T) {
	layout := metadata.Layout{
		Version:     1,
		OrderedPath: "ordered/",
		CompactPath: "compact/",
		SplitsConfig: metadata.SplitsConfig{
			NumRowGroupsPerBlock: 4,
			MaxSplitSize:         100,
		},
	}
	meta := metadata.NewService()
	meta.Register(&fakeLayoutProvider{name: "fake", layouts: []metadata.Layout{layout}})

	storage := objstorage.NewRegistry()
	backend := &fakeLocalStorage{files: map[string][]string{
		"ordered/": {"ordered/a.parquet", "ordered/b.parquet", "ordered/c.parquet"},
		"compact/": {"compact/block.parquet"},
	}}
	storage.Register(backend)

	factory := NewFactory(NewStatsBuilder())
	stats := &fakeStats{splitSize: 2}

	opts := Options{IndexType: IndexCostBased, Selectivity: -1}
	info := planir.StorageInfo{Scheme: planir.SchemeLocal}

	splits, err := BuildInputSplits(context.Background(), meta, storage, factory, stats, "s", "t", info, nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ordered: 3 files, splitSize 2 -> 2 splits (2 files, 1 file)
	// compact: 1 file, numRowGroupsPerBlock 4, splitSize 2 -> starts 0,2 -> 2 splits
	if len(splits) != 4 {
		t.Fatalf("got %d splits, want 4: %+v", len(splits), splits)
	}
}

func TestAdjustForSelectivity(t *testing.T) {
	cases := []struct {
		size        int
		selectivity float64
		max         int
		want        int
	}{
		{10, -1, 100, 10},
		{10, 0.1, 100, 40},
		{10, 0.4, 100, 20},
		{10, 0.9, 100, 10},
		{30, 0.1, 100, 100}, // bounded by max after x4
	}
	for _, c := range cases {
		got := adjustForSelectivity(c.size, c.selectivity, c.max)
		if got != c.want {
			t.Errorf("adjustForSelectivity(%d, %v, %d) = %d, want %d", c.size, c.selectivity, c.max, got, c.want)
		}
	}
}

func TestIndexSplitSize_Bounds(t *testing.T) {
	idx := &Index{Type: IndexCostBased, MaxSplitSize: 5, statsSize: 100}
	if got := idx.SplitSize(nil); got != 5 {
		t.Errorf("SplitSize() = %d, want bounded to MaxSplitSize 5", got)
	}

	zero := &Index{Type: IndexCostBased, MaxSplitSize: 5, statsSize: 0}
	if got := zero.SplitSize(nil); got != 1 {
		t.Errorf("SplitSize() = %d, want floored to 1", got)
	}
}

