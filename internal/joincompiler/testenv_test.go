package joincompiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/joinadvisor"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

// fakeLayoutProvider serves one canned Layout per (schema, table) pair,
// keyed by table name only (tests use a single schema throughout).
type fakeLayoutProvider struct {
	layouts map[string]metadata.Layout
}

func (f *fakeLayoutProvider) Name() string { return "fake" }
func (f *fakeLayoutProvider) GetLayouts(ctx context.Context, schema, table string) ([]metadata.Layout, error) {
	l, ok := f.layouts[table]
	if !ok {
		return nil, nil
	}
	return []metadata.Layout{l}, nil
}

// fakeStorage serves a fixed file listing per path prefix.
type fakeStorage struct {
	files map[string][]string
}

func (s *fakeStorage) Scheme() planir.Scheme { return planir.SchemeLocal }
func (s *fakeStorage) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	return s.files[prefix], nil
}

// fakeAdvisor returns canned partition counts and selectivities, or the
// library defaults when unset.
type fakeAdvisor struct {
	numPartitions int
	selectivity   map[string]float64
}

func (a *fakeAdvisor) NumPartitions(ctx context.Context, left, right *planir.Table, endian planir.JoinEndian) (int, error) {
	if a.numPartitions > 0 {
		return a.numPartitions, nil
	}
	return 4, nil
}
func (a *fakeAdvisor) TableSelectivity(ctx context.Context, table *planir.Table) (float64, error) {
	if table == nil {
		return -1, nil
	}
	if s, ok := a.selectivity[table.FullName()]; ok {
		return s, nil
	}
	return -1, nil
}

var _ joinadvisor.Advisor = (*fakeAdvisor)(nil)

// testTable builds a Base table with numCols placeholder columns.
func testTable(schema, name string, numCols int) *planir.Table {
	cols := make([]string, numCols)
	for i := range cols {
		cols[i] = "c"
	}
	t, err := planir.NewBaseTable(schema, name, cols, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// newTestEnv builds an Env wired with fake metadata/storage collaborators.
// Every table in layouts gets a single layout whose OrderedPath is
// "<table>/" and whose files are files["<table>/"].
func newTestEnv(layouts map[string]metadata.Layout, files map[string][]string, advisor joinadvisor.Advisor, parallelism int) *Env {
	meta := metadata.NewService()
	meta.Register(&fakeLayoutProvider{layouts: layouts})

	storage := objstorage.NewRegistry()
	storage.Register(&fakeStorage{files: files})

	return &Env{
		Meta:                   meta,
		Storage:                storage,
		Index:                  splitindex.NewFactory(splitindex.NewStatsBuilder()),
		Advisor:                advisor,
		SplitOpts:              splitindex.Options{FixedSplitSize: 2},
		IntraWorkerParallelism: parallelism,
		InputStorage:           planir.StorageInfo{Scheme: planir.SchemeLocal},
		IntermediateStorage:    planir.StorageInfo{Scheme: planir.SchemeLocal},
		IntermediateFolder:     "intermediate",
		QueryID:                "q1",
	}
}

func layoutFor(orderedPath string, maxSplitSize, rowGroupsPerBlock int) metadata.Layout {
	return metadata.Layout{
		Version:     1,
		OrderedPath: orderedPath,
		SplitsConfig: metadata.SplitsConfig{
			MaxSplitSize:         maxSplitSize,
			NumRowGroupsPerBlock: rowGroupsPerBlock,
		},
	}
}
