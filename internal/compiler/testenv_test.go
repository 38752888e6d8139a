package compiler

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/joincompiler"
	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

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

type fakeStorage struct {
	files map[string][]string
}

func (s *fakeStorage) Scheme() planir.Scheme { return planir.SchemeLocal }
func (s *fakeStorage) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	return s.files[prefix], nil
}

func newTestEnv(layouts map[string]metadata.Layout, files map[string][]string) *joincompiler.Env {
	meta := metadata.NewService()
	meta.Register(&fakeLayoutProvider{layouts: layouts})

	storage := objstorage.NewRegistry()
	storage.Register(&fakeStorage{files: files})

	return &joincompiler.Env{
		Meta:                   meta,
		Storage:                storage,
		Index:                  splitindex.NewFactory(splitindex.NewStatsBuilder()),
		SplitOpts:              splitindex.Options{FixedSplitSize: 2},
		IntraWorkerParallelism: 4,
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

func testBaseTable(schema, name string, numCols int) *planir.Table {
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
