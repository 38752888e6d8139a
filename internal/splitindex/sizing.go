package splitindex

import (
	"context"
	"sort"

	"github.com/canonica-labs/dagplan/internal/metadata"
	"github.com/canonica-labs/dagplan/internal/objstorage"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// Options configures one invocation of BuildInputSplits (§4.2).
type Options struct {
	// FixedSplitSize, if > 0, is used directly and the split index is
	// never consulted (the fixed.split.size configuration key).
	FixedSplitSize int

	// IndexType selects INVERTED vs COST_BASED when FixedSplitSize is 0.
	IndexType IndexType

	// ProjectionReadEnabled gates step 2's projection-index substitution.
	ProjectionReadEnabled bool

	// Selectivity is the table's estimated selectivity in [0, 1], or a
	// negative value to skip the adjustment in step 1.c entirely.
	Selectivity float64
}

// BuildInputSplits implements §4.2's split-sizing algorithm: it returns an
// ordered list of InputSplits for the columns a scan actually reads,
// drawn from every layout version the metadata service reports for
// (schema, table), in encountered order.
func BuildInputSplits(
	ctx context.Context,
	meta *metadata.Service,
	storage *objstorage.Registry,
	index *Factory,
	stats StatsProvider,
	schema, table string,
	info planir.StorageInfo,
	columns []planir.ColumnID,
	opts Options,
) ([]planir.InputSplit, error) {
	layouts, err := meta.GetLayouts(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	var all []planir.InputSplit
	for _, layout := range layouts {
		splitSize, err := resolveSplitSize(ctx, index, stats, schema, table, layout, columns, opts)
		if err != nil {
			return nil, err
		}

		orderedPath := layout.OrderedPath
		compactPath := layout.CompactPath

		if opts.ProjectionReadEnabled {
			projIdx, err := DecodeProjections(layout)
			if err != nil {
				return nil, err
			}
			if path, ok := projIdx.Lookup(columns); ok {
				compactPath = path
			}
		}

		orderedSplits, err := emitOrderedSplits(ctx, storage, info, orderedPath, splitSize)
		if err != nil {
			return nil, err
		}
		all = append(all, orderedSplits...)

		compactSplits, err := emitCompactSplits(ctx, storage, info, compactPath, splitSize, layout.SplitsConfig.NumRowGroupsPerBlock)
		if err != nil {
			return nil, err
		}
		all = append(all, compactSplits...)
	}
	return all, nil
}

// resolveSplitSize implements §4.2 step 1: fixed size, or index lookup,
// then selectivity adjustment.
func resolveSplitSize(
	ctx context.Context,
	index *Factory,
	stats StatsProvider,
	schema, table string,
	layout metadata.Layout,
	columns []planir.ColumnID,
	opts Options,
) (int, error) {
	var size int
	if opts.FixedSplitSize > 0 {
		size = opts.FixedSplitSize
	} else {
		idx, err := index.Lookup(ctx, schema, table, opts.IndexType, layout.SplitsConfig.MaxSplitSize, stats)
		if err != nil {
			return 0, err
		}
		size = idx.SplitSize(columns)
		size = adjustForSelectivity(size, opts.Selectivity, layout.SplitsConfig.MaxSplitSize)
	}
	if size < 1 {
		size = 1
	}
	return size, nil
}

// adjustForSelectivity implements §4.2 step 1.c.
func adjustForSelectivity(size int, selectivity float64, maxSplitSize int) int {
	if selectivity < 0 {
		return size
	}
	switch {
	case selectivity < 0.25:
		size *= 4
	case selectivity < 0.5:
		size *= 2
	}
	if maxSplitSize > 0 && size > maxSplitSize {
		size = maxSplitSize
	}
	return size
}

// emitOrderedSplits implements §4.2 step 3's ordered-path emission: files
// are chunked in groups of splitSize, each chunk becoming one InputSplit
// of single-file, whole-file InputInfos.
func emitOrderedSplits(ctx context.Context, storage *objstorage.Registry, info planir.StorageInfo, path string, splitSize int) ([]planir.InputSplit, error) {
	if path == "" {
		return nil, nil
	}
	files, err := listSortedFiles(ctx, storage, info, path)
	if err != nil {
		return nil, err
	}

	var splits []planir.InputSplit
	for i := 0; i < len(files); i += splitSize {
		end := i + splitSize
		if end > len(files) {
			end = len(files)
		}
		var infos []planir.InputInfo
		for _, f := range files[i:end] {
			infos = append(infos, planir.InputInfo{Path: f, StartRowGroupIndex: 0, RowGroupCount: -1})
		}
		splits = append(splits, planir.InputSplit{Infos: infos})
	}
	return splits, nil
}

// emitCompactSplits implements §4.2 step 3's compact-path emission: for
// each file, row-group indices 0, splitSize, 2*splitSize, ... strictly
// less than numRowGroupsPerBlock each start their own single-InputInfo
// split.
func emitCompactSplits(ctx context.Context, storage *objstorage.Registry, info planir.StorageInfo, path string, splitSize, numRowGroupsPerBlock int) ([]planir.InputSplit, error) {
	if path == "" {
		return nil, nil
	}
	files, err := listSortedFiles(ctx, storage, info, path)
	if err != nil {
		return nil, err
	}

	var splits []planir.InputSplit
	for _, f := range files {
		for start := 0; start < numRowGroupsPerBlock; start += splitSize {
			splits = append(splits, planir.InputSplit{
				Infos: []planir.InputInfo{{
					Path:               f,
					StartRowGroupIndex: start,
					RowGroupCount:      splitSize,
				}},
			})
		}
	}
	return splits, nil
}

func listSortedFiles(ctx context.Context, storage *objstorage.Registry, info planir.StorageInfo, prefix string) ([]string, error) {
	files, err := storage.ListPaths(ctx, info, prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
