package splitindex

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet/file"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// FileOpener opens a Parquet file for footer-only reads, abstracting over
// the storage scheme a table's compact path lives on.
type FileOpener interface {
	Open(ctx context.Context, path string) (file.ReaderAtSeeker, error)
}

// ArrowFooterStatsProvider is the COST_BASED fallback used when an engine
// catalog does not already expose row counts: it opens a representative
// Parquet file's footer directly via Arrow's parquet reader and sums
// row-group row counts, without ever reading column data.
type ArrowFooterStatsProvider struct {
	opener       FileOpener
	samplePaths  func(ctx context.Context, schema, table string) ([]string, error)
	rowsPerSplit int64
	fallbackSize int
}

// NewArrowFooterStatsProvider constructs a provider that samples files
// returned by samplePaths (typically the first few files under a table's
// compact path) and opens them via opener.
func NewArrowFooterStatsProvider(opener FileOpener, samplePaths func(ctx context.Context, schema, table string) ([]string, error), rowsPerSplit int64, fallbackSize int) *ArrowFooterStatsProvider {
	if rowsPerSplit <= 0 {
		rowsPerSplit = 1
	}
	return &ArrowFooterStatsProvider{opener: opener, samplePaths: samplePaths, rowsPerSplit: rowsPerSplit, fallbackSize: fallbackSize}
}

// Name implements StatsProvider.
func (p *ArrowFooterStatsProvider) Name() string { return "parquet-footer" }

// EstimateRows implements StatsProvider by summing NumRows() across every
// row group of every sampled file's footer.
func (p *ArrowFooterStatsProvider) EstimateRows(ctx context.Context, schema, table string) (int64, error) {
	paths, err := p.samplePaths(ctx, schema, table)
	if err != nil {
		return 0, fmt.Errorf("arrow footer stats: listing sample files: %w", err)
	}

	var total int64
	for _, path := range paths {
		rows, err := p.footerRowCount(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("arrow footer stats: %s: %w", path, err)
		}
		total += rows
	}
	return total, nil
}

func (p *ArrowFooterStatsProvider) footerRowCount(ctx context.Context, path string) (int64, error) {
	reader, err := p.opener.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	pf, err := file.NewParquetReader(reader)
	if err != nil {
		return 0, err
	}
	defer pf.Close()

	var total int64
	for i := 0; i < pf.NumRowGroups(); i++ {
		total += pf.RowGroup(i).NumRows()
	}
	return total, nil
}

// EstimateSplitSize implements StatsProvider.
func (p *ArrowFooterStatsProvider) EstimateSplitSize(ctx context.Context, schema, table string, columns []planir.ColumnID) (int, error) {
	rows, err := p.EstimateRows(ctx, schema, table)
	if err != nil {
		return 0, err
	}
	if rows <= 0 {
		return p.fallbackSize, nil
	}
	size := rows / p.rowsPerSplit
	if size < 1 {
		size = 1
	}
	return int(size), nil
}
