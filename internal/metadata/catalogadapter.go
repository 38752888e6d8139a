package metadata

import (
	"context"
	"strconv"

	"github.com/canonica-labs/dagplan/internal/catalog"
	"github.com/canonica-labs/dagplan/internal/errors"
)

// CatalogAdapter adapts any internal/catalog.Catalog (hive, glue, unity)
// into a LayoutProvider by translating TableMetadata into a single-version
// Layout. Real catalogs do not version layouts the way the compiler's
// source system does; CatalogAdapter synthesizes version 1 and treats the
// table's Location as both the ordered and compact path, deferring to the
// table's Properties for any split-sizing override the catalog happens to
// carry (e.g. a `canonic.max_split_size` or `canonic.row_groups_per_block`
// table property).
type CatalogAdapter struct {
	Catalog catalog.Catalog
}

// NewCatalogAdapter wraps a Catalog as a LayoutProvider.
func NewCatalogAdapter(c catalog.Catalog) *CatalogAdapter {
	return &CatalogAdapter{Catalog: c}
}

// Name implements LayoutProvider.
func (a *CatalogAdapter) Name() string { return a.Catalog.Name() }

// GetLayouts implements LayoutProvider.
func (a *CatalogAdapter) GetLayouts(ctx context.Context, schema, table string) ([]Layout, error) {
	meta, err := a.Catalog.GetTable(ctx, schema, table)
	if err != nil {
		return nil, errors.NewMetadataUnavailable(schema, table, err)
	}

	splits := SplitsConfig{NumRowGroupsPerBlock: 1024, MaxSplitSize: 256}
	if v, ok := meta.Properties["canonic.max_split_size"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			splits.MaxSplitSize = n
		}
	}
	if v, ok := meta.Properties["canonic.row_groups_per_block"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			splits.NumRowGroupsPerBlock = n
		}
	}

	return []Layout{{
		Version:      1,
		Format:       meta.Format,
		OrderedPath:  meta.Location,
		CompactPath:  meta.Location,
		SplitsConfig: splits,
	}}, nil
}

// Columns looks up the catalog's column list for schema.table, in the flat
// []string shape planir.NewBaseTable requires, so a Base table can be built
// straight from catalog metadata instead of a hand-typed --columns flag.
func (a *CatalogAdapter) Columns(ctx context.Context, schema, table string) ([]string, error) {
	meta, err := a.Catalog.GetTable(ctx, schema, table)
	if err != nil {
		return nil, errors.NewMetadataUnavailable(schema, table, err)
	}
	return meta.ColumnNames(), nil
}
