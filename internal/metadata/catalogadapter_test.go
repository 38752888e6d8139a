package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/canonica-labs/dagplan/internal/catalog"
)

type fakeCatalog struct {
	tables map[string]*catalog.TableMetadata
}

func (f *fakeCatalog) Name() string { return "fake" }
func (f *fakeCatalog) ListDatabases(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeCatalog) ListTables(ctx context.Context, database string) ([]catalog.TableInfo, error) {
	return nil, nil
}
func (f *fakeCatalog) GetTable(ctx context.Context, database, table string) (*catalog.TableMetadata, error) {
	meta, ok := f.tables[database+"."+table]
	if !ok {
		return nil, errors.New("not found")
	}
	return meta, nil
}
func (f *fakeCatalog) CheckConnectivity(ctx context.Context) error { return nil }
func (f *fakeCatalog) Close() error                                { return nil }

func TestCatalogAdapter_Columns(t *testing.T) {
	adapter := NewCatalogAdapter(&fakeCatalog{
		tables: map[string]*catalog.TableMetadata{
			"s.orders": {
				Database: "s",
				Name:     "orders",
				Columns: []catalog.ColumnMetadata{
					{Name: "id"},
					{Name: "amount"},
				},
			},
		},
	})

	cols, err := adapter.Columns(context.Background(), "s", "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0] != "id" || cols[1] != "amount" {
		t.Fatalf("got %v, want [id amount]", cols)
	}
}

func TestCatalogAdapter_Columns_MissingTable(t *testing.T) {
	adapter := NewCatalogAdapter(&fakeCatalog{tables: map[string]*catalog.TableMetadata{}})
	if _, err := adapter.Columns(context.Background(), "s", "missing"); err == nil {
		t.Fatal("expected an error for a table the catalog doesn't have")
	}
}
