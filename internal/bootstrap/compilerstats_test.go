package bootstrap

import (
	"context"
	"testing"

	"github.com/canonica-labs/dagplan/internal/adapters"
	"github.com/canonica-labs/dagplan/internal/capabilities"
	"github.com/canonica-labs/dagplan/internal/planner"
)

type fakeEngineAdapter struct {
	name string
}

func (f *fakeEngineAdapter) Name() string                           { return f.name }
func (f *fakeEngineAdapter) Capabilities() []capabilities.Capability { return nil }
func (f *fakeEngineAdapter) Execute(ctx context.Context, plan *planner.ExecutionPlan) (*adapters.QueryResult, error) {
	return &adapters.QueryResult{RowCount: 1, Rows: [][]interface{}{{int64(1000)}}}, nil
}
func (f *fakeEngineAdapter) Ping(ctx context.Context) error        { return nil }
func (f *fakeEngineAdapter) CheckHealth(ctx context.Context) error { return nil }
func (f *fakeEngineAdapter) Close() error                          { return nil }

func TestTableEnginesFromConfig(t *testing.T) {
	cfg := &Config{
		Tables: map[string]TableConfig{
			"sales.orders":   {Sources: []SourceConfig{{Engine: "trino"}}},
			"sales.returns":  {Sources: []SourceConfig{{Engine: ""}}},
			"sales.inventory": {},
		},
	}
	engines := TableEnginesFromConfig(cfg)
	if engines["sales.orders"] != "trino" {
		t.Fatalf("got %q, want trino", engines["sales.orders"])
	}
	if _, ok := engines["sales.returns"]; ok {
		t.Fatal("expected a table with an empty engine to be skipped")
	}
	if _, ok := engines["sales.inventory"]; ok {
		t.Fatal("expected a table with no sources to be skipped")
	}
}

func TestNewCompilerStatsLookup(t *testing.T) {
	registry := adapters.NewAdapterRegistry()
	registry.Register(&fakeEngineAdapter{name: "trino"})

	engines := TableEngines{"sales.orders": "trino"}
	lookup := NewCompilerStatsLookup(engines, registry, 100, 64)

	provider := lookup("sales", "orders")
	if provider == nil {
		t.Fatal("expected a stats provider for a configured table")
	}
	size, err := provider.EstimateSplitSize(context.Background(), "sales", "orders", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 10 {
		t.Fatalf("got split size %d, want 10 (1000 rows / 100 rows-per-split)", size)
	}

	if lookup("sales", "unconfigured") != nil {
		t.Fatal("expected nil for a table with no configured engine")
	}
	if lookup("other", "orders") != nil {
		t.Fatal("expected nil for a table whose schema.table doesn't match the engines map")
	}
}
