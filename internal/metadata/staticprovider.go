package metadata

import (
	"context"
	"fmt"
)

// StaticProvider is a LayoutProvider backed by a fixed, in-memory table of
// layouts keyed by "schema.table". A real deployment registers a
// CatalogAdapter over a live Hive/Glue/Unity client; StaticProvider exists
// for local development and CLI-driven testing, where the layouts a plan
// references are known upfront from a JSON fixture rather than discovered
// from a catalog.
type StaticProvider struct {
	name    string
	layouts map[string][]Layout
}

// NewStaticProvider wraps a fixed schema.table -> []Layout map as a
// LayoutProvider.
func NewStaticProvider(name string, layouts map[string][]Layout) *StaticProvider {
	if layouts == nil {
		layouts = make(map[string][]Layout)
	}
	return &StaticProvider{name: name, layouts: layouts}
}

// Name implements LayoutProvider.
func (p *StaticProvider) Name() string { return p.name }

// GetLayouts implements LayoutProvider.
func (p *StaticProvider) GetLayouts(ctx context.Context, schema, table string) ([]Layout, error) {
	key := schema + "." + table
	layouts, ok := p.layouts[key]
	if !ok {
		return nil, fmt.Errorf("metadata: no static layout registered for %s", key)
	}
	return layouts, nil
}
