// Package metadata provides the metadata service external interface (§6):
// getLayouts(schema, table) -> []Layout. It is backed by a registry of
// LayoutProviders, adapted directly from the existing internal/catalog
// Catalog/CatalogRegistry pair — CatalogAdapter turns any Catalog into a
// LayoutProvider by translating its TableMetadata into the split-sizing
// algorithm's Layout shape.
package metadata

import (
	"context"
	"encoding/json"

	"github.com/canonica-labs/dagplan/internal/catalog"
	"github.com/canonica-labs/dagplan/internal/errors"
)

// SplitsConfig is the serialized splits configuration carried by a Layout,
// per §6.
type SplitsConfig struct {
	NumRowGroupsPerBlock int `json:"numRowGroupsPerBlock"`
	MaxSplitSize         int `json:"maxSplitSize"`
}

// Layout describes one physical arrangement of a table's data as of a
// given catalog version (§6, §4.2).
type Layout struct {
	Version       int64             `json:"version"`
	Format        catalog.TableFormat `json:"format"`
	OrderedPath   string            `json:"orderedPath"`
	CompactPath   string            `json:"compactPath"`
	SplitsConfig  SplitsConfig      `json:"splitsConfig"`
	Projections   json.RawMessage   `json:"projections,omitempty"`
}

// LayoutProvider resolves layouts for tables it owns. The implementations
// in this package are CatalogAdapter, which wraps an internal/catalog
// client (hive, glue, unity), and StaticProvider.
type LayoutProvider interface {
	Name() string
	GetLayouts(ctx context.Context, schema, table string) ([]Layout, error)
}

// Service is the metadata service external interface consumed by
// internal/splitindex.
type Service struct {
	providers map[string]LayoutProvider
	// schemaCatalog maps a schema name to the provider name that owns it,
	// as set by BindSchema; no configuration key populates it.
	schemaCatalog map[string]string
	defaultName   string
}

// NewService constructs an empty metadata service.
func NewService() *Service {
	return &Service{
		providers:     make(map[string]LayoutProvider),
		schemaCatalog: make(map[string]string),
	}
}

// Register adds a LayoutProvider. The first provider registered becomes
// the default used when no schema-to-catalog binding exists.
func (s *Service) Register(p LayoutProvider) {
	s.providers[p.Name()] = p
	if s.defaultName == "" {
		s.defaultName = p.Name()
	}
}

// BindSchema designates which provider owns a given schema.
func (s *Service) BindSchema(schema, providerName string) {
	s.schemaCatalog[schema] = providerName
}

// GetLayouts implements the metadata-service interface consumed by
// internal/splitindex's split-sizing algorithm.
func (s *Service) GetLayouts(ctx context.Context, schema, table string) ([]Layout, error) {
	name := s.schemaCatalog[schema]
	if name == "" {
		name = s.defaultName
	}
	provider, ok := s.providers[name]
	if !ok {
		return nil, errors.NewMetadataUnavailable(schema, table, errNoProvider(name))
	}
	layouts, err := provider.GetLayouts(ctx, schema, table)
	if err != nil {
		return nil, errors.NewMetadataUnavailable(schema, table, err)
	}
	return layouts, nil
}

type noProviderError string

func (e noProviderError) Error() string { return "no metadata catalog registered: " + string(e) }

func errNoProvider(name string) error { return noProviderError(name) }
