// Package objstorage provides the storage abstraction external interface
// (§6): listPaths(pathPrefix) -> []string over a Scheme enumeration of
// {S3, MINIO, REDIS, LOCAL}. Concrete backends are thin, stateless, and
// replaceable, following the same shape as internal/catalog.Catalog: a
// small context-first interface with one real backend per distinct
// transport.
package objstorage

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/errors"
	"github.com/canonica-labs/dagplan/internal/planir"
)

// Storage is the storage abstraction consumed by internal/splitindex's
// split-sizing algorithm.
type Storage interface {
	// ListPaths lists object keys under pathPrefix.
	ListPaths(ctx context.Context, pathPrefix string) ([]string, error)

	// Scheme returns the scheme this backend serves.
	Scheme() planir.Scheme
}

// Registry dispatches to a backend by scheme, mirroring
// internal/catalog.CatalogRegistry and internal/adapters.AdapterRegistry.
type Registry struct {
	backends map[planir.Scheme]Storage
}

// NewRegistry constructs an empty storage registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[planir.Scheme]Storage)}
}

// Register adds a backend under its own scheme.
func (r *Registry) Register(s Storage) {
	r.backends[s.Scheme()] = s
}

// ListPaths dispatches to the backend registered for info.Scheme.
func (r *Registry) ListPaths(ctx context.Context, info planir.StorageInfo, pathPrefix string) ([]string, error) {
	backend, ok := r.backends[info.Scheme]
	if !ok {
		return nil, errors.NewStorageUnavailable(pathPrefix, unregisteredSchemeError(info.Scheme))
	}
	paths, err := backend.ListPaths(ctx, pathPrefix)
	if err != nil {
		return nil, errors.NewStorageUnavailable(pathPrefix, err)
	}
	return paths, nil
}

type unregisteredSchemeError planir.Scheme

func (e unregisteredSchemeError) Error() string {
	return "no storage backend registered for scheme " + string(e)
}
