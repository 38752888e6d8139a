package objstorage

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// KeyScanner is the minimal key-listing operation a Redis-compatible
// store must support; no client library in the example corpus already
// wires a Redis driver, so this backend is expressed directly against the
// narrowest possible interface rather than adopting a new dependency for
// one method (see DESIGN.md).
type KeyScanner interface {
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}

// RedisBackend lists keys under a prefix in a Redis-compatible store,
// reserved for low-latency intermediate metadata.
type RedisBackend struct {
	scanner KeyScanner
}

// NewRedisBackend constructs a RedisBackend over scanner.
func NewRedisBackend(scanner KeyScanner) *RedisBackend {
	return &RedisBackend{scanner: scanner}
}

// Scheme implements Storage.
func (b *RedisBackend) Scheme() planir.Scheme { return planir.SchemeRedis }

// ListPaths implements Storage.
func (b *RedisBackend) ListPaths(ctx context.Context, pathPrefix string) ([]string, error) {
	return b.scanner.ScanKeys(ctx, pathPrefix)
}
