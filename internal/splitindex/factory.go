package splitindex

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/canonica-labs/dagplan/internal/errors"
)

// Builder constructs a fresh Index for one (schema, table) from a
// StatsProvider, used by Factory on cache miss or explicit invalidation.
type Builder interface {
	Build(ctx context.Context, schema, table string, indexType IndexType, maxSplitSize int, stats StatsProvider) (*Index, error)
}

type tableKey struct {
	schema string
	table  string
}

// Factory is the index factory external interface (§6): lookup an index
// for (schema, table), rebuilding on a miss, when a different index type
// is requested, or after Invalidate. Reads of an
// already-cached index never block: each key's current Index is held in
// an atomic.Pointer, and rebuilds are serialized per key by a dedicated
// mutex so concurrent compilers for the same table coalesce onto one
// rebuild instead of racing duplicate work, while compilers for other
// tables are never blocked by it.
type Factory struct {
	builder Builder
	persist *SQLiteCache

	mu         sync.Mutex
	snapshots  map[tableKey]*atomic.Pointer[Index]
	rebuildMus map[tableKey]*sync.Mutex
}

// NewFactory constructs a Factory that builds indices via builder.
func NewFactory(builder Builder) *Factory {
	return &Factory{
		builder:    builder,
		snapshots:  make(map[tableKey]*atomic.Pointer[Index]),
		rebuildMus: make(map[tableKey]*sync.Mutex),
	}
}

// WithPersistence attaches a SQLiteCache that Lookup consults before
// calling the Builder, and updates after every successful build, so a
// warm-started process can serve the last snapshot immediately.
func (f *Factory) WithPersistence(cache *SQLiteCache) *Factory {
	f.persist = cache
	return f
}

func (f *Factory) slot(key tableKey) (*atomic.Pointer[Index], *sync.Mutex) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ptr, ok := f.snapshots[key]
	if !ok {
		ptr = new(atomic.Pointer[Index])
		f.snapshots[key] = ptr
	}
	rebuildMu, ok := f.rebuildMus[key]
	if !ok {
		rebuildMu = &sync.Mutex{}
		f.rebuildMus[key] = rebuildMu
	}
	return ptr, rebuildMu
}

// Lookup returns the cached index for (schema, table) if present, else
// builds one via the configured Builder and caches it. Concurrent lookups
// for the same table and index type wait on the key's rebuild mutex while
// a rebuild is in flight and then return the rebuilt index; a lookup whose
// type matches the stored snapshot returns it without waiting.
func (f *Factory) Lookup(ctx context.Context, schema, table string, indexType IndexType, maxSplitSize int, stats StatsProvider) (*Index, error) {
	key := tableKey{schema: schema, table: table}
	ptr, rebuildMu := f.slot(key)

	if idx := ptr.Load(); idx != nil && idx.Type == indexType {
		return idx, nil
	}

	rebuildMu.Lock()
	defer rebuildMu.Unlock()
	// Re-check: another goroutine may have finished the rebuild while we
	// waited for the lock.
	if idx := ptr.Load(); idx != nil && idx.Type == indexType {
		return idx, nil
	}

	if f.persist != nil {
		if cached, err := f.persist.Load(ctx, schema, table); err == nil && cached != nil && cached.Type == indexType {
			cached.MaxSplitSize = maxSplitSize
			ptr.Store(cached)
			return cached, nil
		}
	}

	idx, err := f.builder.Build(ctx, schema, table, indexType, maxSplitSize, stats)
	if err != nil {
		return nil, errors.NewMetadataUnavailable(schema, table, err)
	}
	ptr.Store(idx)
	if f.persist != nil {
		_ = f.persist.Save(ctx, schema, table, idx)
	}
	return idx, nil
}

// Invalidate drops the cached index for (schema, table), forcing the next
// Lookup to rebuild.
func (f *Factory) Invalidate(schema, table string) {
	key := tableKey{schema: schema, table: table}
	f.mu.Lock()
	ptr, ok := f.snapshots[key]
	f.mu.Unlock()
	if ok {
		ptr.Store(nil)
	}
}
