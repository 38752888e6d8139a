package splitindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists split-index snapshots to a local embedded database
// so a freshly started process can serve the last-known index for a
// table without waiting on a live engine round trip.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (creating if necessary) the index snapshot cache
// at path. Use ":memory:" for tests.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("split index cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS split_index_snapshot (
			schema_name  TEXT NOT NULL,
			table_name   TEXT NOT NULL,
			index_type   INTEGER NOT NULL,
			version      INTEGER NOT NULL,
			default_size INTEGER NOT NULL,
			stats_size   INTEGER NOT NULL,
			max_size     INTEGER NOT NULL,
			PRIMARY KEY (schema_name, table_name)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("split index cache: migrate: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error { return c.db.Close() }

// Load returns the persisted snapshot for (schema, table), or (nil, nil)
// if no snapshot has ever been saved.
func (c *SQLiteCache) Load(ctx context.Context, schema, table string) (*Index, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT index_type, version, default_size, stats_size, max_size
		FROM split_index_snapshot WHERE schema_name = ? AND table_name = ?`, schema, table)

	var idxType IndexType
	idx := &Index{patterns: make(map[string]int)}
	if err := row.Scan(&idxType, &idx.Version, &idx.defaultSize, &idx.statsSize, &idx.MaxSplitSize); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("split index cache: load %s.%s: %w", schema, table, err)
	}
	idx.Type = idxType
	return idx, nil
}

// Save persists idx as the current snapshot for (schema, table),
// replacing any prior snapshot.
func (c *SQLiteCache) Save(ctx context.Context, schema, table string, idx *Index) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO split_index_snapshot
			(schema_name, table_name, index_type, version, default_size, stats_size, max_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (schema_name, table_name) DO UPDATE SET
			index_type = excluded.index_type,
			version = excluded.version,
			default_size = excluded.default_size,
			stats_size = excluded.stats_size,
			max_size = excluded.max_size`,
		schema, table, idx.Type, idx.Version, idx.defaultSize, idx.statsSize, idx.MaxSplitSize)
	if err != nil {
		return fmt.Errorf("split index cache: save %s.%s: %w", schema, table, err)
	}
	return nil
}
