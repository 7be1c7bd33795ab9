package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/pacegrid/internal/domain/pbcache"
)

const memoryDSN = ":memory:"

var _ pbcache.Persister = (*SQLitePBStore)(nil)

// SQLitePBStore persists PB cache entries so a restart does not refetch
// every runner.
type SQLitePBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLitePBStore opens (or creates) the database at path.
func OpenSQLitePBStore(path string) (*SQLitePBStore, error) {
	dsn := path
	if path == memoryDSN {
		dsn = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == memoryDSN {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != memoryDSN {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLitePBStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLitePBStore) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS pb_cache (
		key TEXT PRIMARY KEY,
		value REAL NULL,
		fetched_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLitePBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// LoadEntries returns every stored entry.
func (s *SQLitePBStore) LoadEntries(ctx context.Context) (map[string]pbcache.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value, fetched_at FROM pb_cache`)
	if err != nil {
		return nil, fmt.Errorf("query pb_cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]pbcache.Entry)
	for rows.Next() {
		var (
			key     string
			value   sql.NullFloat64
			fetched int64
		)
		if err := rows.Scan(&key, &value, &fetched); err != nil {
			return nil, fmt.Errorf("scan pb_cache: %w", err)
		}
		e := pbcache.Entry{Timestamp: unixMilli(fetched)}
		if value.Valid {
			v := value.Float64
			e.Value = &v
		}
		out[key] = e
	}
	return out, rows.Err()
}

// PutEntry upserts one entry.
func (s *SQLitePBStore) PutEntry(ctx context.Context, key string, e pbcache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value sql.NullFloat64
	if e.Value != nil {
		value = sql.NullFloat64{Float64: *e.Value, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pb_cache (key, value, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, fetched_at = excluded.fetched_at`,
		key, value, e.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert pb_cache %s: %w", key, err)
	}
	return nil
}

// DeleteEntries removes keys.
func (s *SQLitePBStore) DeleteEntries(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := fmt.Sprintf(`DELETE FROM pb_cache WHERE key IN (%s)`, placeholders) //nolint:gosec // placeholders only
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete pb_cache: %w", err)
	}
	return nil
}

func unixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
