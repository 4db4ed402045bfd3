package cache

import (
	"context"
	"database/sql"
	stderrors "errors"

	"gocuts/internal/errors"
	"gocuts/ports"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

const schema = `
CREATE TABLE IF NOT EXISTS compute_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLStore persists cache entries in a compute_cache table. It works with
// the sqlite3 and postgres drivers; the caller registers the driver.
type SQLStore struct {
	db     *sqlx.DB
	flight singleflight.Group
}

var _ ports.ComputeCachePort = (*SQLStore)(nil)

// OpenSQLStore connects to dsn with the named driver and ensures the schema.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s cache", driver)
	}
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database and ensures the schema.
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "failed to create compute_cache table")
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, s.db.Rebind(`
		SELECT payload
		FROM compute_cache
		WHERE cache_key = ?
	`), key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.CacheError(key, err)
	}
	return []byte(payload), true, nil
}

func (s *SQLStore) store(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO compute_cache (cache_key, payload)
		VALUES (?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload, created_at = CURRENT_TIMESTAMP
	`), key, string(data))
	if err != nil {
		return errors.CacheError(key, err)
	}
	return nil
}

// GetOrCompute implements ports.ComputeCachePort.
func (s *SQLStore) GetOrCompute(ctx context.Context, key string, compute ports.ComputeFunc) ([]byte, error) {
	res, err, _ := s.flight.Do(key, func() (interface{}, error) {
		data, ok, err := s.load(ctx, key)
		if err != nil {
			observeError(storeSQL)
			return nil, err
		}
		if ok {
			observeHit(storeSQL)
			return data, nil
		}
		observeMiss(storeSQL)
		data, err = compute(ctx)
		if err != nil {
			observeError(storeSQL)
			return nil, err
		}
		if err := s.store(ctx, key, data); err != nil {
			observeError(storeSQL)
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// Invalidate implements ports.ComputeCachePort.
func (s *SQLStore) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM compute_cache WHERE cache_key = ?`), key); err != nil {
		return errors.CacheError(key, err)
	}
	return nil
}
