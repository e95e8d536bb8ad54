package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_state (
    key        text PRIMARY KEY,
    value      jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);
`

// PostgresStore is a DurableStore backed by a single key/value table,
// for deployments where several service instances share state.
type PostgresStore struct {
	pool         *pgxpool.Pool
	pollInterval time.Duration
}

// NewPostgresStore ensures the backing table exists and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("storage: pool is required")
	}
	if _, err := pool.Exec(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("storage: ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool, pollInterval: 2 * time.Second}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.pool.QueryRow(ctx, `SELECT value FROM kv_state WHERE key = $1`, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO kv_state (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	if err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM kv_state WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("storage: keys: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Watch polls updated_at under prefix and emits an event per changed key.
// Polling keeps the store usable on managed databases where LISTEN
// connections are rationed.
func (s *PostgresStore) Watch(ctx context.Context, prefix string) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Seed the cursor from the database clock: updated_at comes from the
	// server-side now(), which may be skewed from this host.
	var since time.Time
	if err := s.pool.QueryRow(ctx, `SELECT now()`).Scan(&since); err != nil {
		return nil, fmt.Errorf("storage: seed watch cursor: %w", err)
	}
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			rows, err := s.pool.Query(ctx, `SELECT key, updated_at FROM kv_state WHERE key LIKE $1 || '%' AND updated_at > $2 ORDER BY updated_at`, prefix, since)
			if err != nil {
				continue
			}
			for rows.Next() {
				var key string
				var updatedAt time.Time
				if err := rows.Scan(&key, &updatedAt); err != nil {
					break
				}
				if updatedAt.After(since) {
					since = updatedAt
				}
				select {
				case ch <- Event{Key: key}:
				case <-ctx.Done():
					rows.Close()
					return
				}
			}
			rows.Close()
		}
	}()
	return ch, nil
}

var _ DurableStore = (*PostgresStore)(nil)
