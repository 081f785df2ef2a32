package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// notifyPayload is the body of a pg_notify message emitted on every Put.
// Origin identifies the writing process so its own listener bridge can skip
// the notification: the writer already published on its local bus.
type notifyPayload struct {
	Origin string `json:"origin"`
	Path   string `json:"path"`
}

// PostgresStore keeps one JSONB row per path in kv_entries. The row key is
// the path prefixed with a fixed namespace string, reproducing the flat
// one-blob-per-path layout of the stored data format.
type PostgresStore struct {
	db        *sql.DB
	namespace string
	channel   string
	origin    string
}

func NewPostgresStore(db *sql.DB, namespace, channel, origin string) *PostgresStore {
	return &PostgresStore{
		db:        db,
		namespace: namespace,
		channel:   channel,
		origin:    origin,
	}
}

func (p *PostgresStore) key(path string) string {
	return p.namespace + path
}

func (p *PostgresStore) Get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1`

	var value json.RawMessage
	err := p.db.QueryRowContext(ctx, query, p.key(path)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read value at %q: %w", path, err)
	}
	return value, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, path string, value json.RawMessage) error {
	const upsert = `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`

	payload, err := json.Marshal(notifyPayload{Origin: p.origin, Path: path})
	if err != nil {
		return fmt.Errorf("%w: notify payload for %q: %w", ErrSerialization, path, err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write at %q: %w", path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsert, p.key(path), value); err != nil {
		return fmt.Errorf("failed to write value at %q: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, p.channel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify write at %q: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit write at %q: %w", path, err)
	}
	return nil
}
