package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
)

// Backend stores entries in the kv_entries table of a sqlite database (modernc.org/sqlite driver)
type Backend struct {
	db *sql.DB
}

var _ kvstore.Backend = (*Backend)(nil)

func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

const getEntry = `
SELECT value FROM kv_entries
WHERE namespace = ? AND key = ?
`

func (b *Backend) Get(ctx context.Context, namespace string, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, getEntry, namespace, key).Scan(&value)

	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("db error: %w", err)
	}
}

// substr comparison keeps prefix literal, LIKE would treat % and _ as wildcards
const listEntries = `
SELECT key, value FROM kv_entries
WHERE namespace = ? AND substr(key, 1, length(?)) = ?
ORDER BY key
`

func (b *Backend) List(ctx context.Context, namespace string, prefix string) ([]kvstore.Entry, error) {
	rows, err := b.db.QueryContext(ctx, listEntries, namespace, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return collectEntries(rows)
}

func (b *Backend) GetMany(ctx context.Context, namespace string, keys []string) ([]kvstore.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	query := "SELECT key, value FROM kv_entries WHERE namespace = ? AND key IN (?" + strings.Repeat(", ?", len(keys)-1) + ")"
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return collectEntries(rows)
}

const putEntry = `
INSERT INTO kv_entries (namespace, key, value)
VALUES (?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE
SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

func (b *Backend) Put(ctx context.Context, namespace string, key string, value []byte) error {
	if _, err := b.db.ExecContext(ctx, putEntry, namespace, key, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const insertEntry = `
INSERT INTO kv_entries (namespace, key, value)
VALUES (?, ?, ?)
ON CONFLICT (namespace, key) DO NOTHING
`

func (b *Backend) Insert(ctx context.Context, namespace string, key string, value []byte) error {
	res, err := b.db.ExecContext(ctx, insertEntry, namespace, key, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return kvstore.ErrKeyExists
	}

	return nil
}

func collectEntries(rows *sql.Rows) ([]kvstore.Entry, error) {
	defer rows.Close() // nolint:errcheck

	var entries []kvstore.Entry
	for rows.Next() {
		var e kvstore.Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
