package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Backend struct {
	db DBTX
}

var _ kvstore.Backend = (*Backend)(nil)

func New(db DBTX) *Backend {
	return &Backend{db: db}
}

const getEntry = `-- name: getEntry
SELECT value FROM kv_entries
WHERE namespace = $1 AND key = $2
`

func (b *Backend) Get(ctx context.Context, namespace string, key string) ([]byte, bool, error) {
	rows, _ := b.db.Query(ctx, getEntry, namespace, key)
	value, err := pgx.CollectOneRow(rows, pgx.RowTo[[]byte])

	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("db error: %w", err)
	}
}

const listEntries = `-- name: listEntries
SELECT key, value FROM kv_entries
WHERE namespace = $1 AND starts_with(key, $2)
ORDER BY key
`

func (b *Backend) List(ctx context.Context, namespace string, prefix string) ([]kvstore.Entry, error) {
	rows, _ := b.db.Query(ctx, listEntries, namespace, prefix)
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[kvstore.Entry])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

const getManyEntries = `-- name: getManyEntries
SELECT key, value FROM kv_entries
WHERE namespace = $1 AND key = ANY($2)
`

func (b *Backend) GetMany(ctx context.Context, namespace string, keys []string) ([]kvstore.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	rows, _ := b.db.Query(ctx, getManyEntries, namespace, keys)
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[kvstore.Entry])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

const putEntry = `-- name: putEntry
INSERT INTO kv_entries (namespace, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now()
`

func (b *Backend) Put(ctx context.Context, namespace string, key string, value []byte) error {
	_, err := b.db.Exec(ctx, putEntry, namespace, key, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const insertEntry = `-- name: insertEntry
INSERT INTO kv_entries (namespace, key, value)
VALUES ($1, $2, $3)
`

// Insert runs in its own (sub)transaction, so a unique violation does not abort the caller's one
func (b *Backend) Insert(ctx context.Context, namespace string, key string, value []byte) (err error) {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, insertEntry, namespace, key, value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return kvstore.ErrKeyExists
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
