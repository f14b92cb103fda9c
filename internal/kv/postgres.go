package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finx-auth/internal/db"

	"github.com/lib/pq"
)

// Postgres stores values in the kv_store table created by
// db.RunStoreMigration.
type Postgres struct {
	db     *db.DB
	prefix string
}

func NewPostgres(database *db.DB, prefix string) *Postgres {
	return &Postgres{db: database, prefix: prefix}
}

func (p *Postgres) key(k string) string {
	return p.prefix + k
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `
		SELECT value FROM kv_store WHERE key = $1
	`, p.key(key)).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: postgres get: %w", err)
	}
	return value, true, nil
}

const upsertSQL = `
	INSERT INTO kv_store (key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, updated_at = NOW()
`

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.ExecContext(ctx, upsertSQL, p.key(key), value); err != nil {
		return fmt.Errorf("kv: postgres set: %w", err)
	}
	return nil
}

func (p *Postgres) MultiSet(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv: postgres begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for k, v := range values {
		if _, err := tx.ExecContext(ctx, upsertSQL, p.key(k), v); err != nil {
			return fmt.Errorf("kv: postgres multiset: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kv: postgres commit: %w", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	return p.MultiRemove(ctx, key)
}

func (p *Postgres) MultiRemove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = p.key(k)
	}
	if _, err := p.db.ExecContext(ctx, `
		DELETE FROM kv_store WHERE key = ANY($1)
	`, pq.Array(prefixed)); err != nil {
		return fmt.Errorf("kv: postgres delete: %w", err)
	}
	return nil
}
