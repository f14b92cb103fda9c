package db

import (
	"context"
	"database/sql"
)

const storeMigration = `
CREATE TABLE IF NOT EXISTS kv_store (
    key text PRIMARY KEY,
    value text NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

func RunStoreMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, storeMigration)
	return err
}
