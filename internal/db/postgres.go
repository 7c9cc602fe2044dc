package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

// Migrate creates the history table when it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	schema := `
        CREATE TABLE IF NOT EXISTS alt_text_generations (
            id BIGSERIAL PRIMARY KEY,
            user_id TEXT NOT NULL,
            image_url TEXT NOT NULL,
            alt_text TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_alt_text_generations_user
            ON alt_text_generations (user_id, created_at DESC);
    `

	_, err := db.Pool.Exec(ctx, schema)
	return err
}

func (db *DB) Close() {
	db.Pool.Close()
}
