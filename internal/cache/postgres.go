package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cache_blobs (
	name TEXT PRIMARY KEY,
	data BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend stores blobs in a shared Postgres table so several hosts
// can share one cache.
type PostgresBackend struct {
	db *pgxpool.Pool
}

// OpenPostgres connects with dsn and ensures the blob table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (p *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT data FROM cache_blobs WHERE name = $1`
	var data []byte
	err := p.db.QueryRow(ctx, query, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache blob: %w", err)
	}
	return data, nil
}

func (p *PostgresBackend) Write(ctx context.Context, name string, data []byte) error {
	const query = `
	INSERT INTO cache_blobs (name, data, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`
	if _, err := p.db.Exec(ctx, query, name, data); err != nil {
		return fmt.Errorf("write cache blob: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Close() error {
	p.db.Close()
	return nil
}
