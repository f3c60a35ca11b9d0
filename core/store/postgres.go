package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres keeps each document as one JSONB row of the documents table.
// Update holds a row lock for the whole read-modify-write.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool. The schema comes from migrations.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Read returns the document body or nil when no row exists.
func (p *Postgres) Read(ctx context.Context, doc Document) ([]byte, error) {
	var body []byte
	err := p.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE name = $1`, string(doc))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return body, err
}

// Update runs fn inside a transaction holding FOR UPDATE on the document row.
func (p *Postgres) Update(ctx context.Context, doc Document, fn UpdateFunc) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Materialize the row first so the lock below always has a target.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (name, body) VALUES ($1, 'null'::jsonb) ON CONFLICT (name) DO NOTHING`,
		string(doc),
	); err != nil {
		return fmt.Errorf("ensure row: %w", err)
	}

	var current []byte
	if err := tx.GetContext(ctx, &current,
		`SELECT body FROM documents WHERE name = $1 FOR UPDATE`, string(doc),
	); err != nil {
		return fmt.Errorf("lock row: %w", err)
	}
	if string(current) == "null" {
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = $2::jsonb, updated_at = now() WHERE name = $1`,
		string(doc), string(next),
	); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return tx.Commit()
}

// Ping verifies the pool can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
