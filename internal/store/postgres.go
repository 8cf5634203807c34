package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectDocumentSQL = `SELECT data FROM documents WHERE collection = $1 AND doc_key = $2`
	upsertDocumentSQL = `INSERT INTO documents (collection, doc_key, data, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, doc_key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
)

// pgxQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// PostgresStore keeps documents in a JSONB column of the documents table
// (see db/migrations).
type PostgresStore struct {
	db pgxQuerier
}

var _ DocumentStore = (*PostgresStore)(nil)

func NewPostgresStore(db pgxQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string) (Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, selectDocumentSQL, collection, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select document %s/%s: %w", collection, key, err)
	}
	return Snapshot{Exists: true, Data: data}, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, key string, data []byte) error {
	if !validObject(data) {
		return ErrInvalidDocument
	}
	if _, err := s.db.Exec(ctx, upsertDocumentSQL, collection, key, string(data)); err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close is a no-op; the pool is owned by the app.
func (s *PostgresStore) Close(context.Context) error { return nil }
