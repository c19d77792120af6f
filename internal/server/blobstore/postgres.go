package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
)

// PostgresStore keeps blobs in the artifact_blobs table.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, key string, content []byte, _ string) error {
	query := `
		INSERT INTO artifact_blobs (storage_key, content)
		VALUES ($1, $2)
		ON CONFLICT (storage_key) DO UPDATE SET content = EXCLUDED.content
	`
	if _, err := s.db.ExecContext(ctx, query, key, content); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT content FROM artifact_blobs WHERE storage_key = $1`

	var content []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return content, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM artifact_blobs WHERE storage_key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
