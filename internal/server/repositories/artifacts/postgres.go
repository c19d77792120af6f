// Package artifacts stores resume artifact descriptors. At most one artifact
// exists per session.
package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const artifactColumns = `id, session_id, user_id, storage_key, mime_type, filename, size_bytes, checksum,
	template, format, language, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	a := &models.Artifact{}
	err := row.Scan(&a.ID, &a.SessionID, &a.UserID, &a.StorageKey, &a.MIMEType, &a.Filename,
		&a.SizeBytes, &a.Checksum, &a.Template, &a.Format, &a.Language, &a.Version,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if dbx.IsUniqueViolation(err, "resume_artifacts_session_key") {
		return common.ErrAlreadyCompleted
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Artifact) (*models.Artifact, error) {
	query :=
		`INSERT INTO resume_artifacts
		   (session_id, user_id, storage_key, mime_type, filename, size_bytes, checksum, template, format, language)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING ` + artifactColumns

	out, err := scanArtifact(r.db.QueryRowContext(ctx, query,
		a.SessionID, a.UserID, a.StorageKey, a.MIMEType, a.Filename,
		a.SizeBytes, a.Checksum, a.Template, a.Format, a.Language))
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *PostgresRepository) GetBySession(ctx context.Context, sessionID string, userID string) (*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM resume_artifacts WHERE session_id = $1 AND user_id = $2`

	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// Replace points the session's artifact at new content and bumps its version.
func (r *PostgresRepository) Replace(ctx context.Context, a *models.Artifact) (*models.Artifact, error) {
	query :=
		`UPDATE resume_artifacts SET
		   storage_key = $3,
		   mime_type   = $4,
		   filename    = $5,
		   size_bytes  = $6,
		   checksum    = $7,
		   template    = $8,
		   format      = $9,
		   language    = $10,
		   version     = version + 1,
		   updated_at  = now()
		 WHERE session_id = $1 AND user_id = $2
		 RETURNING ` + artifactColumns

	out, err := scanArtifact(r.db.QueryRowContext(ctx, query,
		a.SessionID, a.UserID, a.StorageKey, a.MIMEType, a.Filename,
		a.SizeBytes, a.Checksum, a.Template, a.Format, a.Language))
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string, userID string) (*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM resume_artifacts WHERE id = $1 AND user_id = $2`

	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM resume_artifacts WHERE user_id = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListByUser returns the user's artifacts, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Artifact, error) {
	query :=
		`SELECT ` + artifactColumns + ` FROM resume_artifacts WHERE user_id = $1
		 ORDER BY created_at DESC, id ASC
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Artifact, 0)
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the artifact row and returns it so the caller can drop
// the blob. The session is left as it is.
func (r *PostgresRepository) Delete(ctx context.Context, id string, userID string) (*models.Artifact, error) {
	query := `DELETE FROM resume_artifacts WHERE id = $1 AND user_id = $2 RETURNING ` + artifactColumns

	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}
