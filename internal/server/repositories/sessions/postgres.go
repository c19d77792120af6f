// Package sessions persists interview sessions.
package sessions

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

const sessionColumns = `id, user_id, status, language, progress, message_count, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	s := &models.Session{}
	var completedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.Language, &s.Progress,
		&s.MessageCount, &s.CreatedAt, &s.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return s, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, language models.Language) (*models.Session, error) {
	query :=
		`INSERT INTO interview_sessions (user_id, status, language)
		 VALUES ($1, $2, $3)
		 RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRowContext(ctx, query, userID, models.SessionInProgress, language))
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id string, userID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// GetForUpdate locks the session row until the surrounding transaction ends.
// It must be called with a *sql.Tx.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string, userID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// filterClause appends the optional status predicate. Placeholders start
// after the ones already in args.
func filterClause(filter models.SessionFilter, args []any) (string, []any) {
	if filter.Status == "" {
		return "", args
	}
	args = append(args, filter.Status)
	return fmt.Sprintf(" AND status = $%d", len(args)), args
}

func (r *PostgresRepository) Count(ctx context.Context, userID string, filter models.SessionFilter) (int, error) {
	where, args := filterClause(filter, []any{userID})
	query := `SELECT COUNT(*) FROM interview_sessions WHERE user_id = $1` + where

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, filter models.SessionFilter, limit, offset int) ([]*models.Session, error) {
	where, args := filterClause(filter, []any{userID})
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM interview_sessions WHERE user_id = $1%s
		 ORDER BY created_at DESC, id ASC
		 LIMIT $%d OFFSET $%d`,
		sessionColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the session; messages and artifact go with it via cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string, userID string) error {
	query := `DELETE FROM interview_sessions WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// MarkCompleted flips an IN_PROGRESS session to COMPLETED. A session that is
// already completed yields common.ErrAlreadyCompleted.
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string, userID string) (*models.Session, error) {
	query :=
		`UPDATE interview_sessions
		 SET status = $3, progress = 100, completed_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND status = $4
		 RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID,
		models.SessionCompleted, models.SessionInProgress))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrAlreadyCompleted
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) UpdateActivity(ctx context.Context, id string, messageCount, progress int) (*models.Session, error) {
	query :=
		`UPDATE interview_sessions
		 SET message_count = $2, progress = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, messageCount, progress))
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}
