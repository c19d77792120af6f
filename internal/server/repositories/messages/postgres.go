// Package messages persists the append-only interview ledger.
package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NextSeq returns max(seq)+1 for the session, or 1 for an empty ledger.
// Callers hold the session row lock so the value cannot race.
func (r *PostgresRepository) NextSeq(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COALESCE(MAX(seq), 0) + 1 FROM interview_messages WHERE session_id = $1`

	var seq int
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return seq, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO interview_messages (session_id, seq, role, content, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	var metadata any
	if len(msg.Metadata) > 0 {
		metadata = []byte(msg.Metadata)
	}

	err := r.db.QueryRowContext(ctx, query,
		msg.SessionID, msg.Seq, msg.Role, msg.Content, metadata,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Message, error) {
	query :=
		`SELECT id, session_id, seq, role, content, metadata, created_at
		 FROM interview_messages
		 WHERE session_id = $1
		 ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(metadata) > 0 {
			m.Metadata = metadata
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
