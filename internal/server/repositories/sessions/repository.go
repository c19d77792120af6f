package sessions

import (
	"context"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

// Repository is the SessionStore persistence contract. Every lookup is
// scoped by user id so a foreign session is indistinguishable from a
// missing one.
type Repository interface {
	Create(ctx context.Context, userID string, language models.Language) (*models.Session, error)
	GetForUser(ctx context.Context, id string, userID string) (*models.Session, error)
	GetForUpdate(ctx context.Context, id string, userID string) (*models.Session, error)
	Count(ctx context.Context, userID string, filter models.SessionFilter) (int, error)
	List(ctx context.Context, userID string, filter models.SessionFilter, limit, offset int) ([]*models.Session, error)
	Delete(ctx context.Context, id string, userID string) error
	MarkCompleted(ctx context.Context, id string, userID string) (*models.Session, error)
	UpdateActivity(ctx context.Context, id string, messageCount, progress int) (*models.Session, error)
}
