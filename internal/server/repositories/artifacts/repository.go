package artifacts

import (
	"context"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Artifact) (*models.Artifact, error)
	GetBySession(ctx context.Context, sessionID string, userID string) (*models.Artifact, error)
	GetByID(ctx context.Context, id string, userID string) (*models.Artifact, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Artifact, error)
	Replace(ctx context.Context, a *models.Artifact) (*models.Artifact, error)
	Delete(ctx context.Context, id string, userID string) (*models.Artifact, error)
}
