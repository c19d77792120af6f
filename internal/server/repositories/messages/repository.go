package messages

import (
	"context"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type Repository interface {
	NextSeq(ctx context.Context, sessionID string) (int, error)
	Insert(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.Message, error)
}
