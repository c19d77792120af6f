package revokedtokens

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, tokenID string, userID string, expiresAt time.Time) (bool, error)
	Exists(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
