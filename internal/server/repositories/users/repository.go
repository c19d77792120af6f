// Package users declares and implements the credential store: user
// identities, bcrypt hashes and profile fields.
package users

import (
	"context"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and timestamps. A username or
	// case-insensitive email collision yields common.ErrDuplicateIdentity.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// UpdateProfile applies the non-nil fields of upd.
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
}
