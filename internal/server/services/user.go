// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, token refresh and
// revocation, and the user's own profile.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/auth"
	"github.com/dmitrijs2005/neuroresume/internal/server/config"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Location  string
}

// AuthResult is what register and login hand back to the caller.
type AuthResult struct {
	Token *auth.IssuedToken
	User  *models.User
}

// UserService provides authentication and account operations. Tokens are
// stateless HS256 JWTs; logout and refresh put the token id on a denylist
// that Authenticate consults.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// TokenValidity is the lifetime of issued access tokens.
func (s *UserService) TokenValidity() time.Duration {
	return s.accessTokenValidityDuration
}

func checkPasswordLength(field, password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return common.NewValidationError(field, fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// Register creates a user and returns it together with a fresh token.
// A taken username or email yields common.ErrDuplicateIdentity.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := checkPasswordLength("password", in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserName:     in.Username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Location:     in.Location,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Login verifies credentials. Unknown users and wrong passwords both yield
// common.ErrInvalidCredentials after a bcrypt comparison of similar cost.
func (s *UserService) Login(ctx context.Context, userName string, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = auth.CheckPassword(auth.DummyHash(), password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to a user id. Any token problem,
// including revocation, yields common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrTokenRevoked) {
			return "", fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
		}
		return "", err
	}
	return claims.Subject, nil
}

// Refresh exchanges a valid token for a new one with the same subject and
// revokes the presented one.
func (s *UserService) Refresh(ctx context.Context, token string) (*auth.IssuedToken, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrTokenRevoked) {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
		return nil, err
	}

	inserted, err := s.revoke(ctx, s.db, claims)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, common.ErrTokenRevoked)
	}

	return s.issue(claims.Subject)
}

// Logout revokes the token until its natural expiry.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	_, err = s.revoke(ctx, s.db, claims)
	return err
}

// ChangePassword replaces the password hash after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, current string, newPassword string) error {
	if err := checkPasswordLength("newPassword", newPassword); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		ok, err := auth.CheckPassword(user.PasswordHash, current)
		if err != nil {
			return fmt.Errorf("error checking password: %w", err)
		}
		if !ok {
			return common.ErrInvalidCredentials
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		return repo.UpdatePasswordHash(ctx, userID, hash)
	})
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Email != nil {
		e := strings.TrimSpace(*upd.Email)
		upd.Email = &e
	}
	if upd.IsEmpty() {
		return s.GetProfile(ctx, userID)
	}
	return s.repomanager.Users(s.db).UpdateProfile(ctx, userID, upd)
}

// PurgeRevoked drops denylist entries for tokens that have expired anyway.
func (s *UserService) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, time.Now())
}

// --- helpers below ---

func (s *UserService) issue(userID string) (*auth.IssuedToken, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}

// parse verifies the token and checks the denylist.
func (s *UserService) parse(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking revocation: %w", err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

func (s *UserService) revoke(ctx context.Context, db dbx.DBTX, claims *auth.Claims) (bool, error) {
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	inserted, err := s.repomanager.RevokedTokens(db).Create(ctx, claims.ID, claims.Subject, expiresAt)
	if err != nil {
		return false, fmt.Errorf("error revoking token: %w", err)
	}
	return inserted, nil
}
