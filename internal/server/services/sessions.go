package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/blobstore"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
)

type SessionConfig struct {
	Language models.Language
}

type ListFilter struct {
	Status models.SessionStatus
}

// SessionService owns the interview session lifecycle except completion.
// Sessions of other users are reported as not found.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	policy      pagination.Policy
	logger      logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, policy pagination.Policy,
	logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		policy:      policy,
		logger:      logger.With("module", "sessions"),
	}
}

func (s *SessionService) CreateSession(ctx context.Context, userID string, cfg SessionConfig) (*models.Session, error) {
	lang := cfg.Language
	if lang == "" {
		lang = models.DefaultLanguage
	}
	if !lang.Valid() {
		return nil, common.NewValidationError("language", "must be one of [ru en]")
	}
	return s.repomanager.Sessions(s.db).Create(ctx, userID, lang)
}

func (s *SessionService) GetSession(ctx context.Context, userID string, sessionID string) (*models.Session, error) {
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Sessions(s.db).GetForUser(ctx, sessionID, userID)
}

// ListSessions pages through the user's sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, userID string, filter ListFilter, req pagination.Request) (pagination.Page[*models.Session], error) {
	switch filter.Status {
	case "", models.SessionInProgress, models.SessionCompleted:
	default:
		return pagination.Page[*models.Session]{}, common.NewValidationError("status", "must be one of [IN_PROGRESS COMPLETED]")
	}

	repo := s.repomanager.Sessions(s.db)
	f := models.SessionFilter{Status: filter.Status}

	return pagination.Paginate[*models.Session](ctx, pagination.QueryFuncs[*models.Session]{
		CountFn: func(ctx context.Context) (int, error) {
			return repo.Count(ctx, userID, f)
		},
		FetchFn: func(ctx context.Context, limit, offset int) ([]*models.Session, error) {
			return repo.List(ctx, userID, f, limit, offset)
		},
	}, req, s.policy)
}

// DeleteSession removes the session with its messages and artifact. The
// artifact blob is deleted once the rows are gone; a failure there is only
// logged.
func (s *SessionService) DeleteSession(ctx context.Context, userID string, sessionID string) error {
	if !validID(sessionID) {
		return common.ErrorNotFound
	}

	var storageKey string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)

		if _, err := sessions.GetForUpdate(ctx, sessionID, userID); err != nil {
			return err
		}

		artifact, err := s.repomanager.Artifacts(tx).GetBySession(ctx, sessionID, userID)
		switch {
		case err == nil:
			storageKey = artifact.StorageKey
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		return sessions.Delete(ctx, sessionID, userID)
	})
	if err != nil {
		return err
	}

	discardBlob(ctx, s.blobs, s.logger, storageKey)
	return nil
}
