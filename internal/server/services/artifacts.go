package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
)

// ArtifactService exposes a user's resumes as a collection addressed by
// artifact id. Rendering goes through the CompletionService so an update
// is a regeneration of the owning session.
type ArtifactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	completion  *CompletionService
	policy      pagination.Policy
}

func NewArtifactService(db *sql.DB, m repomanager.RepositoryManager, completion *CompletionService, policy pagination.Policy) *ArtifactService {
	return &ArtifactService{db: db, repomanager: m, completion: completion, policy: policy}
}

// ListArtifacts pages through the user's resumes, newest first.
func (s *ArtifactService) ListArtifacts(ctx context.Context, userID string, req pagination.Request) (pagination.Page[*models.Artifact], error) {
	repo := s.repomanager.Artifacts(s.db)

	return pagination.Paginate[*models.Artifact](ctx, pagination.QueryFuncs[*models.Artifact]{
		CountFn: func(ctx context.Context) (int, error) {
			return repo.CountByUser(ctx, userID)
		},
		FetchFn: func(ctx context.Context, limit, offset int) ([]*models.Artifact, error) {
			return repo.ListByUser(ctx, userID, limit, offset)
		},
	}, req, s.policy)
}

func (s *ArtifactService) GetArtifact(ctx context.Context, userID string, artifactID string) (*models.Artifact, error) {
	if !validID(artifactID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Artifacts(s.db).GetByID(ctx, artifactID, userID)
}

// UpdateArtifact renders the resume again with opts; empty fields keep the
// current value. The version goes up by one.
func (s *ArtifactService) UpdateArtifact(ctx context.Context, userID string, artifactID string, opts RenderOptions) (*CompletionResult, error) {
	a, err := s.GetArtifact(ctx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	return s.completion.Regenerate(ctx, userID, a.SessionID, opts)
}

func (s *ArtifactService) Download(ctx context.Context, userID string, artifactID string) (*renderer.Document, error) {
	a, err := s.GetArtifact(ctx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	return s.completion.Download(ctx, userID, a.SessionID)
}

// DeleteArtifact removes the resume and its blob. The session stays
// COMPLETED and can no longer be regenerated.
func (s *ArtifactService) DeleteArtifact(ctx context.Context, userID string, artifactID string) error {
	if !validID(artifactID) {
		return common.ErrorNotFound
	}

	var storageKey string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		artifacts := s.repomanager.Artifacts(tx)

		a, err := artifacts.GetByID(ctx, artifactID, userID)
		if err != nil {
			return err
		}
		// regeneration holds the session row, so take it first
		if _, err := s.repomanager.Sessions(tx).GetForUpdate(ctx, a.SessionID, userID); err != nil {
			return err
		}

		deleted, err := artifacts.Delete(ctx, artifactID, userID)
		if err != nil {
			return err
		}
		storageKey = deleted.StorageKey
		return nil
	})
	if err != nil {
		return err
	}

	s.completion.discard(ctx, storageKey)
	return nil
}
