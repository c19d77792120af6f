package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/blobstore"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
)

type RenderOptions struct {
	Format   string
	Template string
	Language models.Language
}

// CompletionResult carries the stored artifact and the rendered document.
type CompletionResult struct {
	Artifact *models.Artifact
	Session  *models.Session
	Document renderer.Document
}

// CompletionService performs the terminal transition of a session and
// manages the resulting resume artifact.
type CompletionService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	renderer        renderer.Renderer
	blobs           blobstore.Store
	upstreamTimeout time.Duration
	logger          logging.Logger
}

func NewCompletionService(db *sql.DB, m repomanager.RepositoryManager, r renderer.Renderer, blobs blobstore.Store,
	upstreamTimeout time.Duration, logger logging.Logger) *CompletionService {
	return &CompletionService{
		db:              db,
		repomanager:     m,
		renderer:        r,
		blobs:           blobs,
		upstreamTimeout: upstreamTimeout,
		logger:          logger.With("module", "completion"),
	}
}

// Complete moves an IN_PROGRESS session to COMPLETED and stores its resume.
// If anything fails the status change is rolled back.
func (s *CompletionService) Complete(ctx context.Context, userID string, sessionID string) (*CompletionResult, error) {
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}

	var (
		result  *CompletionResult
		written string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)

		session, err := sessions.GetForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status == models.SessionCompleted {
			return common.ErrAlreadyCompleted
		}

		completed, err := sessions.MarkCompleted(ctx, sessionID, userID)
		if err != nil {
			return err
		}

		doc, req, err := s.render(ctx, tx, userID, completed, RenderOptions{Language: completed.Language})
		if err != nil {
			return err
		}

		key, err := s.put(ctx, userID, sessionID, doc)
		if err != nil {
			return err
		}
		written = key

		artifact, err := s.repomanager.Artifacts(tx).Create(ctx, newArtifact(userID, sessionID, key, doc, req))
		if err != nil {
			return err
		}

		result = &CompletionResult{Artifact: artifact, Session: completed, Document: doc}
		return nil
	})
	if err != nil {
		s.discard(ctx, written)
		return nil, err
	}
	return result, nil
}

// Regenerate renders a completed session again, possibly with other
// options, and replaces the stored artifact. Sessions without an artifact
// yield common.ErrorNotFound.
func (s *CompletionService) Regenerate(ctx context.Context, userID string, sessionID string, opts RenderOptions) (*CompletionResult, error) {
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}

	var (
		result   *CompletionResult
		written  string
		previous string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		session, err := s.repomanager.Sessions(tx).GetForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionCompleted {
			return common.ErrorNotFound
		}

		artifacts := s.repomanager.Artifacts(tx)
		current, err := artifacts.GetBySession(ctx, sessionID, userID)
		if err != nil {
			return err
		}

		if opts.Format == "" {
			opts.Format = current.Format
		}
		if opts.Template == "" {
			opts.Template = current.Template
		}
		if opts.Language == "" {
			opts.Language = current.Language
		}

		doc, req, err := s.render(ctx, tx, userID, session, opts)
		if err != nil {
			return err
		}

		key, err := s.put(ctx, userID, sessionID, doc)
		if err != nil {
			return err
		}
		written = key

		artifact, err := artifacts.Replace(ctx, newArtifact(userID, sessionID, key, doc, req))
		if err != nil {
			return err
		}

		previous = current.StorageKey
		result = &CompletionResult{Artifact: artifact, Session: session, Document: doc}
		return nil
	})
	if err != nil {
		s.discard(ctx, written)
		return nil, err
	}

	s.discard(ctx, previous)
	return result, nil
}

// Download returns the stored resume document.
func (s *CompletionService) Download(ctx context.Context, userID string, sessionID string) (*renderer.Document, error) {
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}

	artifact, err := s.repomanager.Artifacts(s.db).GetBySession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	content, err := s.blobs.Get(ctx, artifact.StorageKey)
	if err != nil {
		return nil, err
	}
	return &renderer.Document{Content: content, MIME: artifact.MIMEType, Filename: artifact.Filename}, nil
}

// DownloadURL returns a presigned URL when the blob store supports it and
// common.ErrNotSupported otherwise.
func (s *CompletionService) DownloadURL(ctx context.Context, userID string, sessionID string) (string, time.Time, error) {
	presigner, ok := s.blobs.(blobstore.Presigner)
	if !ok {
		return "", time.Time{}, common.ErrNotSupported
	}
	if !validID(sessionID) {
		return "", time.Time{}, common.ErrorNotFound
	}

	artifact, err := s.repomanager.Artifacts(s.db).GetBySession(ctx, sessionID, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	return presigner.PresignGet(ctx, artifact.StorageKey, artifact.Filename)
}

// --- helpers below ---

func (s *CompletionService) render(ctx context.Context, tx dbx.DBTX, userID string, session *models.Session, opts RenderOptions) (renderer.Document, renderer.RenderRequest, error) {
	ledger, err := s.repomanager.Messages(tx).ListBySession(ctx, session.ID)
	if err != nil {
		return renderer.Document{}, renderer.RenderRequest{}, err
	}

	user, err := s.repomanager.Users(tx).GetByID(ctx, userID)
	if err != nil {
		return renderer.Document{}, renderer.RenderRequest{}, err
	}

	req, err := renderer.Normalize(renderer.RenderRequest{
		SessionID:     session.ID,
		Language:      opts.Language,
		Template:      opts.Template,
		Format:        opts.Format,
		CandidateName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		Messages:      ledger,
	})
	if err != nil {
		return renderer.Document{}, renderer.RenderRequest{}, err
	}

	var doc renderer.Document
	err = callUpstream(ctx, s.upstreamTimeout, func(ctx context.Context) error {
		var renderErr error
		doc, renderErr = s.renderer.Render(ctx, req)
		return renderErr
	})
	if err != nil {
		return renderer.Document{}, renderer.RenderRequest{}, err
	}
	return doc, req, nil
}

func (s *CompletionService) put(ctx context.Context, userID, sessionID string, doc renderer.Document) (string, error) {
	ext := strings.TrimPrefix(path.Ext(doc.Filename), ".")
	if ext == "" {
		ext = "bin"
	}
	key := blobstore.NewStorageKey(userID, sessionID, ext)
	if err := s.blobs.Put(ctx, key, doc.Content, doc.MIME); err != nil {
		return "", err
	}
	return key, nil
}

func (s *CompletionService) discard(ctx context.Context, key string) {
	discardBlob(ctx, s.blobs, s.logger, key)
}

// discardBlob deletes a blob best-effort; failures are only logged.
func discardBlob(ctx context.Context, blobs blobstore.Store, logger logging.Logger, key string) {
	if key == "" {
		return
	}
	if err := blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.Warn(ctx, "failed to delete artifact blob", "key", key, "error", err)
	}
}

func newArtifact(userID, sessionID, key string, doc renderer.Document, req renderer.RenderRequest) *models.Artifact {
	sum := sha256.Sum256(doc.Content)
	return &models.Artifact{
		SessionID:  sessionID,
		UserID:     userID,
		StorageKey: key,
		MIMEType:   doc.MIME,
		Filename:   doc.Filename,
		SizeBytes:  int64(len(doc.Content)),
		Checksum:   hex.EncodeToString(sum[:]),
		Template:   req.Template,
		Format:     req.Format,
		Language:   req.Language,
	}
}
