package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/generator"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
)

// MaxMessageRunes bounds a user message.
const MaxMessageRunes = 5000

type AppendResult struct {
	UserMessage      *models.Message
	AssistantMessage *models.Message
	Session          *models.Session
}

// MessageService appends interview turns. A turn is the user's message and
// the generated reply, persisted together or not at all.
type MessageService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	generator       generator.Generator
	upstreamTimeout time.Duration
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, g generator.Generator, upstreamTimeout time.Duration) *MessageService {
	return &MessageService{db: db, repomanager: m, generator: g, upstreamTimeout: upstreamTimeout}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return common.NewValidationError("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageRunes {
		return common.NewValidationError("content", fmt.Sprintf("must be at most %d characters", MaxMessageRunes))
	}
	return nil
}

// AppendUserMessage stores content as the next user message, asks the
// generator for a reply and stores that too. The session row stays locked
// for the whole turn, so turns of one session never interleave.
func (s *MessageService) AppendUserMessage(ctx context.Context, userID string, sessionID string, content string) (*AppendResult, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}

	var result *AppendResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)
		messages := s.repomanager.Messages(tx)

		session, err := sessions.GetForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionInProgress {
			return common.ErrSessionClosed
		}

		seq, err := messages.NextSeq(ctx, session.ID)
		if err != nil {
			return err
		}

		userMsg, err := messages.Insert(ctx, &models.Message{
			SessionID: session.ID,
			Seq:       seq,
			Role:      models.RoleUser,
			Content:   content,
		})
		if err != nil {
			return err
		}

		history, err := messages.ListBySession(ctx, session.ID)
		if err != nil {
			return err
		}

		var turn generator.Turn
		err = callUpstream(ctx, s.upstreamTimeout, func(ctx context.Context) error {
			var genErr error
			turn, genErr = s.generator.GenerateNextTurn(ctx, generator.SessionContext{
				SessionID: session.ID,
				Language:  session.Language,
				History:   history,
			})
			return genErr
		})
		if err != nil {
			return err
		}

		assistantMsg, err := messages.Insert(ctx, &models.Message{
			SessionID: session.ID,
			Seq:       seq + 1,
			Role:      models.RoleAssistant,
			Content:   turn.Content,
			Metadata:  turn.Metadata,
		})
		if err != nil {
			return err
		}

		count := session.MessageCount + 2
		updated, err := sessions.UpdateActivity(ctx, session.ID, count, NextProgress(session.ID, session.Progress, count))
		if err != nil {
			return err
		}

		result = &AppendResult{UserMessage: userMsg, AssistantMessage: assistantMsg, Session: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListMessages returns the full ledger ordered by seq.
func (s *MessageService) ListMessages(ctx context.Context, userID string, sessionID string) ([]*models.Message, error) {
	if !validID(sessionID) {
		return nil, common.ErrorNotFound
	}
	if _, err := s.repomanager.Sessions(s.db).GetForUser(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Messages(s.db).ListBySession(ctx, sessionID)
}
