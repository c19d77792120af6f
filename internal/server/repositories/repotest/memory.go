package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/artifacts"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/messages"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Manager returns a RepositoryManager backed by s. Repositories vended for a
// *sql.Tx from s.DB are transactional; any other DBTX means autocommit.
func (s *Store) Manager() repomanager.RepositoryManager {
	return &manager{s: s}
}

type manager struct {
	s *Store
}

func (m *manager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *manager) Users(db dbx.DBTX) users.Repository {
	return &userRepo{m.s.bind(db)}
}

func (m *manager) RevokedTokens(db dbx.DBTX) revokedtokens.Repository {
	return &revokedRepo{m.s.bind(db)}
}

func (m *manager) Sessions(db dbx.DBTX) sessions.Repository {
	return &sessionRepo{m.s.bind(db)}
}

func (m *manager) Messages(db dbx.DBTX) messages.Repository {
	return &messageRepo{m.s.bind(db)}
}

func (m *manager) Artifacts(db dbx.DBTX) artifacts.Repository {
	return &artifactRepo{m.s.bind(db)}
}

type userRepo struct{ binding }

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.s.Users {
		if existing.UserName == u.UserName || strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrDuplicateIdentity
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.Users[c.ID] = &c
	r.onRollback(func() { delete(r.s.Users, c.ID) })
	out := c
	return &out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.GetUserByLogin"); err != nil {
		return nil, err
	}
	for _, u := range r.s.Users {
		if u.UserName == login {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// update replaces the stored user with a modified copy and registers the
// previous row for rollback. s.mu must be held.
func (r *userRepo) update(id string, fn func(u *models.User)) (*models.User, error) {
	prev, ok := r.s.Users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	next := *prev
	fn(&next)
	next.UpdatedAt = time.Now()
	r.s.Users[id] = &next
	r.onRollback(func() { r.s.Users[id] = prev })
	out := next
	return &out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	return r.update(id, func(u *models.User) {
		set(&u.UserName, upd.UserName)
		set(&u.Email, upd.Email)
		set(&u.FirstName, upd.FirstName)
		set(&u.LastName, upd.LastName)
		set(&u.Phone, upd.Phone)
		set(&u.Location, upd.Location)
	})
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	_, err := r.update(id, func(u *models.User) { u.PasswordHash = hash })
	return err
}

type revokedRepo struct{ binding }

func (r *revokedRepo) Create(_ context.Context, tokenID string, _ string, expiresAt time.Time) (bool, error) {
	if err := r.enter(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("RevokedTokens.Create"); err != nil {
		return false, err
	}
	if _, ok := r.s.Revoked[tokenID]; ok {
		return false, nil
	}
	r.s.Revoked[tokenID] = expiresAt
	r.onRollback(func() { delete(r.s.Revoked, tokenID) })
	return true, nil
}

func (r *revokedRepo) Exists(_ context.Context, tokenID string) (bool, error) {
	if err := r.enter(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("RevokedTokens.Exists"); err != nil {
		return false, err
	}
	_, ok := r.s.Revoked[tokenID]
	return ok, nil
}

func (r *revokedRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	var n int64
	for id, exp := range r.s.Revoked {
		if !exp.After(now) {
			delete(r.s.Revoked, id)
			r.onRollback(func() { r.s.Revoked[id] = exp })
			n++
		}
	}
	return n, nil
}

type sessionRepo struct{ binding }

func (r *sessionRepo) owned(id, userID string) (*models.Session, error) {
	sess, ok := r.s.Sessions[id]
	if !ok || sess.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return sess, nil
}

// put replaces a stored session and registers the previous row for
// rollback. s.mu must be held.
func (r *sessionRepo) put(prev, next *models.Session) *models.Session {
	r.s.Sessions[next.ID] = next
	r.onRollback(func() { r.s.Sessions[prev.ID] = prev })
	out := *next
	return &out
}

func (r *sessionRepo) Create(_ context.Context, userID string, language models.Language) (*models.Session, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	now := time.Now().Add(time.Duration(len(r.s.Sessions)) * time.Millisecond)
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.SessionInProgress,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.Sessions[sess.ID] = sess
	r.onRollback(func() { delete(r.s.Sessions, sess.ID) })
	out := *sess
	return &out, nil
}

func (r *sessionRepo) GetForUser(_ context.Context, id string, userID string) (*models.Session, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	sess, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	out := *sess
	return &out, nil
}

// GetForUpdate locks the session row until the transaction ends. A row
// deleted while waiting for the lock is reported as not found.
func (r *sessionRepo) GetForUpdate(ctx context.Context, id string, userID string) (*models.Session, error) {
	if _, err := r.GetForUser(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := r.lockRow(ctx, "interview_sessions:"+id); err != nil {
		return nil, err
	}
	return r.GetForUser(ctx, id, userID)
}

func (r *sessionRepo) filtered(userID string, filter models.SessionFilter) []*models.Session {
	var out []*models.Session
	for _, sess := range r.s.Sessions {
		if sess.UserID != userID {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		c := *sess
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r *sessionRepo) Count(_ context.Context, userID string, filter models.SessionFilter) (int, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	return len(r.filtered(userID, filter)), nil
}

func (r *sessionRepo) List(_ context.Context, userID string, filter models.SessionFilter, limit, offset int) ([]*models.Session, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return window(r.filtered(userID, filter), limit, offset), nil
}

// Delete removes the session and cascades to its messages and artifact.
func (r *sessionRepo) Delete(_ context.Context, id string, userID string) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("Sessions.Delete"); err != nil {
		return err
	}
	sess, err := r.owned(id, userID)
	if err != nil {
		return err
	}
	msgs, hadMsgs := r.s.Messages[id]
	artifact, hadArtifact := r.s.Artifacts[id]

	delete(r.s.Sessions, id)
	delete(r.s.Messages, id)
	delete(r.s.Artifacts, id)

	r.onRollback(func() {
		r.s.Sessions[id] = sess
		if hadMsgs {
			r.s.Messages[id] = msgs
		}
		if hadArtifact {
			r.s.Artifacts[id] = artifact
		}
	})
	return nil
}

func (r *sessionRepo) MarkCompleted(_ context.Context, id string, userID string) (*models.Session, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	sess, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionCompleted {
		return nil, common.ErrAlreadyCompleted
	}
	now := time.Now()
	next := *sess
	next.Status = models.SessionCompleted
	next.Progress = 100
	next.CompletedAt = &now
	next.UpdatedAt = now
	return r.put(sess, &next), nil
}

func (r *sessionRepo) UpdateActivity(_ context.Context, id string, messageCount, progress int) (*models.Session, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	sess, ok := r.s.Sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	next := *sess
	next.MessageCount = messageCount
	next.Progress = progress
	next.UpdatedAt = time.Now()
	return r.put(sess, &next), nil
}

type messageRepo struct{ binding }

func (r *messageRepo) NextSeq(_ context.Context, sessionID string) (int, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	return len(r.s.Messages[sessionID]) + 1, nil
}

func (r *messageRepo) Insert(_ context.Context, msg *models.Message) (*models.Message, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("Messages.Insert"); err != nil {
		return nil, err
	}
	for _, m := range r.s.Messages[msg.SessionID] {
		if m.Seq == msg.Seq {
			return nil, fmt.Errorf("db error: duplicate seq %d", msg.Seq)
		}
	}
	c := *msg
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.s.Messages[msg.SessionID] = append(r.s.Messages[msg.SessionID], &c)
	r.onRollback(func() {
		r.s.Messages[c.SessionID] = slices.DeleteFunc(r.s.Messages[c.SessionID], func(m *models.Message) bool {
			return m.ID == c.ID
		})
	})
	out := c
	return &out, nil
}

func (r *messageRepo) ListBySession(_ context.Context, sessionID string) ([]*models.Message, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := make([]*models.Message, 0, len(r.s.Messages[sessionID]))
	for _, m := range r.s.Messages[sessionID] {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

type artifactRepo struct{ binding }

func (r *artifactRepo) Create(_ context.Context, a *models.Artifact) (*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	if err := r.s.fail("Artifacts.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.s.Artifacts[a.SessionID]; ok {
		return nil, common.ErrAlreadyCompleted
	}
	c := *a
	c.ID = uuid.NewString()
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.Artifacts[a.SessionID] = &c
	r.onRollback(func() { delete(r.s.Artifacts, c.SessionID) })
	out := c
	return &out, nil
}

func (r *artifactRepo) GetBySession(_ context.Context, sessionID string, userID string) (*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	a, ok := r.s.Artifacts[sessionID]
	if !ok || a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (r *artifactRepo) byID(id, userID string) (*models.Artifact, error) {
	for _, a := range r.s.Artifacts {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *artifactRepo) GetByID(_ context.Context, id string, userID string) (*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	a, err := r.byID(id, userID)
	if err != nil {
		return nil, err
	}
	out := *a
	return &out, nil
}

func (r *artifactRepo) owned(userID string) []*models.Artifact {
	var out []*models.Artifact
	for _, a := range r.s.Artifacts {
		if a.UserID != userID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Artifact) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r *artifactRepo) CountByUser(_ context.Context, userID string) (int, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	return len(r.owned(userID)), nil
}

func (r *artifactRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return window(r.owned(userID), limit, offset), nil
}

func (r *artifactRepo) Replace(_ context.Context, a *models.Artifact) (*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.Artifacts[a.SessionID]
	if !ok || cur.UserID != a.UserID {
		return nil, common.ErrorNotFound
	}
	c := *a
	c.ID = cur.ID
	c.Version = cur.Version + 1
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	r.s.Artifacts[a.SessionID] = &c
	r.onRollback(func() { r.s.Artifacts[cur.SessionID] = cur })
	out := c
	return &out, nil
}

func (r *artifactRepo) Delete(_ context.Context, id string, userID string) (*models.Artifact, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	a, err := r.byID(id, userID)
	if err != nil {
		return nil, err
	}
	delete(r.s.Artifacts, a.SessionID)
	r.onRollback(func() { r.s.Artifacts[a.SessionID] = a })
	out := *a
	return &out, nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	return all[offset:min(offset+limit, len(all))]
}
