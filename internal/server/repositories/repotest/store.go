// Package repotest provides in-memory repositories for service and handler
// tests. They follow the semantics of the Postgres repositories: writes made
// inside a transaction from Store.DB are undone on rollback, and
// GetForUpdate holds a row lock until the transaction ends.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/google/uuid"
)

// Store is an in-memory stand-in for the database behind the repositories
// it vends. FailOn injects an error for a method named "Repo.Method", for
// example "Artifacts.Create".
type Store struct {
	mu        sync.Mutex
	Users     map[string]*models.User
	Revoked   map[string]time.Time
	Sessions  map[string]*models.Session
	Messages  map[string][]*models.Message
	Artifacts map[string]*models.Artifact
	FailOn    map[string]error

	nextTx    int64
	txs       map[int64]*txState
	locks     map[string]*rowLock
	commits   int
	rollbacks int
}

type txState struct {
	undo  []func()
	locks []string
}

type rowLock struct {
	owner    int64
	released chan struct{}
}

func NewStore() *Store {
	return &Store{
		Users:     map[string]*models.User{},
		Revoked:   map[string]time.Time{},
		Sessions:  map[string]*models.Session{},
		Messages:  map[string][]*models.Message{},
		Artifacts: map[string]*models.Artifact{},
		FailOn:    map[string]error{},
		txs:       map[int64]*txState{},
		locks:     map[string]*rowLock{},
	}
}

func (s *Store) fail(method string) error {
	return s.FailOn[method]
}

func (s *Store) beginTx() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	s.txs[s.nextTx] = &txState{}
	return s.nextTx
}

// endTx finishes a transaction. On rollback its writes are undone newest
// first. Either way its row locks are released.
func (s *Store) endTx(id int64, commit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.txs[id]
	if !ok {
		return
	}
	delete(s.txs, id)

	if commit {
		s.commits++
	} else {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		s.rollbacks++
	}

	for _, key := range st.locks {
		close(s.locks[key].released)
		delete(s.locks, key)
	}
}

// TxStats reports how many transactions were committed and rolled back.
func (s *Store) TxStats() (commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits, s.rollbacks
}

// binding ties repositories to the transaction of the DBTX they were vended
// for. tx is zero outside a transaction.
type binding struct {
	s   *Store
	tx  int64
	err error
}

func (s *Store) bind(db dbx.DBTX) binding {
	tx, ok := db.(*sql.Tx)
	if !ok {
		return binding{s: s}
	}
	var id int64
	if err := tx.QueryRowContext(context.Background(), txidQuery).Scan(&id); err != nil {
		return binding{s: s, err: fmt.Errorf("db error: %w", err)}
	}
	return binding{s: s, tx: id}
}

// enter takes the store lock for one statement. The caller unlocks s.mu
// when enter succeeds.
func (b binding) enter() error {
	if b.err != nil {
		return b.err
	}
	b.s.mu.Lock()
	if b.tx != 0 {
		if _, ok := b.s.txs[b.tx]; !ok {
			b.s.mu.Unlock()
			return sql.ErrTxDone
		}
	}
	return nil
}

// onRollback registers undo for the current transaction. s.mu must be held.
func (b binding) onRollback(undo func()) {
	if b.tx == 0 {
		return
	}
	st := b.s.txs[b.tx]
	st.undo = append(st.undo, undo)
}

// lockRow blocks until the transaction owns key or ctx is done. Outside a
// transaction it is a no-op, as FOR UPDATE in autocommit mode is.
func (b binding) lockRow(ctx context.Context, key string) error {
	if b.tx == 0 {
		return nil
	}
	for {
		if err := b.enter(); err != nil {
			return err
		}
		l, ok := b.s.locks[key]
		if !ok {
			b.s.locks[key] = &rowLock{owner: b.tx, released: make(chan struct{})}
			st := b.s.txs[b.tx]
			st.locks = append(st.locks, key)
			b.s.mu.Unlock()
			return nil
		}
		if l.owner == b.tx {
			b.s.mu.Unlock()
			return nil
		}
		released := l.released
		b.s.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SeedSession stores a session owned by userID with the given status.
func (s *Store) SeedSession(userID string, status models.SessionStatus) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    status,
		Language:  models.LanguageEN,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Sessions[sess.ID] = sess
	out := *sess
	return &out
}

// SeedUser stores u, assigning an id when it has none.
func (s *Store) SeedUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.Users[u.ID] = &u
	out := u
	return &out
}

// SeedArtifact stores a as the artifact of its session, assigning an id and
// version 1 when it has none.
func (s *Store) SeedArtifact(a models.Artifact) *models.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
	}
	s.Artifacts[a.SessionID] = &a
	out := a
	return &out
}

// Session returns a copy of the stored session. It panics on unknown ids.
func (s *Store) Session(id string) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.Sessions[id]
}

// Ledger returns copies of the messages stored for a session.
func (s *Store) Ledger(sessionID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0, len(s.Messages[sessionID]))
	for _, m := range s.Messages[sessionID] {
		out = append(out, *m)
	}
	return out
}
