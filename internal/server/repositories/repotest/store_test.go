package repotest

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionList_EqualCreatedAtOrderedByID(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ids := []string{"c", "a", "d", "b"}
	for _, id := range ids {
		s.Sessions[id] = &models.Session{ID: id, UserID: "u1", Status: models.SessionInProgress, CreatedAt: at}
	}
	s.Sessions["newest"] = &models.Session{ID: "newest", UserID: "u1", Status: models.SessionInProgress, CreatedAt: at.Add(time.Second)}

	repo := s.Manager().Sessions(nil)
	ctx := context.Background()

	// repeated listings page through the same order
	for range 5 {
		var got []string
		for offset := 0; offset < 5; offset += 2 {
			page, err := repo.List(ctx, "u1", models.SessionFilter{}, 2, offset)
			require.NoError(t, err)
			for _, sess := range page {
				got = append(got, sess.ID)
			}
		}
		assert.Equal(t, []string{"newest", "a", "b", "c", "d"}, got)
	}
}

func TestTx_RollbackUndoesWrites(t *testing.T) {
	s := NewStore()
	db := s.DB()
	defer db.Close()
	ctx := context.Background()
	sess := s.SeedSession("u1", models.SessionInProgress)
	m := s.Manager()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := m.Sessions(tx).MarkCompleted(ctx, sess.ID, "u1"); err != nil {
			return err
		}
		if _, err := m.Messages(tx).Insert(ctx, &models.Message{SessionID: sess.ID, Seq: 1, Role: models.RoleUser, Content: "hi"}); err != nil {
			return err
		}
		if _, err := m.Artifacts(tx).Create(ctx, &models.Artifact{SessionID: sess.ID, UserID: "u1"}); err != nil {
			return err
		}
		// visible inside the transaction
		got, err := m.Sessions(tx).GetForUser(ctx, sess.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, got.Status)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, models.SessionInProgress, s.Session(sess.ID).Status)
	assert.Empty(t, s.Ledger(sess.ID))
	assert.NotContains(t, s.Artifacts, sess.ID)

	commits, rollbacks := s.TxStats()
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestTx_CommitKeepsWrites(t *testing.T) {
	s := NewStore()
	db := s.DB()
	defer db.Close()
	ctx := context.Background()
	sess := s.SeedSession("u1", models.SessionInProgress)
	m := s.Manager()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return m.Sessions(tx).Delete(ctx, sess.ID, "u1")
	})
	require.NoError(t, err)
	assert.NotContains(t, s.Sessions, sess.ID)

	commits, _ := s.TxStats()
	assert.Equal(t, 1, commits)
}

func TestTx_GetForUpdateBlocksUntilCommit(t *testing.T) {
	s := NewStore()
	db := s.DB()
	defer db.Close()
	ctx := context.Background()
	sess := s.SeedSession("u1", models.SessionInProgress)
	m := s.Manager()

	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := m.Sessions(tx).GetForUpdate(ctx, sess.ID, "u1"); err != nil {
				return err
			}
			close(locked)
			<-release
			_, err := m.Sessions(tx).MarkCompleted(ctx, sess.ID, "u1")
			return err
		})
	}()
	<-locked

	var order []string
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			got, err := m.Sessions(tx).GetForUpdate(ctx, sess.ID, "u1")
			if err != nil {
				return err
			}
			order = append(order, string(got.Status))
			return nil
		})
	}()

	select {
	case <-secondDone:
		t.Fatal("second transaction got the row while it was locked")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	// the waiter sees the committed state
	assert.Equal(t, []string{string(models.SessionCompleted)}, order)
}

func TestTx_LockWaitHonoursContext(t *testing.T) {
	s := NewStore()
	db := s.DB()
	defer db.Close()
	sess := s.SeedSession("u1", models.SessionInProgress)
	m := s.Manager()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = m.Sessions(tx).GetForUpdate(context.Background(), sess.ID, "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = dbx.WithTx(context.Background(), db, nil, func(_ context.Context, tx dbx.DBTX) error {
		_, err := m.Sessions(tx).GetForUpdate(ctx, sess.ID, "u1")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, tx.Rollback())
	assert.False(t, slices.Contains(heldLocks(s), "interview_sessions:"+sess.ID))
}

func heldLocks(s *Store) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.locks))
	for k := range s.locks {
		out = append(out, k)
	}
	return out
}
