package services

import (
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repotest"
)

// --- helpers ---

func newFakeStore() *repotest.Store {
	return repotest.NewStore()
}

// storeDB returns a database whose transactions commit to or roll back
// from store.
func storeDB(t *testing.T, store *repotest.Store) *sql.DB {
	t.Helper()
	db := store.DB()
	t.Cleanup(func() { db.Close() })
	return db
}

func assertTxStats(t *testing.T, store *repotest.Store, commits, rollbacks int) {
	t.Helper()
	gotCommits, gotRollbacks := store.TxStats()
	if gotCommits != commits || gotRollbacks != rollbacks {
		t.Fatalf("transactions: got %d commits, %d rollbacks; want %d, %d", gotCommits, gotRollbacks, commits, rollbacks)
	}
}
