package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/neuroresume/internal/dbx"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/artifacts"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/messages"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Messages(db dbx.DBTX) messages.Repository
	Artifacts(db dbx.DBTX) artifacts.Repository
}
