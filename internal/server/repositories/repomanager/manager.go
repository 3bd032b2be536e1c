package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/identities"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Identities(db dbx.DBTX) identities.Repository
	Challenges(db dbx.DBTX) challenges.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
