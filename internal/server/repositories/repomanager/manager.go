package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or an
// open transaction, so services can compose them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}
