// Package repomanager hands out repositories bound to either the shared
// database handle or a running transaction.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// DB is the non-transactional handle to pass to Users and RefreshTokens.
	DB() dbx.DBTX
	// WithTx runs fn in a transaction; repositories created from tx inside fn
	// commit or roll back together.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	Close() error
}
