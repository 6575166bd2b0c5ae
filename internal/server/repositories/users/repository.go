// Package users stores registered accounts. Username uniqueness is enforced
// atomically by each implementation at creation time.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create assigns ID and CreatedAt and persists user. It fails with
	// common.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByUsername returns common.ErrorNotFound when no such user exists.
	FindByUsername(ctx context.Context, userName string) (*models.User, error)

	// FindByID returns common.ErrorNotFound when no such user exists.
	FindByID(ctx context.Context, id string) (*models.User, error)
}
