//go:build integration

package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gophauth"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresRepositoryManager_Integration(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	m, err := NewPostgresRepositoryManager(ctx, dsn, dbx.DefaultRetryPolicy)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.RunMigrations(ctx))
	// Applying twice is a no-op.
	require.NoError(t, m.RunMigrations(ctx))

	usersRepo := m.Users(m.DB())

	alice, err := usersRepo.Create(ctx, &models.User{UserName: "alice", PasswordHash: []byte("hash"), FirstName: "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = usersRepo.Create(ctx, &models.User{UserName: "alice", PasswordHash: []byte("other")})
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)

	bob, err := usersRepo.Create(ctx, &models.User{UserName: "bob", PasswordHash: []byte("hash")})
	require.NoError(t, err)
	gotBob, err := usersRepo.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, gotBob.FirstName)

	got, err := usersRepo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, []byte("hash"), got.PasswordHash)

	_, err = usersRepo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	digest := common.HashToken("opaque")
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

	err = m.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return m.RefreshTokens(tx).Create(ctx, alice.ID, digest, expires)
	})
	require.NoError(t, err)

	rt, err := m.RefreshTokens(m.DB()).Consume(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rt.UserID)
	assert.True(t, rt.ExpiresAt.Equal(expires))

	_, err = m.RefreshTokens(m.DB()).Consume(ctx, digest)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
