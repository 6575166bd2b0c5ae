//go:build integration

package lockout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()

	client, err := Connect(ctx, startRedis(t))
	require.NoError(t, err)
	defer client.Close()

	l := NewLimiter(NewRedisStore(client), 2, time.Minute)

	require.NoError(t, l.Check(ctx, "alice"))
	require.NoError(t, l.RecordFailure(ctx, "alice"))
	assert.ErrorIs(t, l.RecordFailure(ctx, "alice"), common.ErrAccountLocked)
	assert.ErrorIs(t, l.Check(ctx, "alice"), common.ErrAccountLocked)

	ttl, err := client.TTL(ctx, redisKeyPrefix+"login:alice").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, l.Reset(ctx, "alice"))
	assert.NoError(t, l.Check(ctx, "alice"))
}
