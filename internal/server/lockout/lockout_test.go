package lockout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(threshold int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = c.now
	l := NewLimiter(store, threshold, window)
	l.now = c.now
	return l, c
}

func TestLimiter_LocksAfterThreshold(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "alice"))
	require.NoError(t, l.RecordFailure(ctx, "alice"))
	require.NoError(t, l.RecordFailure(ctx, "alice"))
	assert.ErrorIs(t, l.RecordFailure(ctx, "alice"), common.ErrAccountLocked)

	assert.ErrorIs(t, l.Check(ctx, "alice"), common.ErrAccountLocked)
	assert.NoError(t, l.Check(ctx, "bob"))
}

func TestLimiter_UnlocksAfterWindow(t *testing.T) {
	l, c := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, l.RecordFailure(ctx, "alice"), common.ErrAccountLocked)
	c.t = c.t.Add(59 * time.Second)
	assert.ErrorIs(t, l.Check(ctx, "alice"), common.ErrAccountLocked)

	c.t = c.t.Add(time.Second)
	assert.NoError(t, l.Check(ctx, "alice"))
}

func TestLimiter_ResetClearsFailures(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.RecordFailure(ctx, "alice"))
	require.NoError(t, l.Reset(ctx, "alice"))
	require.NoError(t, l.RecordFailure(ctx, "alice"))
	assert.NoError(t, l.Check(ctx, "alice"))
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (State, error) { return State{}, f.err }
func (f failingStore) RecordFailure(context.Context, string, time.Time, int, time.Duration) (State, error) {
	return State{}, f.err
}
func (f failingStore) Clear(context.Context, string) error { return f.err }

func TestLimiter_Disabled(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store must not be called")

	for _, l := range []*Limiter{
		nil,
		NewLimiter(nil, 3, time.Minute),
		NewLimiter(failingStore{err: boom}, 0, time.Minute),
	} {
		assert.NoError(t, l.Check(ctx, "alice"))
		assert.NoError(t, l.RecordFailure(ctx, "alice"))
		assert.NoError(t, l.Reset(ctx, "alice"))
	}
}

func TestLimiter_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("redis down")
	l := NewLimiter(failingStore{err: boom}, 3, time.Minute)

	assert.ErrorIs(t, l.Check(ctx, "alice"), boom)
	assert.ErrorIs(t, l.RecordFailure(ctx, "alice"), boom)
	assert.ErrorIs(t, l.Reset(ctx, "alice"), boom)
}
