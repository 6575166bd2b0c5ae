// Package lockout throttles password guessing: after a number of failed
// logins for one username, further attempts are refused for a time window.
package lockout

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// State is the failure envelope kept per login key.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

// Store persists State. Implementations expire stale entries on their own.
type Store interface {
	Get(ctx context.Context, key string) (State, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error)
	Clear(ctx context.Context, key string) error
}

// Limiter applies the lockout policy on top of a Store. A Limiter with a
// non-positive threshold allows everything and never touches the store.
type Limiter struct {
	store     Store
	threshold int
	window    time.Duration
	now       func() time.Time
}

func NewLimiter(store Store, threshold int, window time.Duration) *Limiter {
	return &Limiter{store: store, threshold: threshold, window: window, now: time.Now}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.store != nil && l.threshold > 0
}

func key(userName string) string {
	return "login:" + userName
}

// Check fails with common.ErrAccountLocked while userName is locked out.
func (l *Limiter) Check(ctx context.Context, userName string) error {
	if !l.enabled() {
		return nil
	}
	st, err := l.store.Get(ctx, key(userName))
	if err != nil {
		return err
	}
	if st.LockedUntil != nil && st.LockedUntil.After(l.now()) {
		return common.ErrAccountLocked
	}
	return nil
}

// RecordFailure counts a failed attempt. It returns common.ErrAccountLocked
// when this failure reached the threshold.
func (l *Limiter) RecordFailure(ctx context.Context, userName string) error {
	if !l.enabled() {
		return nil
	}
	now := l.now()
	st, err := l.store.RecordFailure(ctx, key(userName), now, l.threshold, l.window)
	if err != nil {
		return err
	}
	if st.LockedUntil != nil && st.LockedUntil.After(now) {
		return common.ErrAccountLocked
	}
	return nil
}

// Reset forgets failures after a successful login.
func (l *Limiter) Reset(ctx context.Context, userName string) error {
	if !l.enabled() {
		return nil
	}
	return l.store.Clear(ctx, key(userName))
}
