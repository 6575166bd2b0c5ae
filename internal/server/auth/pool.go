package auth

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// HashObserver receives the duration of each hash or verify call.
type HashObserver func(op string, d time.Duration)

// HashPool runs a PasswordHasher with at most n concurrent operations. Callers
// beyond the limit wait for a free slot or until their context is done.
type HashPool struct {
	hasher  PasswordHasher
	sem     *semaphore.Weighted
	observe HashObserver
}

// NewHashPool wraps h. workers below 1 is treated as 1. observe may be nil.
func NewHashPool(h PasswordHasher, workers int, observe HashObserver) *HashPool {
	if workers < 1 {
		workers = 1
	}
	return &HashPool{hasher: h, sem: semaphore.NewWeighted(int64(workers)), observe: observe}
}

func (p *HashPool) Hash(ctx context.Context, plaintext string) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	defer p.record("hash", start)

	return p.hasher.Hash(plaintext)
}

func (p *HashPool) Verify(ctx context.Context, plaintext string, hash []byte) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	defer p.record("verify", start)

	return p.hasher.Verify(plaintext, hash)
}

func (p *HashPool) record(op string, start time.Time) {
	if p.observe != nil {
		p.observe(op, time.Since(start))
	}
}
