package lock

import (
	"context"
	"time"

	"ai-casebrief-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// MemoryLock is a single-process FlightLock for the memory storage driver.
type MemoryLock struct {
	cache *cache.Cache
}

var _ contract.FlightLock = (*MemoryLock)(nil)

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{cache: cache.New(time.Minute, time.Minute)}
}

func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// Add fails while an unexpired entry exists.
	return l.cache.Add(key, struct{}{}, ttl) == nil, nil
}

func (l *MemoryLock) Release(ctx context.Context, key string) error {
	l.cache.Delete(key)
	return nil
}
