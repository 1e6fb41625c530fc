package contract

import (
	"context"
	"time"

	"ai-casebrief-be/internal/entity"
)

type BriefRepository interface {
	FindByCaseAndAudience(ctx context.Context, caseID, audience string) (*entity.Brief, error)
	FindAllByCase(ctx context.Context, caseID string) ([]*entity.Brief, error)
	// CreateIfAbsent inserts b unless a brief already exists for its
	// (case, audience) and returns whichever row is stored. created reports
	// whether this call inserted it.
	CreateIfAbsent(ctx context.Context, b *entity.Brief) (stored *entity.Brief, created bool, err error)
}

// FlightLock is a cross-process mutual exclusion keyed by string.
type FlightLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
