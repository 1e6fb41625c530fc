package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

type fakeAdapter struct {
	kind  store.SourceKind
	calls atomic.Int32
	fetch func(ctx context.Context, n int32) ([]store.CandidateDocument, error)
}

func (f *fakeAdapter) Kind() store.SourceKind { return f.kind }

func (f *fakeAdapter) Fetch(ctx context.Context, query string, limit int) ([]store.CandidateDocument, error) {
	n := f.calls.Add(1)
	return f.fetch(ctx, n)
}

func fastGuard(a Adapter, timeout time.Duration) *Guarded {
	return NewGuarded(a, GuardConfig{Timeout: timeout, MaxAttempts: 3, InitialInterval: time.Millisecond}, logger.NewNop())
}

func TestGuardedRetriesTransientFailures(t *testing.T) {
	a := &fakeAdapter{kind: store.SourceInternal, fetch: func(ctx context.Context, n int32) ([]store.CandidateDocument, error) {
		if n < 3 {
			return nil, apperr.Transient("fake", errors.New("flaky"))
		}
		return []store.CandidateDocument{{ID: "a", Source: store.SourceExternal}, {ID: "b"}, {ID: "c"}}, nil
	}}

	docs, degraded := fastGuard(a, time.Second).Fetch(context.Background(), "q", 2)

	assert.False(t, degraded)
	assert.Equal(t, int32(3), a.calls.Load())
	assert.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, store.SourceInternal, d.Source)
	}
}

func TestGuardedDegrades(t *testing.T) {
	tests := []struct {
		name      string
		fetch     func(ctx context.Context, n int32) ([]store.CandidateDocument, error)
		wantCalls int32
	}{
		{
			name: "permanent error is not retried",
			fetch: func(ctx context.Context, n int32) ([]store.CandidateDocument, error) {
				return nil, errors.New("bad request")
			},
			wantCalls: 1,
		},
		{
			name: "transient error exhausts attempts",
			fetch: func(ctx context.Context, n int32) ([]store.CandidateDocument, error) {
				return nil, apperr.Transient("fake", errors.New("503"))
			},
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAdapter{kind: store.SourceExternal, fetch: tt.fetch}
			docs, degraded := fastGuard(a, time.Second).Fetch(context.Background(), "q", 5)

			assert.True(t, degraded)
			assert.Empty(t, docs)
			assert.Equal(t, tt.wantCalls, a.calls.Load())
		})
	}
}

func TestGuardedTimeout(t *testing.T) {
	a := &fakeAdapter{kind: store.SourceExternal, fetch: func(ctx context.Context, n int32) ([]store.CandidateDocument, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	start := time.Now()
	docs, degraded := fastGuard(a, 30*time.Millisecond).Fetch(context.Background(), "q", 5)

	assert.True(t, degraded)
	assert.Nil(t, docs)
	assert.Less(t, time.Since(start), time.Second)
}
