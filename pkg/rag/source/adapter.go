package source

import (
	"context"
	"errors"
	"net"
	"time"

	"ai-casebrief-be/internal/metrics"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/store"

	"github.com/cenkalti/backoff/v5"
)

// Adapter fetches raw candidates for a query from one knowledge source.
// Transient failures should be returned as apperr kind Transient so the
// guard retries them; anything else is given up on immediately.
type Adapter interface {
	Kind() store.SourceKind
	Fetch(ctx context.Context, query string, limit int) ([]store.CandidateDocument, error)
}

type GuardConfig struct {
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	return c
}

// Guarded bounds an Adapter with a hard timeout and a few retries. Its Fetch
// never fails: an unreachable source yields an empty batch and degraded=true.
type Guarded struct {
	adapter Adapter
	cfg     GuardConfig
	logger  logger.ILogger
}

func NewGuarded(adapter Adapter, cfg GuardConfig, log logger.ILogger) *Guarded {
	return &Guarded{adapter: adapter, cfg: cfg.withDefaults(), logger: log}
}

func (g *Guarded) Kind() store.SourceKind {
	return g.adapter.Kind()
}

func (g *Guarded) Fetch(ctx context.Context, query string, limit int) ([]store.CandidateDocument, bool) {
	kind := g.adapter.Kind()
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.InitialInterval

	docs, err := backoff.Retry(ctx, func() ([]store.CandidateDocument, error) {
		docs, err := g.adapter.Fetch(ctx, query, limit)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return docs, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(g.cfg.MaxAttempts))

	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			reason = "timeout"
		}
		metrics.RetrievalDegraded.WithLabelValues(string(kind), reason).Inc()
		g.logger.Warn("SOURCE", "Source degraded to empty result", map[string]interface{}{
			"source": kind,
			"reason": reason,
			"error":  err.Error(),
		})
		return nil, true
	}

	out := make([]store.CandidateDocument, 0, len(docs))
	for _, d := range docs {
		if limit > 0 && len(out) == limit {
			break
		}
		d.Source = kind
		out = append(out, d)
	}
	return out, false
}

func retryable(err error) bool {
	if apperr.IsKind(err, apperr.KindTransient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
