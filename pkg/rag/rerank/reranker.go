package rerank

import (
	"context"
	"time"

	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/rag/source"
	"ai-casebrief-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Reranker fans a query out to every configured source and merges the results.
type Reranker struct {
	sources []*source.Guarded
	cfg     Config
	logger  logger.ILogger
}

func NewReranker(cfg Config, log logger.ILogger, sources ...*source.Guarded) *Reranker {
	return &Reranker{sources: sources, cfg: cfg, logger: log}
}

// Retrieve never fails. Sources that time out or error contribute nothing and
// are listed in RankedContext.Degraded. When only is non-empty, the other
// sources are skipped.
func (r *Reranker) Retrieve(ctx context.Context, query string, only ...store.SourceKind) store.RankedContext {
	selected := r.pick(only)
	batches := make([]Batch, len(selected))
	degraded := make([]bool, len(selected))

	start := time.Now()
	var g errgroup.Group
	for i, src := range selected {
		g.Go(func() error {
			docs, deg := src.Fetch(ctx, query, r.cfg.PerSourceLimit)
			batches[i] = Batch{Source: src.Kind(), Documents: docs}
			degraded[i] = deg
			return nil
		})
	}
	_ = g.Wait()

	out := store.RankedContext{Query: query, Documents: Rerank(batches, r.cfg)}
	for i, deg := range degraded {
		if deg {
			out.Degraded = append(out.Degraded, batches[i].Source)
		}
	}

	r.logger.Debug("RERANK", "Context assembled", map[string]interface{}{
		"query":      query,
		"sources":    len(selected),
		"documents":  len(out.Documents),
		"degraded":   out.Degraded,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return out
}

func (r *Reranker) pick(only []store.SourceKind) []*source.Guarded {
	if len(only) == 0 {
		return r.sources
	}
	want := make(map[store.SourceKind]bool, len(only))
	for _, k := range only {
		want[k] = true
	}
	var out []*source.Guarded
	for _, s := range r.sources {
		if want[s.Kind()] {
			out = append(out, s)
		}
	}
	return out
}
