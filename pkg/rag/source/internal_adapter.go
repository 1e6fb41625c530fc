package source

import (
	"context"
	"errors"
	"fmt"

	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/embedding"
	"ai-casebrief-be/pkg/store"
)

// InternalAdapter searches the organization's own knowledge chunks by
// embedding similarity.
type InternalAdapter struct {
	embedder   embedding.EmbeddingProvider
	uowFactory unitofwork.RepositoryFactory
	threshold  float64
}

func NewInternalAdapter(embedder embedding.EmbeddingProvider, uowFactory unitofwork.RepositoryFactory, threshold float64) *InternalAdapter {
	return &InternalAdapter{embedder: embedder, uowFactory: uowFactory, threshold: threshold}
}

func (a *InternalAdapter) Kind() store.SourceKind {
	return store.SourceInternal
}

func (a *InternalAdapter) Fetch(ctx context.Context, query string, limit int) ([]store.CandidateDocument, error) {
	res, err := a.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		var statusErr *embedding.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, apperr.Transient("source.internal.embed", err)
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, limit, a.threshold)
	if err != nil {
		return nil, apperr.Transient("source.internal.search", err)
	}

	docs := make([]store.CandidateDocument, 0, len(scored))
	for _, s := range scored {
		ts := s.Chunk.UpdatedAt
		if ts.IsZero() {
			ts = s.Chunk.CreatedAt
		}
		docs = append(docs, store.CandidateDocument{
			Source:    store.SourceInternal,
			ID:        fmt.Sprintf("%s#%d", s.Chunk.DocumentKey, s.Chunk.ChunkIndex),
			Title:     s.Chunk.Title,
			Snippet:   s.Chunk.Content,
			RawScore:  s.Similarity,
			Timestamp: ts,
			Metadata:  map[string]interface{}{"document_key": s.Chunk.DocumentKey},
		})
	}
	return docs, nil
}
