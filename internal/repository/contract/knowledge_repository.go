package contract

import (
	"context"

	"ai-casebrief-be/internal/entity"
)

// ScoredKnowledgeChunk wraps a chunk with its cosine similarity.
type ScoredKnowledgeChunk struct {
	Chunk      *entity.KnowledgeChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type KnowledgeChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error
	DeleteByDocumentKey(ctx context.Context, documentKey string) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredKnowledgeChunk, error)
}

type TagRepository interface {
	Upsert(ctx context.Context, tag *entity.Tag) error
	Search(ctx context.Context, query string, limit int) ([]*entity.Tag, error)
}
