package source

import (
	"context"
	"errors"
	"testing"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/pkg/embedding"
	"ai-casebrief-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vec}}, nil
}

func TestInternalAdapterFetch(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	require.NoError(t, mem.NewUnitOfWork(ctx).KnowledgeChunkRepository().CreateBulk(ctx, []*entity.KnowledgeChunk{
		{DocumentKey: "playbook", Title: "Venue playbook", Content: "Bali venues", Embedding: []float32{1, 0}, ChunkIndex: 2},
	}))

	docs, err := NewInternalAdapter(fakeEmbedder{vec: []float32{1, 0}}, mem, 0.5).Fetch(ctx, "bali", 5)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "playbook#2", docs[0].ID)
	assert.Equal(t, store.SourceInternal, docs[0].Source)
	assert.InDelta(t, 1.0, docs[0].RawScore, 1e-9)
	assert.False(t, docs[0].Timestamp.IsZero())
}

func TestInternalAdapterEmbedErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewInternalAdapter(fakeEmbedder{err: errors.New("dial tcp: refused")}, memory.NewStore(), 0).Fetch(ctx, "q", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindTransient))

	_, err = NewInternalAdapter(fakeEmbedder{err: &embedding.StatusError{StatusCode: 400}}, memory.NewStore(), 0).Fetch(ctx, "q", 1)
	assert.False(t, apperr.IsKind(err, apperr.KindTransient))
}
