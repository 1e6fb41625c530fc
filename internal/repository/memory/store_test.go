package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCase(t *testing.T, s *Store, id, client string, updated time.Time) *entity.Case {
	t.Helper()
	c := &entity.Case{CaseId: id, ClientId: client, Status: "UNDER_REVIEW", UpdatedAt: updated}
	require.NoError(t, s.NewUnitOfWork(context.Background()).CaseRepository().Create(context.Background(), c))
	return c
}

func TestCaseRepositoryCreateAndVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := seedCase(t, s, "C1:1", "acme", time.Now())
	assert.Equal(t, int64(1), c.Version)

	repo := s.NewUnitOfWork(ctx).CaseRepository()
	err := repo.Create(ctx, &entity.Case{CaseId: "C1:1"})
	assert.True(t, errors.Is(err, apperr.ErrCaseExists))

	c.Status = "CONFIRMED"
	require.NoError(t, repo.UpdateIfVersion(ctx, c, 1))
	assert.Equal(t, int64(2), c.Version)

	stale := c.Clone()
	stale.Status = "REJECTED"
	err = repo.UpdateIfVersion(ctx, stale, 1)
	assert.True(t, errors.Is(err, apperr.ErrVersionConflict))

	got, err := repo.FindOne(ctx, specification.ByCaseID{CaseID: "C1:1"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", got.Status)
}

func TestCaseRepositoryHistoryQuery(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		seedCase(t, s, id, "acme", base.Add(time.Duration(i)*time.Hour))
	}
	seedCase(t, s, "x", "other", base)

	repo := s.NewUnitOfWork(ctx).CaseRepository()
	got, err := repo.FindAll(ctx,
		specification.ByClientID{ClientID: "acme"},
		specification.ExcludeCaseID{CaseID: "d"},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: 2},
	)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].CaseId)
	assert.Equal(t, "b", got[1].CaseId)

	n, err := repo.Count(ctx, specification.ByClientID{ClientID: "acme"}, specification.Pagination{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestUnitOfWorkRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	uow := s.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.CaseRepository().Create(ctx, &entity.Case{CaseId: "tx"}))
	ok, err := uow.ProcessedActionRepository().Record(ctx, &entity.ProcessedAction{CaseId: "tx", Token: "t1"})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, uow.Rollback())

	got, err := s.NewUnitOfWork(ctx).CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: "tx"})
	require.NoError(t, err)
	assert.Nil(t, got)

	a, err := s.NewUnitOfWork(ctx).ProcessedActionRepository().Find(ctx, "tx", "t1")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestProcessedActionRecordIsOncePerToken(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.NewUnitOfWork(ctx).ProcessedActionRepository().Record(ctx, &entity.ProcessedAction{CaseId: "c", Token: "tok"})
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, ok := range results {
		if ok {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
}

func TestBriefCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().NewUnitOfWork(ctx).BriefRepository()

	first, created, err := repo.CreateIfAbsent(ctx, &entity.Brief{CaseId: "c", Audience: "planner", DocumentReference: "file:///a"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, &entity.Brief{CaseId: "c", Audience: "planner", DocumentReference: "file:///b"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "file:///a", second.DocumentReference)
}

func TestKnowledgeSearchAndTags(t *testing.T) {
	ctx := context.Background()
	uow := NewStore().NewUnitOfWork(ctx)

	require.NoError(t, uow.KnowledgeChunkRepository().CreateBulk(ctx, []*entity.KnowledgeChunk{
		{DocumentKey: "doc", Content: "close", Embedding: []float32{1, 0}},
		{DocumentKey: "doc", Content: "far", Embedding: []float32{0, 1}, ChunkIndex: 1},
	}))
	scored, err := uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, []float32{1, 0.1}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "close", scored[0].Chunk.Content)

	require.NoError(t, uow.KnowledgeChunkRepository().DeleteByDocumentKey(ctx, "doc"))
	scored, err = uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, scored)

	require.NoError(t, uow.TagRepository().Upsert(ctx, &entity.Tag{Name: "beach-resort", Description: "Coastal venues"}))
	require.NoError(t, uow.TagRepository().Upsert(ctx, &entity.Tag{Name: "gala", Description: "Evening events"}))
	tags, err := uow.TagRepository().Search(ctx, "COAST", 10)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "beach-resort", tags[0].Name)
}

func TestSessionRepositoryCopies(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	s := &store.Session{ID: "c1", Transcript: []store.TranscriptEntry{{Role: store.RoleUser, Content: "hi"}}}
	repo.Save(s)
	s.Transcript[0].Content = "mutated"

	got, ok := repo.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "hi", got.Transcript[0].Content)

	repo.Delete("c1")
	_, ok = repo.Get("c1")
	assert.False(t, ok)
}
