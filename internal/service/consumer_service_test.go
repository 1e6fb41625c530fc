package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/pkg/embedding"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitEmbedder struct{}

func (unitEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}}}, nil
}

func TestConsumerIndexesKnowledgeAndGeneratesBriefs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	knowledgePublisher := NewPublisherService("knowledge", pubSub)
	briefPublisher := NewPublisherService("briefs", pubSub)
	knowledge := NewKnowledgeService(store, knowledgePublisher, unitEmbedder{}, logger.NewNop())
	briefs := newBriefFixture(t, lifecycle.StatusConfirmed)

	consumer := NewConsumerService(pubSub, "briefs", "knowledge", briefs.svc, knowledge, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	_, err := knowledge.Enqueue(ctx, &dto.IngestKnowledgeRequest{
		DocumentKey: "venues/lisbon",
		Title:       "Lisbon venues",
		Content:     strings.Repeat("Riverside hall seats 120. ", 100),
	})
	require.NoError(t, err)

	require.NoError(t, NewQueuedBriefRequester(briefPublisher).RequestBriefs(ctx, "C1:1.0"))

	assert.Eventually(t, func() bool {
		chunks, err := store.NewUnitOfWork(ctx).KnowledgeChunkRepository().SearchSimilarWithScore(ctx, []float32{1, 0, 0}, 10, 0)
		return err == nil && len(chunks) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		c := loadCase(t, briefs.store, "C1:1.0")
		return c.Status == string(lifecycle.StatusBriefGenerated)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInboundActionSettlesDuplicates(t *testing.T) {
	f := newActionFixture(t, lifecycle.StatusUnderReview)
	inbound := NewInboundService(nil, nil, f.svc, logger.NewNop())

	payload := map[string]interface{}{}
	raw, _ := json.Marshal(action(lifecycle.ActionConfirm, "msg1"))
	require.NoError(t, json.Unmarshal(raw, &payload))
	e := events.BaseEvent{Type: events.TypeInboundAction, Data: payload, OccurredAt: time.Now()}

	require.NoError(t, inbound.HandleAction(context.Background(), e))
	require.NoError(t, inbound.HandleAction(context.Background(), e))
	assert.Equal(t, 1, f.briefs.count())

	bad := events.BaseEvent{Type: events.TypeInboundAction, Data: map[string]interface{}{"case_id": "C1:1.0", "action_kind": "dance"}}
	assert.NoError(t, inbound.HandleAction(context.Background(), bad))
}
