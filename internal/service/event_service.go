package service

import (
	"context"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/events"
)

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ReviewNotifier delivers a case to human reviewers.
type ReviewNotifier interface {
	RequestReview(ctx context.Context, c *entity.Case) error
}

// eventBus publishes domain events best effort. A nil publisher is a no-op so
// the service runs without NATS.
type eventBus struct {
	publisher EventPublisher
	logger    logger.ILogger
}

func newEventBus(publisher EventPublisher, log logger.ILogger) *eventBus {
	return &eventBus{publisher: publisher, logger: log}
}

func (b *eventBus) emit(ctx context.Context, e events.Event) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, e); err != nil {
		b.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  e.EventType(),
			"error": err.Error(),
		})
	}
}

type eventReviewNotifier struct {
	publisher EventPublisher
}

// NewReviewNotifier publishes CASE_REVIEW_REQUESTED for the chat transport to render.
func NewReviewNotifier(publisher EventPublisher) ReviewNotifier {
	return &eventReviewNotifier{publisher: publisher}
}

func (n *eventReviewNotifier) RequestReview(ctx context.Context, c *entity.Case) error {
	if n.publisher == nil {
		return nil
	}
	return n.publisher.Publish(ctx, events.CaseReviewRequested(
		c.CaseId, c.ChannelId, c.ThreadTs, c.MissingFields, c.Tags, c.Narrative,
	))
}
