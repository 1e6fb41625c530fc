package service

import (
	"context"
	"encoding/json"

	"ai-casebrief-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}

// queuedBriefRequester hands brief generation to the background consumer.
type queuedBriefRequester struct {
	publisher IPublisherService
}

func NewQueuedBriefRequester(publisher IPublisherService) BriefRequester {
	return &queuedBriefRequester{publisher: publisher}
}

func (r *queuedBriefRequester) RequestBriefs(ctx context.Context, caseID string) error {
	payload, err := json.Marshal(dto.GenerateBriefsMessage{CaseId: caseID})
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, payload)
}
