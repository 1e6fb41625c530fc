package service

import (
	"context"
	"encoding/json"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber       message.Subscriber
	briefTopic       string
	knowledgeTopic   string
	briefService     IBriefService
	knowledgeService IKnowledgeService
	logger           logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	briefTopic string,
	knowledgeTopic string,
	briefService IBriefService,
	knowledgeService IKnowledgeService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:       subscriber,
		briefTopic:       briefTopic,
		knowledgeTopic:   knowledgeTopic,
		briefService:     briefService,
		knowledgeService: knowledgeService,
		logger:           log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	briefs, err := cs.subscriber.Subscribe(ctx, cs.briefTopic)
	if err != nil {
		return err
	}
	knowledge, err := cs.subscriber.Subscribe(ctx, cs.knowledgeTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range briefs {
			cs.processBriefRequest(ctx, msg)
		}
	}()
	go func() {
		for msg := range knowledge {
			cs.processKnowledge(ctx, msg)
		}
	}()
	return nil
}

func (cs *consumerService) processBriefRequest(ctx context.Context, msg *message.Message) {
	var payload dto.GenerateBriefsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.CaseId == "" {
		cs.logger.Error("BRIEF", "Dropping malformed brief request", map[string]interface{}{"message_id": msg.UUID})
		msg.Ack()
		return
	}

	briefs, err := cs.briefService.GenerateForCase(ctx, payload.CaseId)
	cs.settle(msg, "BRIEF", err, map[string]interface{}{
		"case_id": payload.CaseId,
		"briefs":  len(briefs),
	})
}

func (cs *consumerService) processKnowledge(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedKnowledgeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.DocumentKey == "" {
		cs.logger.Error("KNOWLEDGE", "Dropping malformed knowledge message", map[string]interface{}{"message_id": msg.UUID})
		msg.Ack()
		return
	}

	err := cs.knowledgeService.Ingest(ctx, &payload)
	cs.settle(msg, "KNOWLEDGE", err, map[string]interface{}{"document_key": payload.DocumentKey})
}

// settle Nacks only what a redelivery could fix.
func (cs *consumerService) settle(msg *message.Message, module string, err error, details map[string]interface{}) {
	if err == nil {
		cs.logger.Debug(module, "Message processed", details)
		msg.Ack()
		return
	}
	details["error"] = err.Error()
	if apperr.IsKind(err, apperr.KindTransient) {
		cs.logger.Warn(module, "Message failed, requeueing", details)
		msg.Nack()
		return
	}
	cs.logger.Error(module, "Message failed permanently", details)
	msg.Ack()
}
