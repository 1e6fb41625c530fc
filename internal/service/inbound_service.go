package service

import (
	"context"
	"encoding/json"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/events"
	pktNats "ai-casebrief-be/pkg/nats"
)

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IInboundService interface {
	Start(ctx context.Context) error
	HandleMessage(ctx context.Context, e events.Event) error
	HandleAction(ctx context.Context, e events.Event) error
}

// inboundService feeds chat transport events from the bus into the core.
type inboundService struct {
	subscriber    EventSubscriber
	caseService   ICaseService
	actionService IActionService
	logger        logger.ILogger
}

func NewInboundService(subscriber EventSubscriber, caseService ICaseService, actionService IActionService, log logger.ILogger) IInboundService {
	return &inboundService{
		subscriber:    subscriber,
		caseService:   caseService,
		actionService: actionService,
		logger:        log,
	}
}

func (s *inboundService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pktNats.Subject(events.TypeInboundMessage), "casebrief-inbound-messages", s.HandleMessage); err != nil {
		return err
	}
	return s.subscriber.Subscribe(ctx, pktNats.Subject(events.TypeInboundAction), "casebrief-inbound-actions", s.HandleAction)
}

func (s *inboundService) HandleMessage(ctx context.Context, e events.Event) error {
	var req dto.SubmitEventRequest
	if err := decodePayload(e, &req); err != nil {
		s.logger.Error("EVENTS", "Undecodable inbound message", map[string]interface{}{"error": err.Error()})
		return nil
	}
	_, err := s.caseService.SubmitEvent(ctx, &req)
	return s.redeliverable(e, err)
}

func (s *inboundService) HandleAction(ctx context.Context, e events.Event) error {
	var req dto.SubmitActionRequest
	if err := decodePayload(e, &req); err != nil {
		s.logger.Error("EVENTS", "Undecodable inbound action", map[string]interface{}{"error": err.Error()})
		return nil
	}
	_, err := s.actionService.SubmitAction(ctx, &req)
	return s.redeliverable(e, err)
}

// redeliverable returns err only when the bus should redeliver the event.
// Validation, conflicts and escalations are final outcomes.
func (s *inboundService) redeliverable(e events.Event, err error) error {
	if err == nil {
		return nil
	}
	kind := apperr.KindOf(err)
	details := map[string]interface{}{"type": e.EventType(), "kind": kind, "error": err.Error()}
	switch kind {
	case apperr.KindTransient:
		s.logger.Warn("EVENTS", "Inbound event failed, will retry", details)
		return err
	case apperr.KindFatal:
		s.logger.Error("EVENTS", "Inbound event failed", details)
		return err
	}
	s.logger.Info("EVENTS", "Inbound event settled without change", details)
	return nil
}

func decodePayload(e events.Event, v interface{}) error {
	raw, err := json.Marshal(e.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
