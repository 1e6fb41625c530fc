package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/metrics"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"

	"github.com/google/uuid"
)

const (
	ActionStatusApplied   = "applied"
	ActionStatusDuplicate = "duplicate"
	ActionStatusConflict  = "conflict"
)

// BriefRequester schedules brief generation for a confirmed case.
type BriefRequester interface {
	RequestBriefs(ctx context.Context, caseID string) error
}

type IActionService interface {
	SubmitAction(ctx context.Context, req *dto.SubmitActionRequest) (*dto.SubmitActionResponse, error)
}

type actionService struct {
	uowFactory     unitofwork.RepositoryFactory
	briefs         BriefRequester
	notifier       ReviewNotifier
	bus            *eventBus
	transitioner   *caseTransitioner
	logger         logger.ILogger
	maxCorrections int
}

func NewActionService(
	uowFactory unitofwork.RepositoryFactory,
	briefs BriefRequester,
	notifier ReviewNotifier,
	publisher EventPublisher,
	cfg config.LifecycleConfig,
	log logger.ILogger,
) IActionService {
	bus := newEventBus(publisher, log)
	maxCorrections := cfg.MaxCorrections
	if maxCorrections <= 0 {
		maxCorrections = 3
	}
	return &actionService{
		uowFactory:     uowFactory,
		briefs:         briefs,
		notifier:       notifier,
		bus:            bus,
		transitioner:   newCaseTransitioner(uowFactory, bus, log),
		logger:         log,
		maxCorrections: maxCorrections,
	}
}

// DedupeToken identifies one logical button press.
func DedupeToken(messageTs string, action lifecycle.Trigger, actor string) string {
	return fmt.Sprintf("%s:%s:%s", messageTs, action, actor)
}

// SubmitAction applies a reviewer action at most once per dedupe token.
// Duplicates and conflicts return a response together with a Conflict error;
// callers treat both as benign.
func (s *actionService) SubmitAction(ctx context.Context, req *dto.SubmitActionRequest) (*dto.SubmitActionResponse, error) {
	const op = "action.submit"

	action, err := lifecycle.ParseAction(req.ActionKind)
	if err != nil {
		return nil, err
	}
	if req.CaseId == "" || req.Actor == "" || req.MessageTs == "" {
		return nil, apperr.Validation(op, "case_id, actor and message_ts are required")
	}
	if req.Delta != nil && !action.IsCorrection() {
		return nil, apperr.Validation(op, fmt.Sprintf("%s does not accept a delta", action))
	}
	token := DedupeToken(req.MessageTs, action, req.Actor)

	applied, from, err := s.apply(ctx, req, action, token)
	if err != nil {
		return s.resolveRejection(ctx, req.CaseId, token, err)
	}

	s.logger.Info("LIFECYCLE", "Action applied", map[string]interface{}{
		"case_id": applied.CaseId,
		"action":  action,
		"actor":   req.Actor,
		"from":    from,
		"to":      applied.Status,
		"version": applied.Version,
	})
	if from != lifecycle.Status(applied.Status) {
		s.transitioner.recordTransition(ctx, applied, from, lifecycle.Status(applied.Status), action, req.Actor)
	}
	s.afterCommit(ctx, applied, action, req.Actor)

	return &dto.SubmitActionResponse{
		Status:         ActionStatusApplied,
		CaseId:         applied.CaseId,
		ResultingState: applied.Status,
		Version:        applied.Version,
	}, nil
}

// apply runs the token check, guard and version-checked write in one transaction.
func (s *actionService) apply(ctx context.Context, req *dto.SubmitActionRequest, action lifecycle.Trigger, token string) (*entity.Case, lifecycle.Status, error) {
	const op = "action.apply"

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, "", storageError(op, err)
	}
	defer uow.Rollback()

	seen, err := uow.ProcessedActionRepository().Find(ctx, req.CaseId, token)
	if err != nil {
		return nil, "", storageError(op, err)
	}
	if seen != nil {
		return nil, "", apperr.Conflict(op, apperr.ErrDuplicateAction)
	}

	current, err := uow.CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: req.CaseId})
	if err != nil {
		return nil, "", storageError(op, err)
	}
	if current == nil {
		return nil, "", apperr.NotFound(op, fmt.Errorf("%w: %s", apperr.ErrCaseNotFound, req.CaseId))
	}

	from := lifecycle.Status(current.Status)
	to, err := lifecycle.Next(from, action)
	if err != nil {
		return nil, from, err
	}
	if action.IsCorrection() && current.CorrectionCount >= s.maxCorrections {
		return nil, from, apperr.Conflict(op, fmt.Errorf("%w: %d corrections", apperr.ErrCorrectionLimit, current.CorrectionCount))
	}

	next := current.Clone()
	if to != from || action.IsCorrection() {
		next.Status = string(to)
		next.UpdatedBy = req.Actor
		if action.IsCorrection() {
			next.CorrectionCount++
			applyDelta(next, req.Delta)
		}
		if err := uow.CaseRepository().UpdateIfVersion(ctx, next, current.Version); err != nil {
			return nil, from, storageError(op, err)
		}
	}

	recorded, err := uow.ProcessedActionRepository().Record(ctx, &entity.ProcessedAction{
		Id:              uuid.New(),
		CaseId:          req.CaseId,
		Token:           token,
		ActionKind:      string(action),
		Actor:           req.Actor,
		ResultingStatus: next.Status,
		CaseVersion:     next.Version,
		ProcessedAt:     time.Now(),
	})
	if err != nil {
		return nil, from, storageError(op, err)
	}
	if !recorded {
		return nil, from, apperr.Conflict(op, apperr.ErrDuplicateAction)
	}

	if err := uow.Commit(); err != nil {
		return nil, from, storageError(op, err)
	}
	return next, from, nil
}

// resolveRejection answers a rejected action. A version conflict whose token
// has since been recorded was a concurrent duplicate, not a real conflict.
func (s *actionService) resolveRejection(ctx context.Context, caseID, token string, cause error) (*dto.SubmitActionResponse, error) {
	if !apperr.IsKind(cause, apperr.KindConflict) {
		return nil, cause
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	seen, err := uow.ProcessedActionRepository().Find(ctx, caseID, token)
	if err != nil {
		return nil, storageError("action.resolve", err)
	}
	if seen != nil {
		metrics.LifecycleRejections.WithLabelValues("duplicate").Inc()
		s.logger.Info("LIFECYCLE", "Duplicate action ignored", map[string]interface{}{
			"case_id": caseID,
			"token":   token,
		})
		return &dto.SubmitActionResponse{
			Status:         ActionStatusDuplicate,
			CaseId:         caseID,
			ResultingState: seen.ResultingStatus,
			Version:        seen.CaseVersion,
		}, apperr.Conflict("action.submit", apperr.ErrDuplicateAction)
	}

	reason := "conflict"
	switch {
	case errors.Is(cause, apperr.ErrIllegalTransition):
		reason = "illegal_transition"
	case errors.Is(cause, apperr.ErrCorrectionLimit):
		reason = "correction_limit"
	case errors.Is(cause, apperr.ErrVersionConflict):
		reason = "version_conflict"
	}
	metrics.LifecycleRejections.WithLabelValues(reason).Inc()

	resp := &dto.SubmitActionResponse{Status: ActionStatusConflict, CaseId: caseID, Error: cause.Error()}
	if current, err := uow.CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: caseID}); err == nil && current != nil {
		resp.ResultingState = current.Status
		resp.Version = current.Version
	}
	s.logger.Warn("LIFECYCLE", "Action rejected", map[string]interface{}{
		"case_id": caseID,
		"token":   token,
		"reason":  reason,
	})
	return resp, cause
}

// afterCommit runs the side effects of a freshly applied action. They run
// once because a duplicate never reaches this point.
func (s *actionService) afterCommit(ctx context.Context, c *entity.Case, action lifecycle.Trigger, actor string) {
	switch {
	case action == lifecycle.ActionConfirm, action == lifecycle.ActionPushToPlanner:
		if err := s.briefs.RequestBriefs(ctx, c.CaseId); err != nil {
			s.logger.Error("BRIEF", "Failed to schedule briefs", map[string]interface{}{
				"case_id": c.CaseId,
				"error":   err.Error(),
			})
		}
	case action == lifecycle.ActionRemindLater:
		s.bus.emit(ctx, events.CaseReminder(c.CaseId, actor))
	case action.IsCorrection():
		if err := s.notifier.RequestReview(ctx, c); err != nil {
			s.logger.Error("LIFECYCLE", "Corrected case not re-delivered", map[string]interface{}{
				"case_id": c.CaseId,
				"error":   err.Error(),
			})
			return
		}
		if _, err := s.transitioner.apply(ctx, c.CaseId, lifecycle.TriggerDelivered, nil); err != nil {
			s.logger.Error("LIFECYCLE", "Corrected case not moved back to review", map[string]interface{}{
				"case_id": c.CaseId,
				"error":   err.Error(),
			})
		}
	}
}

func applyDelta(c *entity.Case, delta *dto.CaseDelta) {
	if delta == nil {
		return
	}
	if c.ClientData == nil {
		c.ClientData = map[string]interface{}{}
	}
	for k, v := range delta.ClientData {
		c.ClientData[k] = v
	}
	if delta.Tags != nil {
		c.Tags = append([]string(nil), delta.Tags...)
	}
	if delta.MissingFields != nil {
		c.MissingFields = append([]string(nil), delta.MissingFields...)
	} else if len(delta.ClientData) > 0 {
		// Supplied fields are no longer missing.
		kept := c.MissingFields[:0]
		for _, f := range c.MissingFields {
			if _, ok := delta.ClientData[f]; !ok {
				kept = append(kept, f)
			}
		}
		c.MissingFields = kept
	}
}
