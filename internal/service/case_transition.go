package service

import (
	"context"
	"errors"
	"fmt"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/metrics"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"
)

const systemActor = "system"

// caseTransitioner applies system triggers. Unlike human actions these are
// retried on a version conflict, since the trigger is still wanted after a
// concurrent edit.
type caseTransitioner struct {
	uowFactory unitofwork.RepositoryFactory
	bus        *eventBus
	logger     logger.ILogger
	maxRetries int
}

func newCaseTransitioner(uowFactory unitofwork.RepositoryFactory, bus *eventBus, log logger.ILogger) *caseTransitioner {
	return &caseTransitioner{uowFactory: uowFactory, bus: bus, logger: log, maxRetries: 3}
}

// apply moves caseID along t. mutate, when set, edits the copy before it is
// written. An illegal transition returns a Conflict error and changes nothing.
func (t *caseTransitioner) apply(ctx context.Context, caseID string, trig lifecycle.Trigger, mutate func(c *entity.Case)) (*entity.Case, error) {
	const op = "case.transition"
	var lastErr error

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		uow := t.uowFactory.NewUnitOfWork(ctx)
		current, err := uow.CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: caseID})
		if err != nil {
			return nil, storageError(op, err)
		}
		if current == nil {
			return nil, apperr.NotFound(op, fmt.Errorf("%w: %s", apperr.ErrCaseNotFound, caseID))
		}

		from := lifecycle.Status(current.Status)
		to, err := lifecycle.Next(from, trig)
		if err != nil {
			metrics.LifecycleRejections.WithLabelValues("illegal_transition").Inc()
			return current, err
		}

		next := current.Clone()
		if mutate != nil {
			mutate(next)
		}
		next.Status = string(to)
		next.UpdatedBy = systemActor

		err = uow.CaseRepository().UpdateIfVersion(ctx, next, current.Version)
		if errors.Is(err, apperr.ErrVersionConflict) {
			lastErr = err
			t.logger.Debug("LIFECYCLE", "Version moved, retrying system transition", map[string]interface{}{
				"case_id": caseID,
				"trigger": trig,
				"attempt": attempt + 1,
			})
			continue
		}
		if err != nil {
			return nil, storageError(op, err)
		}

		t.recordTransition(ctx, next, from, to, trig, systemActor)
		return next, nil
	}
	return nil, lastErr
}

func (t *caseTransitioner) recordTransition(ctx context.Context, c *entity.Case, from, to lifecycle.Status, trig lifecycle.Trigger, actor string) {
	metrics.LifecycleTransitions.WithLabelValues(string(from), string(to), string(trig)).Inc()
	t.logger.Info("LIFECYCLE", "Case transitioned", map[string]interface{}{
		"case_id": c.CaseId,
		"from":    from,
		"to":      to,
		"trigger": trig,
		"actor":   actor,
		"version": c.Version,
	})
	t.bus.emit(ctx, events.CaseTransitioned(c.CaseId, string(from), string(to), string(trig), actor, c.Version))
}

// storageError marks an unclassified repository failure as fatal.
func storageError(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Fatal(op, fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err))
}
