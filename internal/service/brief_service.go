package service

import (
	"context"
	"errors"
	"fmt"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/pkg/mailer"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/brief"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"
)

type IBriefService interface {
	GenerateForCase(ctx context.Context, caseID string) ([]*dto.BriefResponse, error)
	ListBriefs(ctx context.Context, caseID string) ([]*dto.BriefResponse, error)
}

type briefService struct {
	uowFactory   unitofwork.RepositoryFactory
	pipeline     *brief.Pipeline
	bus          *eventBus
	transitioner *caseTransitioner
	mailer       mailer.IEmailService
	recipients   map[brief.Audience]string
	logger       logger.ILogger
}

// NewBriefService wires the pipeline's delivery hook; mail is skipped when
// emailService is nil or an audience has no desk address.
func NewBriefService(
	uowFactory unitofwork.RepositoryFactory,
	pipeline *brief.Pipeline,
	emailService mailer.IEmailService,
	publisher EventPublisher,
	cfg config.BriefConfig,
	log logger.ILogger,
) IBriefService {
	bus := newEventBus(publisher, log)
	s := &briefService{
		uowFactory:   uowFactory,
		pipeline:     pipeline,
		bus:          bus,
		transitioner: newCaseTransitioner(uowFactory, bus, log),
		mailer:       emailService,
		recipients: map[brief.Audience]string{
			brief.AudiencePlanner: cfg.PlannerEmail,
			brief.AudienceManager: cfg.ManagerEmail,
		},
		logger: log,
	}
	pipeline.OnGenerated(s.deliver)
	return s
}

// GenerateForCase renders every audience's brief and, once all exist, moves a
// confirmed case to BRIEF_GENERATED. Safe to call repeatedly.
func (s *briefService) GenerateForCase(ctx context.Context, caseID string) ([]*dto.BriefResponse, error) {
	const op = "brief.generate_for_case"

	c, err := s.uowFactory.NewUnitOfWork(ctx).CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: caseID})
	if err != nil {
		return nil, storageError(op, err)
	}
	if c == nil {
		return nil, apperr.NotFound(op, fmt.Errorf("%w: %s", apperr.ErrCaseNotFound, caseID))
	}
	status := lifecycle.Status(c.Status)
	if status != lifecycle.StatusConfirmed && status != lifecycle.StatusBriefGenerated {
		return nil, apperr.Conflict(op, fmt.Errorf("%w: briefs need a confirmed case, %s is %s", apperr.ErrIllegalTransition, caseID, status))
	}

	results := s.pipeline.GenerateAll(ctx, brief.SnapshotOf(c))
	out := make([]*dto.BriefResponse, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Audience, r.Err))
			continue
		}
		out = append(out, toBriefResponse(r.Brief))
	}
	if len(errs) > 0 {
		return out, joinAudienceErrors(op, errs)
	}

	if status == lifecycle.StatusConfirmed {
		_, err := s.transitioner.apply(ctx, caseID, lifecycle.TriggerBriefsGenerated, nil)
		// A concurrent worker may already have advanced the case.
		if err != nil && !errors.Is(err, apperr.ErrIllegalTransition) {
			return out, err
		}
	}
	return out, nil
}

// joinAudienceErrors combines per-audience failures. Any transient part makes
// the whole retryable, otherwise a redelivery would skip that audience.
func joinAudienceErrors(op string, errs []error) error {
	joined := errors.Join(errs...)
	for _, err := range errs {
		if apperr.IsKind(err, apperr.KindTransient) && !apperr.IsKind(joined, apperr.KindTransient) {
			return apperr.Transient(op, joined)
		}
	}
	return joined
}

func (s *briefService) ListBriefs(ctx context.Context, caseID string) ([]*dto.BriefResponse, error) {
	briefs, err := s.uowFactory.NewUnitOfWork(ctx).BriefRepository().FindAllByCase(ctx, caseID)
	if err != nil {
		return nil, storageError("brief.list", err)
	}
	out := make([]*dto.BriefResponse, len(briefs))
	for i, b := range briefs {
		out[i] = toBriefResponse(b)
	}
	return out, nil
}

func (s *briefService) deliver(ctx context.Context, b *entity.Brief) {
	s.bus.emit(ctx, events.BriefGenerated(b.CaseId, b.Audience, b.DocumentReference))

	to := s.recipients[brief.Audience(b.Audience)]
	if s.mailer == nil || to == "" {
		return
	}
	if err := s.mailer.SendBriefReady(to, b.CaseId, b.Audience, b.DocumentReference); err != nil {
		s.logger.Warn("BRIEF", "Failed to mail brief", map[string]interface{}{
			"case_id":  b.CaseId,
			"audience": b.Audience,
			"error":    err.Error(),
		})
	}
}

func toBriefResponse(b *entity.Brief) *dto.BriefResponse {
	return &dto.BriefResponse{
		Audience:          b.Audience,
		DocumentReference: b.DocumentReference,
		GeneratedAt:       b.GeneratedAt,
	}
}
