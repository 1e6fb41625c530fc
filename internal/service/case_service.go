package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"
	"ai-casebrief-be/pkg/rag/dispatch"
	"ai-casebrief-be/pkg/store"

	"github.com/google/uuid"
)

const (
	EventStatusUnderReview     = "under_review"
	EventStatusRefreshed       = "refreshed"
	EventStatusNeedsEscalation = "needs_escalation"
	EventStatusConflict        = "conflict"
)

// Reasoner is satisfied by *dispatch.Dispatcher.
type Reasoner interface {
	Run(ctx context.Context, in dispatch.Input) (*dispatch.Report, error)
}

// SessionStore is satisfied by *memory.SessionRepository.
type SessionStore interface {
	Save(session *store.Session)
	Get(sessionID string) (*store.Session, bool)
	Delete(sessionID string)
}

type ICaseService interface {
	SubmitEvent(ctx context.Context, req *dto.SubmitEventRequest) (*dto.SubmitEventResponse, error)
	GetCase(ctx context.Context, caseID string) (*dto.CaseResponse, error)
	ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error)
	ListToolInvocations(ctx context.Context, caseID string) ([]*dto.ToolInvocationResponse, error)
}

type caseService struct {
	uowFactory   unitofwork.RepositoryFactory
	reasoner     Reasoner
	sessions     SessionStore
	notifier     ReviewNotifier
	bus          *eventBus
	transitioner *caseTransitioner
	logger       logger.ILogger
	historyLimit int
}

func NewCaseService(
	uowFactory unitofwork.RepositoryFactory,
	reasoner Reasoner,
	sessions SessionStore,
	notifier ReviewNotifier,
	publisher EventPublisher,
	cfg config.LifecycleConfig,
	log logger.ILogger,
) ICaseService {
	bus := newEventBus(publisher, log)
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 5
	}
	return &caseService{
		uowFactory:   uowFactory,
		reasoner:     reasoner,
		sessions:     sessions,
		notifier:     notifier,
		bus:          bus,
		transitioner: newCaseTransitioner(uowFactory, bus, log),
		logger:       log,
		historyLimit: limit,
	}
}

// CaseID derives the case identity from its conversation thread.
func CaseID(channelID, threadTs string) string {
	return channelID + ":" + threadTs
}

var clientPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)client[:\s]+([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`@([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`#([A-Za-z0-9_-]+)`),
}

// ExtractClientID finds a client reference in free text, falling back to a
// stable hash bucket of the text.
func ExtractClientID(text string) string {
	for _, p := range clientPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.ToLower(m[1])
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("client_%d", h.Sum32()%10000)
}

func (s *caseService) SubmitEvent(ctx context.Context, req *dto.SubmitEventRequest) (*dto.SubmitEventResponse, error) {
	const op = "case.submit_event"

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.Validation(op, "text is required")
	}
	if req.ChannelId == "" || req.ThreadTs == "" {
		return nil, apperr.Validation(op, "channel_id and thread_ts are required")
	}

	caseID := CaseID(req.ChannelId, req.ThreadTs)
	clientID := strings.TrimSpace(req.ClientId)
	if clientID == "" {
		clientID = ExtractClientID(text)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: caseID})
	if err != nil {
		return nil, storageError(op, err)
	}
	if existing != nil {
		switch lifecycle.Status(existing.Status) {
		case lifecycle.StatusCreated, lifecycle.StatusCorrected:
			// A previous delivery never reached reviewers.
			return s.redeliver(ctx, existing)
		}
		if existing.Status != string(lifecycle.StatusUnderReview) {
			return &dto.SubmitEventResponse{
				Status:     EventStatusConflict,
				CaseId:     caseID,
				CaseStatus: existing.Status,
			}, apperr.Conflict(op, fmt.Errorf("%w: case %s is %s", apperr.ErrIllegalTransition, caseID, existing.Status))
		}
		clientID = existing.ClientId
	}

	history, err := s.history(ctx, clientID, caseID)
	if err != nil {
		return nil, err
	}

	input := dispatch.Input{
		CaseID:      caseID,
		ClientID:    clientID,
		Text:        text,
		Attachments: req.Attachments,
		History:     history,
	}
	if existing != nil {
		input.ClientData = existing.ClientData
		input.OutstandingFields = existing.MissingFields
		if sess, ok := s.sessions.Get(caseID); ok {
			input.Prior = sess.Transcript
		}
	}

	report, runErr := s.reasoner.Run(ctx, input)
	if report != nil {
		s.persistInvocations(ctx, caseID, report.Invocations)
	}
	if runErr != nil {
		if apperr.IsKind(runErr, apperr.KindTurnBudgetExceeded) {
			s.bus.emit(ctx, events.CaseEscalated(caseID, string(dispatch.OutcomeTurnBudgetExceeded)))
			return &dto.SubmitEventResponse{Status: EventStatusNeedsEscalation, CaseId: caseID}, runErr
		}
		return nil, runErr
	}

	result := report.Result
	s.sessions.Save(&store.Session{
		ID:                caseID,
		ClientID:          clientID,
		Transcript:        report.Transcript,
		OutstandingFields: result.MissingFields,
		UpdatedAt:         time.Now(),
	})

	if existing != nil {
		return s.refresh(ctx, caseID, result)
	}
	return s.open(ctx, req, caseID, clientID, result)
}

// open creates the case and hands it to reviewers.
func (s *caseService) open(ctx context.Context, req *dto.SubmitEventRequest, caseID, clientID string, result *dispatch.Result) (*dto.SubmitEventResponse, error) {
	const op = "case.open"

	c := &entity.Case{
		CaseId:        caseID,
		ClientId:      clientID,
		ChannelId:     req.ChannelId,
		ThreadTs:      req.ThreadTs,
		Status:        string(lifecycle.StatusCreated),
		ClientData:    mergeResultData(nil, result),
		Tags:          result.Tags,
		MissingFields: result.MissingFields,
		Narrative:     result.Narrative,
		Citations:     result.Citations,
		UpdatedBy:     req.UserId,
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).CaseRepository().Create(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrCaseExists) {
			return &dto.SubmitEventResponse{Status: EventStatusConflict, CaseId: caseID}, err
		}
		return nil, storageError(op, err)
	}
	s.bus.emit(ctx, events.CaseCreated(caseID, clientID))

	resp := &dto.SubmitEventResponse{
		Status:        EventStatusUnderReview,
		CaseId:        caseID,
		CaseStatus:    c.Status,
		MissingFields: c.MissingFields,
		Tags:          c.Tags,
		Narrative:     c.Narrative,
	}

	// The case stays CREATED until reviewers have actually been reached.
	delivered, err := s.deliver(ctx, op, c)
	if err != nil {
		return resp, err
	}
	resp.CaseStatus = delivered.Status
	return resp, nil
}

// redeliver retries review delivery for a case that is waiting on it.
func (s *caseService) redeliver(ctx context.Context, c *entity.Case) (*dto.SubmitEventResponse, error) {
	resp := &dto.SubmitEventResponse{
		Status:        EventStatusUnderReview,
		CaseId:        c.CaseId,
		CaseStatus:    c.Status,
		MissingFields: c.MissingFields,
		Tags:          c.Tags,
		Narrative:     c.Narrative,
	}
	delivered, err := s.deliver(ctx, "case.redeliver", c)
	if err != nil {
		if delivered != nil {
			resp.Status = EventStatusConflict
			resp.CaseStatus = delivered.Status
		}
		return resp, err
	}
	resp.CaseStatus = delivered.Status
	return resp, nil
}

// deliver hands c to reviewers and moves it to UNDER_REVIEW. A failed
// delivery leaves the status untouched and is reported as transient.
func (s *caseService) deliver(ctx context.Context, op string, c *entity.Case) (*entity.Case, error) {
	if err := s.notifier.RequestReview(ctx, c); err != nil {
		s.logger.Error("LIFECYCLE", "Review delivery failed", map[string]interface{}{
			"case_id": c.CaseId,
			"status":  c.Status,
			"error":   err.Error(),
		})
		return nil, apperr.Transient(op, err)
	}
	return s.transitioner.apply(ctx, c.CaseId, lifecycle.TriggerDelivered, nil)
}

// refresh folds a resumed session's result into a case under review.
func (s *caseService) refresh(ctx context.Context, caseID string, result *dispatch.Result) (*dto.SubmitEventResponse, error) {
	updated, err := s.transitioner.apply(ctx, caseID, lifecycle.TriggerRefreshed, func(c *entity.Case) {
		c.ClientData = mergeResultData(c.ClientData, result)
		c.Tags = result.Tags
		c.MissingFields = result.MissingFields
		if result.Narrative != "" {
			c.Narrative = result.Narrative
		}
		if len(result.Citations) > 0 {
			c.Citations = result.Citations
		}
	})
	if err != nil {
		if updated != nil {
			return &dto.SubmitEventResponse{Status: EventStatusConflict, CaseId: caseID, CaseStatus: updated.Status}, err
		}
		return nil, err
	}
	if err := s.notifier.RequestReview(ctx, updated); err != nil {
		s.logger.Warn("LIFECYCLE", "Review re-delivery failed", map[string]interface{}{
			"case_id": caseID,
			"error":   err.Error(),
		})
	}
	return &dto.SubmitEventResponse{
		Status:        EventStatusRefreshed,
		CaseId:        caseID,
		CaseStatus:    updated.Status,
		MissingFields: updated.MissingFields,
		Tags:          updated.Tags,
		Narrative:     updated.Narrative,
	}, nil
}

func mergeResultData(base map[string]interface{}, result *dispatch.Result) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(result.ClientData)+1)
	for k, v := range base {
		out[k] = v
	}
	for k, v := range result.ClientData {
		out[k] = v
	}
	if len(result.CompetitiveAnalysis) > 0 {
		out["competitive_analysis"] = result.CompetitiveAnalysis
	}
	if len(result.FollowUpQuestions) > 0 {
		out["follow_up_questions"] = result.FollowUpQuestions
	}
	return out
}

func (s *caseService) history(ctx context.Context, clientID, caseID string) ([]string, error) {
	cases, err := s.uowFactory.NewUnitOfWork(ctx).CaseRepository().FindAll(ctx,
		specification.ByClientID{ClientID: clientID},
		specification.ExcludeCaseID{CaseID: caseID},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: s.historyLimit},
	)
	if err != nil {
		return nil, storageError("case.history", err)
	}
	lines := make([]string, 0, len(cases))
	for _, c := range cases {
		line := fmt.Sprintf("%s [%s]", c.CaseId, c.Status)
		if c.Narrative != "" {
			line += ": " + c.Narrative
		}
		if len(c.Tags) > 0 {
			line += " (tags: " + strings.Join(c.Tags, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// persistInvocations stores the session's audit trail. Failures are logged only;
// the isolated audit log already holds every invocation.
func (s *caseService) persistInvocations(ctx context.Context, caseID string, invocations []store.ToolInvocation) {
	if len(invocations) == 0 {
		return
	}
	rows := make([]*entity.ToolInvocation, len(invocations))
	for i, inv := range invocations {
		rows[i] = &entity.ToolInvocation{
			Id:          uuid.New(),
			SessionId:   caseID,
			Turn:        inv.Turn,
			Tool:        inv.Tool,
			Input:       inv.Input,
			Observation: inv.Observation,
			Failed:      inv.Failed,
			DurationMs:  inv.Duration.Milliseconds(),
			CreatedAt:   inv.StartedAt,
		}
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).ToolInvocationRepository().CreateBulk(ctx, rows); err != nil {
		s.logger.Error("DISPATCH", "Failed to persist tool invocations", map[string]interface{}{
			"case_id": caseID,
			"count":   len(rows),
			"error":   err.Error(),
		})
	}
}

func (s *caseService) GetCase(ctx context.Context, caseID string) (*dto.CaseResponse, error) {
	const op = "case.get"
	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.CaseRepository().FindOne(ctx, specification.ByCaseID{CaseID: caseID})
	if err != nil {
		return nil, storageError(op, err)
	}
	if c == nil {
		return nil, apperr.NotFound(op, fmt.Errorf("%w: %s", apperr.ErrCaseNotFound, caseID))
	}
	briefs, err := uow.BriefRepository().FindAllByCase(ctx, caseID)
	if err != nil {
		return nil, storageError(op, err)
	}
	resp := toCaseResponse(c)
	for _, b := range briefs {
		resp.Briefs = append(resp.Briefs, dto.BriefResponse{
			Audience:          b.Audience,
			DocumentReference: b.DocumentReference,
			GeneratedAt:       b.GeneratedAt,
		})
	}
	return resp, nil
}

func (s *caseService) ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error) {
	const op = "case.list"
	var filters []specification.Specification
	if req.Status != "" {
		if !lifecycle.Status(req.Status).Valid() {
			return nil, apperr.Validation(op, fmt.Sprintf("unknown status %q", req.Status))
		}
		filters = append(filters, specification.ByStatus{Status: req.Status})
	}
	if req.ClientId != "" {
		filters = append(filters, specification.ByClientID{ClientID: req.ClientId})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.CaseRepository().Count(ctx, filters...)
	if err != nil {
		return nil, storageError(op, err)
	}
	specs := append(filters,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	cases, err := uow.CaseRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, storageError(op, err)
	}

	out := &dto.ListCasesResponse{Cases: make([]*dto.CaseResponse, 0, len(cases)), Total: total}
	for _, c := range cases {
		out.Cases = append(out.Cases, toCaseResponse(c))
	}
	return out, nil
}

func (s *caseService) ListToolInvocations(ctx context.Context, caseID string) ([]*dto.ToolInvocationResponse, error) {
	rows, err := s.uowFactory.NewUnitOfWork(ctx).ToolInvocationRepository().FindAllBySession(ctx, caseID)
	if err != nil {
		return nil, storageError("case.tool_invocations", err)
	}
	out := make([]*dto.ToolInvocationResponse, len(rows))
	for i, r := range rows {
		out[i] = &dto.ToolInvocationResponse{
			Turn:        r.Turn,
			Tool:        r.Tool,
			Input:       r.Input,
			Observation: r.Observation,
			Failed:      r.Failed,
			DurationMs:  r.DurationMs,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out, nil
}

func toCaseResponse(c *entity.Case) *dto.CaseResponse {
	return &dto.CaseResponse{
		CaseId:          c.CaseId,
		ClientId:        c.ClientId,
		ChannelId:       c.ChannelId,
		ThreadTs:        c.ThreadTs,
		Status:          c.Status,
		ClientData:      c.ClientData,
		Tags:            c.Tags,
		MissingFields:   c.MissingFields,
		Narrative:       c.Narrative,
		Citations:       c.Citations,
		CorrectionCount: c.CorrectionCount,
		UpdatedBy:       c.UpdatedBy,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
