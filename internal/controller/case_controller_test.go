package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaseService struct {
	event    *dto.SubmitEventResponse
	eventErr error
	lastID   string
}

func (s *stubCaseService) SubmitEvent(ctx context.Context, req *dto.SubmitEventRequest) (*dto.SubmitEventResponse, error) {
	return s.event, s.eventErr
}

func (s *stubCaseService) GetCase(ctx context.Context, caseID string) (*dto.CaseResponse, error) {
	s.lastID = caseID
	if caseID == "missing" {
		return nil, apperr.NotFound("case.get", apperr.ErrCaseNotFound)
	}
	return &dto.CaseResponse{CaseId: caseID, Status: "UNDER_REVIEW"}, nil
}

func (s *stubCaseService) ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error) {
	return &dto.ListCasesResponse{}, nil
}

func (s *stubCaseService) ListToolInvocations(ctx context.Context, caseID string) ([]*dto.ToolInvocationResponse, error) {
	return nil, nil
}

type stubActionService struct {
	res *dto.SubmitActionResponse
	err error
}

func (s *stubActionService) SubmitAction(ctx context.Context, req *dto.SubmitActionRequest) (*dto.SubmitActionResponse, error) {
	return s.res, s.err
}

type stubBriefService struct {
	briefs []*dto.BriefResponse
	err    error
}

func (s *stubBriefService) GenerateForCase(ctx context.Context, caseID string) ([]*dto.BriefResponse, error) {
	return s.briefs, s.err
}

func (s *stubBriefService) ListBriefs(ctx context.Context, caseID string) ([]*dto.BriefResponse, error) {
	return s.briefs, nil
}

func newTestApp(cs *stubCaseService, as *stubActionService, bs *stubBriefService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewCaseController(cs, as, bs).RegisterRoutes(app.Group("/api"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSubmitEvent_ValidationFails(t *testing.T) {
	app := newTestApp(&stubCaseService{}, &stubActionService{}, &stubBriefService{})

	resp, body := postJSON(t, app, "/api/v1/events", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestSubmitEvent_Escalation(t *testing.T) {
	cs := &stubCaseService{
		event:    &dto.SubmitEventResponse{Status: "needs_escalation", CaseId: "C1:1"},
		eventErr: apperr.TurnBudget("case.submit_event", 6),
	}
	app := newTestApp(cs, &stubActionService{}, &stubBriefService{})

	resp, body := postJSON(t, app, "/api/v1/events", dto.SubmitEventRequest{
		Text: "wedding", UserId: "U1", ChannelId: "C1", ThreadTs: "1",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "needs_escalation", data["status"])
}

func TestSubmitAction_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		res        *dto.SubmitActionResponse
		err        error
		wantStatus int
		wantResult string
	}{
		{"applied", &dto.SubmitActionResponse{Status: "applied", ResultingState: "CONFIRMED"}, nil, 200, "applied"},
		{"duplicate", &dto.SubmitActionResponse{Status: "duplicate"}, apperr.Conflict("action", apperr.ErrDuplicateAction), 200, "duplicate"},
		{"not found", nil, apperr.NotFound("action", apperr.ErrCaseNotFound), 404, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubCaseService{}, &stubActionService{res: tt.res, err: tt.err}, &stubBriefService{})
			resp, body := postJSON(t, app, "/api/v1/actions", dto.SubmitActionRequest{
				CaseId: "C1:1", ActionKind: "confirm_correct", Actor: "U2", MessageTs: "2",
			})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantResult != "" {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, tt.wantResult, data["status"])
			}
		})
	}
}

func TestShow_DecodesCaseID(t *testing.T) {
	cs := &stubCaseService{}
	app := newTestApp(cs, &stubActionService{}, &stubBriefService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cases/C1%3A171.5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "C1:171.5", cs.lastID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cases/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateBriefs_PartialFailure(t *testing.T) {
	bs := &stubBriefService{
		briefs: []*dto.BriefResponse{{Audience: "planner", DocumentReference: "file:///tmp/p.md"}},
		err:    apperr.Transient("brief.generate", apperr.ErrBriefInFlight),
	}
	app := newTestApp(&stubCaseService{}, &stubActionService{}, bs)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/cases/C1:1/briefs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, resp)
	assert.Len(t, body["data"], 1)
}
