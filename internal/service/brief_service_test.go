package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/lock"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/pkg/brief"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	mu    sync.Mutex
	calls int
	fail  brief.Audience
}

func (r *stubRenderer) Render(ctx context.Context, c brief.Content) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if c.Audience == r.fail {
		return "", errors.New("template store unavailable")
	}
	return "mem://" + brief.FileName(c.CaseID, c.Audience), nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) SendBriefReady(toEmail, caseID, audience, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+"|"+audience)
	return nil
}

type briefFixture struct {
	store     *memory.Store
	renderer  *stubRenderer
	mailer    *recordingMailer
	publisher *recordingPublisher
	svc       IBriefService
}

func newBriefFixture(t *testing.T, status lifecycle.Status) *briefFixture {
	f := &briefFixture{
		store:     memory.NewStore(),
		renderer:  &stubRenderer{},
		mailer:    &recordingMailer{},
		publisher: &recordingPublisher{},
	}
	seedCase(t, f.store, "C1:1.0", "acme", string(status))
	pipeline := brief.NewPipeline(f.store, lock.NewMemoryLock(), f.renderer, brief.Config{
		WaitTimeout:  time.Second,
		PollInterval: 5 * time.Millisecond,
	}, logger.NewNop())
	f.svc = NewBriefService(f.store, pipeline, f.mailer, f.publisher, config.BriefConfig{
		PlannerEmail: "planning@example.com",
	}, logger.NewNop())
	return f
}

func TestGenerateForCaseAdvancesToBriefGenerated(t *testing.T) {
	f := newBriefFixture(t, lifecycle.StatusConfirmed)

	briefs, err := f.svc.GenerateForCase(context.Background(), "C1:1.0")
	require.NoError(t, err)
	require.Len(t, briefs, 2)
	assert.Equal(t, string(lifecycle.StatusBriefGenerated), loadCase(t, f.store, "C1:1.0").Status)

	assert.Equal(t, 2, f.publisher.count(events.TypeBriefGenerated))
	assert.Equal(t, []string{"planning@example.com|planner"}, f.mailer.sent)

	// Repeated generation is a no-op that returns the stored references.
	again, err := f.svc.GenerateForCase(context.Background(), "C1:1.0")
	require.NoError(t, err)
	assert.Equal(t, briefs, again)
	assert.Equal(t, 2, f.renderer.calls)
	assert.Equal(t, 2, f.publisher.count(events.TypeBriefGenerated))
}

func TestGenerateForCaseOneAudienceFailing(t *testing.T) {
	f := newBriefFixture(t, lifecycle.StatusConfirmed)
	f.renderer.fail = brief.AudienceManager

	briefs, err := f.svc.GenerateForCase(context.Background(), "C1:1.0")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTransient))
	require.Len(t, briefs, 1)
	assert.Equal(t, "planner", briefs[0].Audience)
	assert.Equal(t, string(lifecycle.StatusConfirmed), loadCase(t, f.store, "C1:1.0").Status)

	f.renderer.fail = ""
	_, err = f.svc.GenerateForCase(context.Background(), "C1:1.0")
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusBriefGenerated), loadCase(t, f.store, "C1:1.0").Status)
	assert.Equal(t, 3, f.renderer.calls)
}

func TestJoinAudienceErrorsKeepsRetryableFailures(t *testing.T) {
	storageDown := apperr.Fatal("brief.generate", apperr.ErrStorageUnavailable)
	renderDown := apperr.Transient("brief.generate", errors.New("renderer timeout"))

	tests := []struct {
		name string
		errs []error
		want apperr.Kind
	}{
		{"fatal then transient", []error{storageDown, renderDown}, apperr.KindTransient},
		{"transient then fatal", []error{renderDown, storageDown}, apperr.KindTransient},
		{"fatal only", []error{storageDown}, apperr.KindFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := joinAudienceErrors("brief.generate_for_case", tt.errs)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			for _, e := range tt.errs {
				assert.ErrorIs(t, err, e)
			}
		})
	}
}

func TestGenerateForCaseRequiresConfirmation(t *testing.T) {
	f := newBriefFixture(t, lifecycle.StatusUnderReview)

	_, err := f.svc.GenerateForCase(context.Background(), "C1:1.0")
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)
	assert.Equal(t, 0, f.renderer.calls)

	_, err = f.svc.GenerateForCase(context.Background(), "C1:404")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
