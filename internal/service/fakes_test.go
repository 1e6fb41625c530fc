package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/pkg/events"
	"ai-casebrief-be/pkg/rag/dispatch"

	"github.com/stretchr/testify/require"
)

type fakeReasoner struct {
	mu     sync.Mutex
	inputs []dispatch.Input
	run    func(in dispatch.Input) (*dispatch.Report, error)
}

func (f *fakeReasoner) Run(ctx context.Context, in dispatch.Input) (*dispatch.Report, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	return f.run(in)
}

func (f *fakeReasoner) lastInput() dispatch.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func succeedWith(result dispatch.Result) func(dispatch.Input) (*dispatch.Report, error) {
	return func(in dispatch.Input) (*dispatch.Report, error) {
		r := result
		return &dispatch.Report{Outcome: dispatch.OutcomeSuccess, Result: &r, ModelTurns: 1}, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *fakeNotifier) RequestReview(ctx context.Context, c *entity.Case) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c.CaseId)
	return n.err
}

type fakeBriefRequester struct {
	mu    sync.Mutex
	cases []string
}

func (r *fakeBriefRequester) RequestBriefs(ctx context.Context, caseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases = append(r.cases, caseID)
	return nil
}

func (r *fakeBriefRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cases)
}

func seedCase(t *testing.T, store *memory.Store, id, client, status string) *entity.Case {
	t.Helper()
	c := &entity.Case{
		CaseId:        id,
		ClientId:      client,
		Status:        status,
		ClientData:    map[string]interface{}{"event_type": "offsite"},
		Tags:          []string{"corporate"},
		MissingFields: []string{"budget", "attendees"},
		Narrative:     "Offsite for " + client,
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, store.NewUnitOfWork(context.Background()).CaseRepository().Create(context.Background(), c))
	return c
}

func loadCase(t *testing.T, store *memory.Store, id string) *entity.Case {
	t.Helper()
	c, err := store.NewUnitOfWork(context.Background()).CaseRepository().
		FindOne(context.Background(), specification.ByCaseID{CaseID: id})
	require.NoError(t, err)
	require.NotNil(t, c, "case %s not found", id)
	return c
}
