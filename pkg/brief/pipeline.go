package brief

import (
	"context"
	"fmt"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/metrics"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/contract"
	"ai-casebrief-be/internal/repository/unitofwork"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	Audiences      []Audience
	RequiredFields []string
	LockTTL        time.Duration
	WaitTimeout    time.Duration
	RenderTimeout  time.Duration
	PollInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Audiences:     []Audience{AudiencePlanner, AudienceManager},
		LockTTL:       2 * time.Minute,
		WaitTimeout:   30 * time.Second,
		RenderTimeout: 30 * time.Second,
		PollInterval:  200 * time.Millisecond,
	}
}

// Result is the outcome for one audience of GenerateAll.
type Result struct {
	Audience Audience
	Brief    *entity.Brief
	Err      error
}

// Pipeline renders each (case, audience) brief at most once. Calls in the
// same process are coalesced; calls on other workers are excluded by the
// flight lock and then find the stored row.
type Pipeline struct {
	uowFactory  unitofwork.RepositoryFactory
	lock        contract.FlightLock
	renderer    Renderer
	cfg         Config
	logger      logger.ILogger
	group       singleflight.Group
	onGenerated func(ctx context.Context, b *entity.Brief)
	now         func() time.Time
}

func NewPipeline(
	uowFactory unitofwork.RepositoryFactory,
	lock contract.FlightLock,
	renderer Renderer,
	cfg Config,
	log logger.ILogger,
) *Pipeline {
	def := DefaultConfig()
	if len(cfg.Audiences) == 0 {
		cfg.Audiences = def.Audiences
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = def.WaitTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = def.RenderTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &Pipeline{
		uowFactory: uowFactory,
		lock:       lock,
		renderer:   renderer,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
	}
}

// OnGenerated registers a hook run once per brief, by the call that stored it.
func (p *Pipeline) OnGenerated(fn func(ctx context.Context, b *entity.Brief)) {
	p.onGenerated = fn
}

func (p *Pipeline) Audiences() []Audience {
	return p.cfg.Audiences
}

// Generate returns the brief for (s, a), rendering it if needed. The shared
// flight is bounded by LockTTL rather than by any one caller's ctx, so a
// caller that gives up does not fail the others.
func (p *Pipeline) Generate(ctx context.Context, s Snapshot, a Audience) (*entity.Brief, error) {
	key := s.CaseID + "|" + string(a)
	ch := p.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.LockTTL)
		defer cancel()
		return p.generate(flightCtx, s, a, key)
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Transient("brief.generate", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		b := *res.Val.(*entity.Brief)
		if res.Shared {
			p.logger.Debug("BRIEF", "Joined in-flight generation", map[string]interface{}{"key": key})
		}
		return &b, nil
	}
}

// GenerateAll runs every configured audience in parallel. One audience
// failing does not stop the others.
func (p *Pipeline) GenerateAll(ctx context.Context, s Snapshot) []Result {
	results := make([]Result, len(p.cfg.Audiences))
	var g errgroup.Group
	for i, a := range p.cfg.Audiences {
		g.Go(func() error {
			b, err := p.Generate(ctx, s, a)
			results[i] = Result{Audience: a, Brief: b, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) generate(ctx context.Context, s Snapshot, a Audience, key string) (*entity.Brief, error) {
	const op = "brief.generate"

	if existing, err := p.find(ctx, s.CaseID, a); err != nil || existing != nil {
		return existing, err
	}

	lockKey := "brief:" + key
	acquired, err := p.lock.Acquire(ctx, lockKey, p.cfg.LockTTL)
	if err != nil {
		return nil, apperr.Transient(op, fmt.Errorf("acquire %s: %w", lockKey, err))
	}
	if !acquired {
		return p.await(ctx, s.CaseID, a)
	}
	defer func() {
		if err := p.lock.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			p.logger.Warn("BRIEF", "Failed to release flight lock", map[string]interface{}{
				"key":   lockKey,
				"error": err.Error(),
			})
		}
	}()

	// Another worker may have finished between the first lookup and the lock.
	if existing, err := p.find(ctx, s.CaseID, a); err != nil || existing != nil {
		return existing, err
	}

	content := BuildContent(s, a, p.cfg.RequiredFields, p.now())
	renderCtx, cancel := context.WithTimeout(ctx, p.cfg.RenderTimeout)
	ref, err := p.renderer.Render(renderCtx, content)
	cancel()
	if err != nil {
		metrics.BriefFailures.WithLabelValues(string(a)).Inc()
		p.logger.Error("BRIEF", "Render failed", map[string]interface{}{
			"case_id":  s.CaseID,
			"audience": a,
			"error":    err.Error(),
		})
		return nil, apperr.Transient(op, err)
	}

	stored, created, err := p.uowFactory.NewUnitOfWork(ctx).BriefRepository().CreateIfAbsent(ctx, &entity.Brief{
		CaseId:            s.CaseID,
		Audience:          string(a),
		DocumentReference: ref,
		GeneratedAt:       content.GeneratedAt,
	})
	if err != nil {
		metrics.BriefFailures.WithLabelValues(string(a)).Inc()
		return nil, apperr.Fatal(op, fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err))
	}
	if created {
		metrics.BriefsGenerated.WithLabelValues(string(a)).Inc()
		p.logger.Info("BRIEF", "Brief generated", map[string]interface{}{
			"case_id":   s.CaseID,
			"audience":  a,
			"reference": ref,
		})
		if p.onGenerated != nil {
			p.onGenerated(ctx, stored)
		}
	}
	return stored, nil
}

func (p *Pipeline) find(ctx context.Context, caseID string, a Audience) (*entity.Brief, error) {
	b, err := p.uowFactory.NewUnitOfWork(ctx).BriefRepository().FindByCaseAndAudience(ctx, caseID, string(a))
	if err != nil {
		return nil, apperr.Fatal("brief.find", fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err))
	}
	return b, nil
}

// await polls for the brief another worker is producing.
func (p *Pipeline) await(ctx context.Context, caseID string, a Audience) (*entity.Brief, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.WaitTimeout)
	defer cancel()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, apperr.Transient("brief.await", apperr.ErrBriefInFlight)
		case <-ticker.C:
			b, err := p.find(ctx, caseID, a)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				return nil, err
			}
			if b != nil {
				return b, nil
			}
		}
	}
}
