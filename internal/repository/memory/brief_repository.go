package memory

import (
	"context"
	"sort"
	"time"

	"ai-casebrief-be/internal/entity"

	"github.com/google/uuid"
)

type briefRepository struct {
	uow *UnitOfWork
}

func (r *briefRepository) FindByCaseAndAudience(ctx context.Context, caseID, audience string) (*entity.Brief, error) {
	var out *entity.Brief
	err := r.uow.with(func(d *data) error {
		if b, ok := d.briefs[pairKey(caseID, audience)]; ok {
			cp := *b
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *briefRepository) FindAllByCase(ctx context.Context, caseID string) ([]*entity.Brief, error) {
	var out []*entity.Brief
	err := r.uow.with(func(d *data) error {
		for _, b := range d.briefs {
			if b.CaseId == caseID {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Audience < out[j].Audience })
	return out, err
}

func (r *briefRepository) CreateIfAbsent(ctx context.Context, b *entity.Brief) (*entity.Brief, bool, error) {
	var stored entity.Brief
	created := false
	err := r.uow.with(func(d *data) error {
		key := pairKey(b.CaseId, b.Audience)
		if existing, ok := d.briefs[key]; ok {
			stored = *existing
			return nil
		}
		cp := *b
		if cp.Id == uuid.Nil {
			cp.Id = uuid.New()
		}
		if cp.GeneratedAt.IsZero() {
			cp.GeneratedAt = time.Now()
		}
		d.briefs[key] = &cp
		stored = cp
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

type toolInvocationRepository struct {
	uow *UnitOfWork
}

func (r *toolInvocationRepository) CreateBulk(ctx context.Context, invocations []*entity.ToolInvocation) error {
	return r.uow.with(func(d *data) error {
		for _, inv := range invocations {
			if inv.Id == uuid.Nil {
				inv.Id = uuid.New()
			}
			if inv.CreatedAt.IsZero() {
				inv.CreatedAt = time.Now()
			}
			cp := *inv
			d.invocations = append(d.invocations, &cp)
		}
		return nil
	})
}

func (r *toolInvocationRepository) FindAllBySession(ctx context.Context, sessionID string) ([]*entity.ToolInvocation, error) {
	var out []*entity.ToolInvocation
	err := r.uow.with(func(d *data) error {
		for _, inv := range d.invocations {
			if inv.SessionId == sessionID {
				cp := *inv
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}
