package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/specification"
)

type caseRepository struct {
	uow *UnitOfWork
}

func (r *caseRepository) Create(ctx context.Context, c *entity.Case) error {
	return r.uow.with(func(d *data) error {
		if _, ok := d.cases[c.CaseId]; ok {
			return apperr.Conflict("case.create", apperr.ErrCaseExists)
		}
		if c.Version == 0 {
			c.Version = 1
		}
		now := time.Now()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		d.cases[c.CaseId] = c.Clone()
		return nil
	})
}

func (r *caseRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *caseRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	var out []*entity.Case
	err := r.uow.with(func(d *data) error {
		rows := make([]*entity.Case, 0, len(d.cases))
		for _, c := range d.cases {
			rows = append(rows, c)
		}
		filtered, err := applyCaseSpecs(rows, specs)
		if err != nil {
			return err
		}
		out = make([]*entity.Case, len(filtered))
		for i, c := range filtered {
			out[i] = c.Clone()
		}
		return nil
	})
	return out, err
}

func (r *caseRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var filters []specification.Specification
	for _, s := range specs {
		switch s.(type) {
		case specification.Pagination, specification.OrderBy:
		default:
			filters = append(filters, s)
		}
	}
	all, err := r.FindAll(ctx, filters...)
	return int64(len(all)), err
}

func (r *caseRepository) UpdateIfVersion(ctx context.Context, c *entity.Case, expectedVersion int64) error {
	return r.uow.with(func(d *data) error {
		stored, ok := d.cases[c.CaseId]
		if !ok || stored.Version != expectedVersion {
			return apperr.Conflict("case.update", fmt.Errorf("%w: %s at version %d", apperr.ErrVersionConflict, c.CaseId, expectedVersion))
		}
		c.Version = expectedVersion + 1
		c.UpdatedAt = time.Now()
		c.CreatedAt = stored.CreatedAt
		d.cases[c.CaseId] = c.Clone()
		return nil
	})
}

func applyCaseSpecs(rows []*entity.Case, specs []specification.Specification) ([]*entity.Case, error) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].CaseId < rows[j].CaseId })

	var page *specification.Pagination
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByCaseID:
			rows = filterCases(rows, func(c *entity.Case) bool { return c.CaseId == s.CaseID })
		case specification.ByClientID:
			rows = filterCases(rows, func(c *entity.Case) bool { return c.ClientId == s.ClientID })
		case specification.ByStatus:
			rows = filterCases(rows, func(c *entity.Case) bool { return c.Status == s.Status })
		case specification.ExcludeCaseID:
			rows = filterCases(rows, func(c *entity.Case) bool { return c.CaseId != s.CaseID })
		case specification.OrderBy:
			less, err := caseOrder(s)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		case specification.Pagination:
			p := s
			page = &p
		default:
			return nil, fmt.Errorf("memory store: unsupported specification %T", spec)
		}
	}

	if page != nil {
		if page.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[page.Offset:]
		if page.Limit > 0 && page.Limit < len(rows) {
			rows = rows[:page.Limit]
		}
	}
	return rows, nil
}

func filterCases(rows []*entity.Case, keep func(*entity.Case) bool) []*entity.Case {
	out := rows[:0:0]
	for _, c := range rows {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func caseOrder(o specification.OrderBy) (func(a, b *entity.Case) bool, error) {
	var less func(a, b *entity.Case) bool
	switch o.Field {
	case "updated_at":
		less = func(a, b *entity.Case) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "created_at":
		less = func(a, b *entity.Case) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "case_id":
		less = func(a, b *entity.Case) bool { return a.CaseId < b.CaseId }
	default:
		return nil, fmt.Errorf("memory store: unsupported order field %q", o.Field)
	}
	if o.Desc {
		return func(a, b *entity.Case) bool { return less(b, a) }, nil
	}
	return less, nil
}

type processedActionRepository struct {
	uow *UnitOfWork
}

func (r *processedActionRepository) Record(ctx context.Context, action *entity.ProcessedAction) (bool, error) {
	created := false
	err := r.uow.with(func(d *data) error {
		key := pairKey(action.CaseId, action.Token)
		if _, ok := d.actions[key]; ok {
			return nil
		}
		cp := *action
		d.actions[key] = &cp
		created = true
		return nil
	})
	return created, err
}

func (r *processedActionRepository) Find(ctx context.Context, caseID, token string) (*entity.ProcessedAction, error) {
	var out *entity.ProcessedAction
	err := r.uow.with(func(d *data) error {
		if a, ok := d.actions[pairKey(caseID, token)]; ok {
			cp := *a
			out = &cp
		}
		return nil
	})
	return out, err
}
