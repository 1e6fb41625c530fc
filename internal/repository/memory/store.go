package memory

import (
	"context"
	"fmt"
	"sync"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/contract"
	"ai-casebrief-be/internal/repository/unitofwork"
)

type data struct {
	cases       map[string]*entity.Case
	actions     map[string]*entity.ProcessedAction
	briefs      map[string]*entity.Brief
	invocations []*entity.ToolInvocation
	chunks      []*entity.KnowledgeChunk
	tags        map[string]*entity.Tag
}

func newData() *data {
	return &data{
		cases:   make(map[string]*entity.Case),
		actions: make(map[string]*entity.ProcessedAction),
		briefs:  make(map[string]*entity.Brief),
		tags:    make(map[string]*entity.Tag),
	}
}

// clone copies everything a transaction may mutate. Rows are replaced, never
// edited in place, so the untouched ones can be shared.
func (d *data) clone() *data {
	out := newData()
	for k, v := range d.cases {
		out.cases[k] = v
	}
	for k, v := range d.actions {
		out.actions[k] = v
	}
	for k, v := range d.briefs {
		out.briefs[k] = v
	}
	for k, v := range d.tags {
		out.tags[k] = v
	}
	out.invocations = append(out.invocations, d.invocations...)
	out.chunks = append(out.chunks, d.chunks...)
	return out
}

func pairKey(a, b string) string {
	return a + "\x00" + b
}

// Store is an in-process replacement for Postgres. A transaction holds the
// store lock from Begin until Commit or Rollback, so transactions serialize.
type Store struct {
	mu   sync.Mutex
	data *data
}

func NewStore() *Store {
	return &Store{data: newData()}
}

var _ unitofwork.RepositoryFactory = (*Store)(nil)

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: s}
}

type UnitOfWork struct {
	store *Store
	tx    *data
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.tx = u.store.data.clone()
	return nil
}

func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.store.data = u.tx
	u.tx = nil
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	u.tx = nil
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) with(fn func(d *data) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn(u.store.data)
}

func (u *UnitOfWork) CaseRepository() contract.CaseRepository {
	return &caseRepository{uow: u}
}

func (u *UnitOfWork) ProcessedActionRepository() contract.ProcessedActionRepository {
	return &processedActionRepository{uow: u}
}

func (u *UnitOfWork) BriefRepository() contract.BriefRepository {
	return &briefRepository{uow: u}
}

func (u *UnitOfWork) ToolInvocationRepository() contract.ToolInvocationRepository {
	return &toolInvocationRepository{uow: u}
}

func (u *UnitOfWork) KnowledgeChunkRepository() contract.KnowledgeChunkRepository {
	return &knowledgeChunkRepository{uow: u}
}

func (u *UnitOfWork) TagRepository() contract.TagRepository {
	return &tagRepository{uow: u}
}
