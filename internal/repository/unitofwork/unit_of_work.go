package unitofwork

import (
	"context"

	"ai-casebrief-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CaseRepository() contract.CaseRepository
	ProcessedActionRepository() contract.ProcessedActionRepository
	BriefRepository() contract.BriefRepository
	ToolInvocationRepository() contract.ToolInvocationRepository
	KnowledgeChunkRepository() contract.KnowledgeChunkRepository
	TagRepository() contract.TagRepository
}
