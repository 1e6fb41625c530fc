package contract

import (
	"context"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/specification"
)

type CaseRepository interface {
	// Create fails with apperr.ErrCaseExists when the case id is taken.
	Create(ctx context.Context, c *entity.Case) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// UpdateIfVersion persists c only if the stored version still equals
	// expectedVersion. On success c.Version is bumped; otherwise it returns
	// apperr.ErrVersionConflict and nothing is written.
	UpdateIfVersion(ctx context.Context, c *entity.Case, expectedVersion int64) error
}

type ProcessedActionRepository interface {
	// Record stores the token. It returns false without error when the
	// (case, token) pair was already recorded.
	Record(ctx context.Context, action *entity.ProcessedAction) (bool, error)
	Find(ctx context.Context, caseID, token string) (*entity.ProcessedAction, error)
}
