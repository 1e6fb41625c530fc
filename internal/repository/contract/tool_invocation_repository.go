package contract

import (
	"context"

	"ai-casebrief-be/internal/entity"
)

type ToolInvocationRepository interface {
	CreateBulk(ctx context.Context, invocations []*entity.ToolInvocation) error
	FindAllBySession(ctx context.Context, sessionID string) ([]*entity.ToolInvocation, error)
}
