package implementation

import (
	"context"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/mapper"
	"ai-casebrief-be/internal/model"
	"ai-casebrief-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ToolInvocationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ToolInvocationMapper
}

func NewToolInvocationRepository(db *gorm.DB) contract.ToolInvocationRepository {
	return &ToolInvocationRepositoryImpl{
		db:     db,
		mapper: mapper.NewToolInvocationMapper(),
	}
}

func (r *ToolInvocationRepositoryImpl) CreateBulk(ctx context.Context, invocations []*entity.ToolInvocation) error {
	if len(invocations) == 0 {
		return nil
	}
	models := make([]*model.ToolInvocation, len(invocations))
	for i, inv := range invocations {
		models[i] = r.mapper.ToModel(inv)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*invocations[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ToolInvocationRepositoryImpl) FindAllBySession(ctx context.Context, sessionID string) ([]*entity.ToolInvocation, error) {
	var models []*model.ToolInvocation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, turn ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entity.ToolInvocation, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}
