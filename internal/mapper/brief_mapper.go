package mapper

import (
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/model"

	"gorm.io/datatypes"
)

type BriefMapper struct{}

func NewBriefMapper() *BriefMapper {
	return &BriefMapper{}
}

func (m *BriefMapper) ToEntity(b *model.Brief) *entity.Brief {
	if b == nil {
		return nil
	}
	return &entity.Brief{
		Id:                b.Id,
		CaseId:            b.CaseId,
		Audience:          b.Audience,
		DocumentReference: b.DocumentReference,
		GeneratedAt:       b.GeneratedAt,
	}
}

func (m *BriefMapper) ToModel(b *entity.Brief) *model.Brief {
	if b == nil {
		return nil
	}
	return &model.Brief{
		Id:                b.Id,
		CaseId:            b.CaseId,
		Audience:          b.Audience,
		DocumentReference: b.DocumentReference,
		GeneratedAt:       b.GeneratedAt,
	}
}

type ToolInvocationMapper struct{}

func NewToolInvocationMapper() *ToolInvocationMapper {
	return &ToolInvocationMapper{}
}

func (m *ToolInvocationMapper) ToEntity(t *model.ToolInvocation) *entity.ToolInvocation {
	if t == nil {
		return nil
	}
	return &entity.ToolInvocation{
		Id:          t.Id,
		SessionId:   t.SessionId,
		Turn:        t.Turn,
		Tool:        t.Tool,
		Input:       map[string]interface{}(t.Input),
		Observation: t.Observation,
		Failed:      t.Failed,
		DurationMs:  t.DurationMs,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *ToolInvocationMapper) ToModel(t *entity.ToolInvocation) *model.ToolInvocation {
	if t == nil {
		return nil
	}
	return &model.ToolInvocation{
		Id:          t.Id,
		SessionId:   t.SessionId,
		Turn:        t.Turn,
		Tool:        t.Tool,
		Input:       datatypes.JSONMap(t.Input),
		Observation: t.Observation,
		Failed:      t.Failed,
		DurationMs:  t.DurationMs,
		CreatedAt:   t.CreatedAt,
	}
}
