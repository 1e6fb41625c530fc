package mapper

import (
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/model"

	"gorm.io/datatypes"
)

type CaseMapper struct{}

func NewCaseMapper() *CaseMapper {
	return &CaseMapper{}
}

func (m *CaseMapper) ToEntity(c *model.Case) *entity.Case {
	if c == nil {
		return nil
	}
	clientData := make(map[string]interface{}, len(c.ClientData))
	for k, v := range c.ClientData {
		clientData[k] = v
	}
	return &entity.Case{
		CaseId:          c.CaseId,
		ClientId:        c.ClientId,
		ChannelId:       c.ChannelId,
		ThreadTs:        c.ThreadTs,
		Status:          c.Status,
		ClientData:      clientData,
		Tags:            append([]string(nil), c.Tags...),
		MissingFields:   append([]string(nil), c.MissingFields...),
		Narrative:       c.Narrative,
		Citations:       append([]string(nil), c.Citations...),
		CorrectionCount: c.CorrectionCount,
		UpdatedBy:       c.UpdatedBy,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (m *CaseMapper) ToModel(c *entity.Case) *model.Case {
	if c == nil {
		return nil
	}
	return &model.Case{
		CaseId:          c.CaseId,
		ClientId:        c.ClientId,
		ChannelId:       c.ChannelId,
		ThreadTs:        c.ThreadTs,
		Status:          c.Status,
		ClientData:      datatypes.JSONMap(c.ClientData),
		Tags:            datatypes.JSONSlice[string](c.Tags),
		MissingFields:   datatypes.JSONSlice[string](c.MissingFields),
		Narrative:       c.Narrative,
		Citations:       datatypes.JSONSlice[string](c.Citations),
		CorrectionCount: c.CorrectionCount,
		UpdatedBy:       c.UpdatedBy,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (m *CaseMapper) ToEntities(cases []*model.Case) []*entity.Case {
	entities := make([]*entity.Case, len(cases))
	for i, c := range cases {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *CaseMapper) ProcessedActionToEntity(a *model.ProcessedAction) *entity.ProcessedAction {
	if a == nil {
		return nil
	}
	return &entity.ProcessedAction{
		Id:              a.Id,
		CaseId:          a.CaseId,
		Token:           a.Token,
		ActionKind:      a.ActionKind,
		Actor:           a.Actor,
		ResultingStatus: a.ResultingStatus,
		CaseVersion:     a.CaseVersion,
		ProcessedAt:     a.ProcessedAt,
	}
}

func (m *CaseMapper) ProcessedActionToModel(a *entity.ProcessedAction) *model.ProcessedAction {
	if a == nil {
		return nil
	}
	return &model.ProcessedAction{
		Id:              a.Id,
		CaseId:          a.CaseId,
		Token:           a.Token,
		ActionKind:      a.ActionKind,
		Actor:           a.Actor,
		ResultingStatus: a.ResultingStatus,
		CaseVersion:     a.CaseVersion,
		ProcessedAt:     a.ProcessedAt,
	}
}
