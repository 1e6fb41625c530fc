package implementation

import (
	"context"
	"errors"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/mapper"
	"ai-casebrief-be/internal/model"
	"ai-casebrief-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func onConflictDoNothing(columns ...string) clause.OnConflict {
	cols := make([]clause.Column, len(columns))
	for i, c := range columns {
		cols[i] = clause.Column{Name: c}
	}
	return clause.OnConflict{Columns: cols, DoNothing: true}
}

type BriefRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BriefMapper
}

func NewBriefRepository(db *gorm.DB) contract.BriefRepository {
	return &BriefRepositoryImpl{
		db:     db,
		mapper: mapper.NewBriefMapper(),
	}
}

func (r *BriefRepositoryImpl) FindByCaseAndAudience(ctx context.Context, caseID, audience string) (*entity.Brief, error) {
	var m model.Brief
	err := r.db.WithContext(ctx).Where("case_id = ? AND audience = ?", caseID, audience).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BriefRepositoryImpl) FindAllByCase(ctx context.Context, caseID string) ([]*entity.Brief, error) {
	var models []*model.Brief
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Order("audience ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	briefs := make([]*entity.Brief, len(models))
	for i, m := range models {
		briefs[i] = r.mapper.ToEntity(m)
	}
	return briefs, nil
}

func (r *BriefRepositoryImpl) CreateIfAbsent(ctx context.Context, b *entity.Brief) (*entity.Brief, bool, error) {
	m := r.mapper.ToModel(b)
	res := r.db.WithContext(ctx).Clauses(onConflictDoNothing("case_id", "audience")).Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return r.mapper.ToEntity(m), true, nil
	}

	existing, err := r.FindByCaseAndAudience(ctx, b.CaseId, b.Audience)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
