package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/mapper"
	"ai-casebrief-be/internal/model"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/contract"
	"ai-casebrief-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type CaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseRepository(db *gorm.DB) contract.CaseRepository {
	return &CaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseRepositoryImpl) Create(ctx context.Context, c *entity.Case) error {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	m := r.mapper.ToModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("case.create", apperr.ErrCaseExists)
		}
		return err
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	var m model.Case
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	var models []*model.Case
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Case{}).Count(&count).Error
	return count, err
}

func (r *CaseRepositoryImpl) UpdateIfVersion(ctx context.Context, c *entity.Case, expectedVersion int64) error {
	m := r.mapper.ToModel(c)
	now := time.Now()

	res := r.db.WithContext(ctx).
		Model(&model.Case{}).
		Where("case_id = ? AND version = ?", c.CaseId, expectedVersion).
		Updates(map[string]interface{}{
			"client_id":        m.ClientId,
			"status":           m.Status,
			"client_data":      m.ClientData,
			"tags":             m.Tags,
			"missing_fields":   m.MissingFields,
			"narrative":        m.Narrative,
			"citations":        m.Citations,
			"correction_count": m.CorrectionCount,
			"updated_by":       m.UpdatedBy,
			"version":          expectedVersion + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("case.update", fmt.Errorf("%w: %s at version %d", apperr.ErrVersionConflict, c.CaseId, expectedVersion))
	}

	c.Version = expectedVersion + 1
	c.UpdatedAt = now
	return nil
}

type ProcessedActionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewProcessedActionRepository(db *gorm.DB) contract.ProcessedActionRepository {
	return &ProcessedActionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *ProcessedActionRepositoryImpl) Record(ctx context.Context, action *entity.ProcessedAction) (bool, error) {
	m := r.mapper.ProcessedActionToModel(action)
	res := r.db.WithContext(ctx).Clauses(onConflictDoNothing("case_id", "token")).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	*action = *r.mapper.ProcessedActionToEntity(m)
	return true, nil
}

func (r *ProcessedActionRepositoryImpl) Find(ctx context.Context, caseID, token string) (*entity.ProcessedAction, error) {
	var m model.ProcessedAction
	err := r.db.WithContext(ctx).Where("case_id = ? AND token = ?", caseID, token).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProcessedActionToEntity(&m), nil
}
