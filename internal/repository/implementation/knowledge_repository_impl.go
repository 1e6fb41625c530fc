package implementation

import (
	"context"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/mapper"
	"ai-casebrief-be/internal/model"
	"ai-casebrief-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) DeleteByDocumentKey(ctx context.Context, documentKey string) error {
	return r.db.WithContext(ctx).Where("document_key = ?", documentKey).Delete(&model.KnowledgeChunk{}).Error
}

// SearchSimilarWithScore ranks chunks by cosine similarity, 1 - (a <=> b).
func (r *KnowledgeChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredKnowledgeChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KnowledgeChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)
	err := r.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKnowledgeChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredKnowledgeChunk{
			Chunk:      r.mapper.ToEntity(&results[i].KnowledgeChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}

type TagRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewTagRepository(db *gorm.DB) contract.TagRepository {
	return &TagRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *TagRepositoryImpl) Upsert(ctx context.Context, tag *entity.Tag) error {
	m := r.mapper.TagToModel(tag)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*tag = *r.mapper.TagToEntity(m)
	return nil
}

func (r *TagRepositoryImpl) Search(ctx context.Context, query string, limit int) ([]*entity.Tag, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	var models []*model.Tag
	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	tags := make([]*entity.Tag, len(models))
	for i, m := range models {
		tags[i] = r.mapper.TagToEntity(m)
	}
	return tags, nil
}
