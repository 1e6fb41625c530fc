package mapper

import (
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ToEntity(k *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if k == nil {
		return nil
	}
	return &entity.KnowledgeChunk{
		Id:          k.Id,
		DocumentKey: k.DocumentKey,
		Title:       k.Title,
		Content:     k.Content,
		Embedding:   k.EmbeddingValue.Slice(),
		ChunkIndex:  k.ChunkIndex,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

func (m *KnowledgeMapper) ToModel(k *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if k == nil {
		return nil
	}
	return &model.KnowledgeChunk{
		Id:             k.Id,
		DocumentKey:    k.DocumentKey,
		Title:          k.Title,
		Content:        k.Content,
		EmbeddingValue: pgvector.NewVector(k.Embedding),
		ChunkIndex:     k.ChunkIndex,
		CreatedAt:      k.CreatedAt,
		UpdatedAt:      k.UpdatedAt,
	}
}

func (m *KnowledgeMapper) TagToEntity(t *model.Tag) *entity.Tag {
	if t == nil {
		return nil
	}
	return &entity.Tag{Id: t.Id, Name: t.Name, Description: t.Description, CreatedAt: t.CreatedAt}
}

func (m *KnowledgeMapper) TagToModel(t *entity.Tag) *model.Tag {
	if t == nil {
		return nil
	}
	return &model.Tag{Id: t.Id, Name: t.Name, Description: t.Description, CreatedAt: t.CreatedAt}
}
