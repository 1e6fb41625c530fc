package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/embedding"
	"ai-casebrief-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	knowledgeChunkSize    = 1500
	knowledgeChunkOverlap = 200
)

type IKnowledgeService interface {
	Enqueue(ctx context.Context, req *dto.IngestKnowledgeRequest) (*dto.IngestKnowledgeResponse, error)
	Ingest(ctx context.Context, msg *dto.EmbedKnowledgeMessage) error
	UpsertTag(ctx context.Context, req *dto.UpsertTagRequest) (*dto.TagResponse, error)
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *knowledgeService) Enqueue(ctx context.Context, req *dto.IngestKnowledgeRequest) (*dto.IngestKnowledgeResponse, error) {
	payload, err := json.Marshal(dto.EmbedKnowledgeMessage{
		DocumentKey: req.DocumentKey,
		Title:       req.Title,
		Content:     req.Content,
	})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, apperr.Transient("knowledge.enqueue", err)
	}
	return &dto.IngestKnowledgeResponse{DocumentKey: req.DocumentKey, Queued: true}, nil
}

// Ingest replaces every chunk of a document with freshly embedded ones.
func (s *knowledgeService) Ingest(ctx context.Context, msg *dto.EmbedKnowledgeMessage) error {
	const op = "knowledge.ingest"

	content := fmt.Sprintf("%s\n\n%s", msg.Title, msg.Content)
	chunks := utils.SplitText(content, knowledgeChunkSize, knowledgeChunkOverlap)

	rows := make([]*entity.KnowledgeChunk, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return apperr.Transient(op, fmt.Errorf("embed chunk %d of %s: %w", i, msg.DocumentKey, err))
		}
		rows = append(rows, &entity.KnowledgeChunk{
			Id:          uuid.New(),
			DocumentKey: msg.DocumentKey,
			Title:       msg.Title,
			Content:     chunk,
			Embedding:   res.Embedding.Values,
			ChunkIndex:  i,
			CreatedAt:   time.Now(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return storageError(op, err)
	}
	defer uow.Rollback()

	if err := uow.KnowledgeChunkRepository().DeleteByDocumentKey(ctx, msg.DocumentKey); err != nil {
		return storageError(op, err)
	}
	if err := uow.KnowledgeChunkRepository().CreateBulk(ctx, rows); err != nil {
		return storageError(op, err)
	}
	if err := uow.Commit(); err != nil {
		return storageError(op, err)
	}

	s.logger.Info("KNOWLEDGE", "Document indexed", map[string]interface{}{
		"document_key": msg.DocumentKey,
		"chunks":       len(rows),
	})
	return nil
}

func (s *knowledgeService) UpsertTag(ctx context.Context, req *dto.UpsertTagRequest) (*dto.TagResponse, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, apperr.Validation("knowledge.tag", "name is required")
	}
	tag := &entity.Tag{
		Id:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).TagRepository().Upsert(ctx, tag); err != nil {
		return nil, storageError("knowledge.tag", err)
	}
	return &dto.TagResponse{Name: tag.Name, Description: tag.Description}, nil
}
