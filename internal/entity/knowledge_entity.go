package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeChunk is one embedded slice of an internal knowledge document.
type KnowledgeChunk struct {
	Id          uuid.UUID
	DocumentKey string
	Title       string
	Content     string
	Embedding   []float32
	ChunkIndex  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tag struct {
	Id          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}
