package dto

type IngestKnowledgeRequest struct {
	DocumentKey string `json:"document_key" validate:"required,max=255"`
	Title       string `json:"title" validate:"required,max=255"`
	Content     string `json:"content" validate:"required"`
}

type IngestKnowledgeResponse struct {
	DocumentKey string `json:"document_key"`
	Queued      bool   `json:"queued"`
}

// EmbedKnowledgeMessage is the watermill payload for the embedding consumer.
type EmbedKnowledgeMessage struct {
	DocumentKey string `json:"document_key"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

type UpsertTagRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type TagResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
