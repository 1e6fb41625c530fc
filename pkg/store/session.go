package store

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// TranscriptEntry is one message of a reasoning session.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
}

// ToolInvocation records a single tool execution. Append-only.
type ToolInvocation struct {
	SessionID   string                 `json:"session_id"`
	Turn        int                    `json:"turn"`
	Tool        string                 `json:"tool"`
	Input       map[string]interface{} `json:"input"`
	Observation string                 `json:"observation"`
	Failed      bool                   `json:"failed"`
	StartedAt   time.Time              `json:"started_at"`
	Duration    time.Duration          `json:"duration"`
}

// Session is the resumable state of a case's reasoning, keyed by case id.
type Session struct {
	ID                string            `json:"id"`
	ClientID          string            `json:"client_id"`
	Transcript        []TranscriptEntry `json:"transcript"`
	OutstandingFields []string          `json:"outstanding_fields"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
