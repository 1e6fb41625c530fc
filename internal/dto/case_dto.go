package dto

import "time"

// SubmitEventRequest is an inbound chat message already verified by the transport.
type SubmitEventRequest struct {
	Text        string   `json:"text" validate:"required,max=20000"`
	ClientId    string   `json:"client_id" validate:"omitempty,max=128"`
	UserId      string   `json:"user_id" validate:"required"`
	ChannelId   string   `json:"channel_id" validate:"required"`
	ThreadTs    string   `json:"thread_ts" validate:"required"`
	MessageTs   string   `json:"message_ts"`
	Attachments []string `json:"attachments,omitempty" validate:"max=20"`
}

// SubmitEventResponse.Status is one of under_review, refreshed,
// needs_escalation, conflict.
type SubmitEventResponse struct {
	Status        string   `json:"status"`
	CaseId        string   `json:"case_id,omitempty"`
	CaseStatus    string   `json:"case_status,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Narrative     string   `json:"narrative,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type CaseDelta struct {
	ClientData    map[string]interface{} `json:"client_data,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	MissingFields []string               `json:"missing_fields,omitempty"`
}

// SubmitActionRequest is a reviewer button press. MessageTs identifies the
// review message the button belongs to.
type SubmitActionRequest struct {
	CaseId     string     `json:"case_id" validate:"required"`
	ActionKind string     `json:"action_kind" validate:"required"`
	Actor      string     `json:"actor" validate:"required"`
	MessageTs  string     `json:"message_ts" validate:"required"`
	Delta      *CaseDelta `json:"delta,omitempty"`
}

// SubmitActionResponse.Status is one of applied, duplicate, conflict.
type SubmitActionResponse struct {
	Status         string `json:"status"`
	CaseId         string `json:"case_id"`
	ResultingState string `json:"resulting_state"`
	Version        int64  `json:"version"`
	Error          string `json:"error,omitempty"`
}

type BriefResponse struct {
	Audience          string    `json:"audience"`
	DocumentReference string    `json:"document_reference"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type CaseResponse struct {
	CaseId          string                 `json:"case_id"`
	ClientId        string                 `json:"client_id"`
	ChannelId       string                 `json:"channel_id"`
	ThreadTs        string                 `json:"thread_ts"`
	Status          string                 `json:"status"`
	ClientData      map[string]interface{} `json:"client_data"`
	Tags            []string               `json:"tags"`
	MissingFields   []string               `json:"missing_fields"`
	Narrative       string                 `json:"narrative"`
	Citations       []string               `json:"citations,omitempty"`
	CorrectionCount int                    `json:"correction_count"`
	UpdatedBy       string                 `json:"updated_by"`
	Version         int64                  `json:"version"`
	Briefs          []BriefResponse        `json:"briefs,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type ListCasesRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=CREATED UNDER_REVIEW CONFIRMED CORRECTED BRIEF_GENERATED CLOSED REJECTED"`
	ClientId string `query:"client_id"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

type ListCasesResponse struct {
	Cases []*CaseResponse `json:"cases"`
	Total int64           `json:"total"`
}

type ToolInvocationResponse struct {
	Turn        int                    `json:"turn"`
	Tool        string                 `json:"tool"`
	Input       map[string]interface{} `json:"input"`
	Observation string                 `json:"observation"`
	Failed      bool                   `json:"failed"`
	DurationMs  int64                  `json:"duration_ms"`
	CreatedAt   time.Time              `json:"created_at"`
}

// GenerateBriefsMessage is the watermill payload asking for a case's briefs.
type GenerateBriefsMessage struct {
	CaseId string `json:"case_id"`
}
