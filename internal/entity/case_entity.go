package entity

import (
	"time"

	"github.com/google/uuid"
)

// Case is one client inquiry, identified by its conversation thread.
type Case struct {
	CaseId          string
	ClientId        string
	ChannelId       string
	ThreadTs        string
	Status          string
	ClientData      map[string]interface{}
	Tags            []string
	MissingFields   []string
	Narrative       string
	Citations       []string
	CorrectionCount int
	UpdatedBy       string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers can mutate without touching a shared row.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.ClientData = make(map[string]interface{}, len(c.ClientData))
	for k, v := range c.ClientData {
		out.ClientData[k] = v
	}
	out.Tags = append([]string(nil), c.Tags...)
	out.MissingFields = append([]string(nil), c.MissingFields...)
	out.Citations = append([]string(nil), c.Citations...)
	return &out
}

// ProcessedAction remembers an applied human action by its dedupe token.
type ProcessedAction struct {
	Id              uuid.UUID
	CaseId          string
	Token           string
	ActionKind      string
	Actor           string
	ResultingStatus string
	CaseVersion     int64
	ProcessedAt     time.Time
}
