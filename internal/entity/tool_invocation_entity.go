package entity

import (
	"time"

	"github.com/google/uuid"
)

type ToolInvocation struct {
	Id          uuid.UUID
	SessionId   string
	Turn        int
	Tool        string
	Input       map[string]interface{}
	Observation string
	Failed      bool
	DurationMs  int64
	CreatedAt   time.Time
}
