package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ToolInvocation struct {
	Id          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   string            `gorm:"type:varchar(191);not null;index"`
	Turn        int               `gorm:"not null"`
	Tool        string            `gorm:"type:varchar(64);not null"`
	Input       datatypes.JSONMap `gorm:"type:jsonb"`
	Observation string            `gorm:"type:text"`
	Failed      bool              `gorm:"not null;default:false"`
	DurationMs  int64
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (ToolInvocation) TableName() string {
	return "tool_invocations"
}
