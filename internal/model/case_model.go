package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Case struct {
	CaseId          string                      `gorm:"type:varchar(191);primaryKey"`
	ClientId        string                      `gorm:"type:varchar(191);not null;index"`
	ChannelId       string                      `gorm:"type:varchar(64)"`
	ThreadTs        string                      `gorm:"type:varchar(64)"`
	Status          string                      `gorm:"type:varchar(32);not null;index"`
	ClientData      datatypes.JSONMap           `gorm:"type:jsonb"`
	Tags            datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	MissingFields   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Narrative       string                      `gorm:"type:text"`
	Citations       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CorrectionCount int                         `gorm:"not null;default:0"`
	UpdatedBy       string                      `gorm:"type:varchar(191)"`
	Version         int64                       `gorm:"not null;default:1"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"index"`
}

func (Case) TableName() string {
	return "cases"
}

type ProcessedAction struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId          string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_processed_actions_case_token"`
	Token           string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_processed_actions_case_token"`
	ActionKind      string    `gorm:"type:varchar(32);not null"`
	Actor           string    `gorm:"type:varchar(191)"`
	ResultingStatus string    `gorm:"type:varchar(32);not null"`
	CaseVersion     int64     `gorm:"not null"`
	ProcessedAt     time.Time `gorm:"not null"`
}

func (ProcessedAction) TableName() string {
	return "processed_actions"
}
