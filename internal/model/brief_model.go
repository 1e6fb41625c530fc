package model

import (
	"time"

	"github.com/google/uuid"
)

type Brief struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId            string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_briefs_case_audience"`
	Audience          string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_briefs_case_audience"`
	DocumentReference string    `gorm:"type:text;not null"`
	GeneratedAt       time.Time `gorm:"not null"`
}

func (Brief) TableName() string {
	return "briefs"
}
