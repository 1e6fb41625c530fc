package entity

import (
	"time"

	"github.com/google/uuid"
)

type Brief struct {
	Id                uuid.UUID
	CaseId            string
	Audience          string
	DocumentReference string
	GeneratedAt       time.Time
}
