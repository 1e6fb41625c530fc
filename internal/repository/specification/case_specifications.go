package specification

import "gorm.io/gorm"

type ByCaseID struct {
	CaseID string
}

func (s ByCaseID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("case_id = ?", s.CaseID)
}

type ByClientID struct {
	ClientID string
}

func (s ByClientID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ExcludeCaseID drops one case, used when loading a client's history.
type ExcludeCaseID struct {
	CaseID string
}

func (s ExcludeCaseID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("case_id <> ?", s.CaseID)
}
