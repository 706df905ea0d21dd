package model

import "time"

type PIIOutcome string

const (
	PIIClear   PIIOutcome = "clear"
	PIIBlocked PIIOutcome = "blocked"
)

// PIICheck is an append-only audit record of one questionnaire evaluation.
type PIICheck struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string          `gorm:"size:36;not null;index" json:"document_id"`
	Answers    map[string]bool `gorm:"serializer:json;type:text" json:"answers"`
	Positive   []string        `gorm:"serializer:json;type:text" json:"positive"`
	Outcome    PIIOutcome      `gorm:"size:16;not null" json:"outcome"`
	AnsweredBy string          `gorm:"size:64;not null" json:"answered_by"`
	AnsweredAt time.Time       `gorm:"not null" json:"answered_at"`
}

func (PIICheck) TableName() string {
	return "pii_checks"
}
