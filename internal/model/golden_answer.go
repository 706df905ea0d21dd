package model

import "time"

type Confidence string

const (
	ConfidenceVerified     Confidence = "VERIFIED"
	ConfidenceAssumption   Confidence = "ASSUMPTION"
	ConfidenceOutdatedRisk Confidence = "OUTDATED-RISK"
)

type AnswerStatus string

const (
	AnswerDraft     AnswerStatus = "draft"
	AnswerPublished AnswerStatus = "published"
	AnswerRejected  AnswerStatus = "rejected"
)

type GoldenAnswer struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	NotebookID     string       `gorm:"size:64;index" json:"notebook_id"`
	Department     string       `gorm:"size:32;not null;index" json:"department"`
	Question       string       `gorm:"type:text;not null" json:"question"`
	Answer         string       `gorm:"type:text;not null" json:"answer"`
	Citations      []Citation   `gorm:"foreignKey:AnswerID" json:"citations"`
	Confidence     Confidence   `gorm:"size:16;not null" json:"confidence"`
	Status         AnswerStatus `gorm:"size:16;not null;index" json:"status"`
	Owner          string       `gorm:"size:64;not null" json:"owner"`
	AuthoredBy     string       `gorm:"size:64" json:"authored_by"`
	ApprovedBy     string       `gorm:"size:64" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time   `json:"approved_at,omitempty"`
	NextReviewAt   time.Time    `gorm:"index" json:"next_review_at"`
	ReviewReason   string       `gorm:"type:text" json:"review_reason,omitempty"`
	LastReviewedBy string       `gorm:"size:64" json:"last_reviewed_by,omitempty"`
	LastReviewedAt *time.Time   `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Citation points at a location inside one document version. CapturedStatus is
// the cited document's status when the citation was recorded.
type Citation struct {
	ID             uint           `gorm:"primaryKey" json:"-"`
	AnswerID       string         `gorm:"size:36;not null;index" json:"-"`
	Position       int            `gorm:"not null" json:"position"`
	DocumentID     string         `gorm:"size:36;not null;index" json:"document_id"`
	Location       string         `gorm:"size:255" json:"location"`
	CapturedStatus DocumentStatus `gorm:"size:16" json:"captured_status"`
	CapturedAt     time.Time      `json:"captured_at"`
}

func (Citation) TableName() string {
	return "golden_answer_citations"
}
