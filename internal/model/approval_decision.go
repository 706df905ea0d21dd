package model

import "time"

type ApprovalSubject string

const (
	SubjectDocument     ApprovalSubject = "document"
	SubjectGoldenAnswer ApprovalSubject = "golden_answer"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ApprovalDecision is the reviewer's verdict on a DRAFT document or a draft golden answer.
type ApprovalDecision struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	SubjectKind ApprovalSubject `gorm:"size:16;not null" json:"subject_kind"`
	SubjectID   string          `gorm:"size:36;not null;index" json:"subject_id"`
	Department  string          `gorm:"size:32;index" json:"department"`
	Title       string          `gorm:"size:255" json:"title"`
	RequestedBy string          `gorm:"size:64;index" json:"requested_by"`
	Decision    Decision        `gorm:"size:16;not null" json:"decision"`
	Reviewer    string          `gorm:"size:64;not null" json:"reviewer"`
	Note        string          `gorm:"type:text" json:"note,omitempty"`
	DecidedAt   time.Time       `gorm:"index" json:"decided_at"`
}

func (ApprovalDecision) TableName() string {
	return "approval_decisions"
}
