package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowledge-governance/internal/model"
)

// ApprovalDecisionRepository is append-only, like the pii check log.
type ApprovalDecisionRepository struct {
	db *gorm.DB
}

func NewApprovalDecisionRepository(db *gorm.DB) *ApprovalDecisionRepository {
	return &ApprovalDecisionRepository{db: db}
}

func (r *ApprovalDecisionRepository) Create(ctx context.Context, decision *model.ApprovalDecision) error {
	if err := r.db.WithContext(ctx).Create(decision).Error; err != nil {
		return fmt.Errorf("create approval decision failed: %w", err)
	}
	return nil
}

func (r *ApprovalDecisionRepository) LatestForSubject(ctx context.Context, subjectID string) (*model.ApprovalDecision, error) {
	var decision model.ApprovalDecision
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("decided_at DESC").
		First(&decision).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest approval decision failed: %w", err)
	}
	return &decision, nil
}

// ListByDepartment returns the newest decisions first. An empty department lists all.
func (r *ApprovalDecisionRepository) ListByDepartment(ctx context.Context, department string, limit int) ([]model.ApprovalDecision, error) {
	q := r.db.WithContext(ctx)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	var decisions []model.ApprovalDecision
	if err := q.Order("decided_at DESC").Limit(limit).Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("list approval decisions failed: %w", err)
	}
	return decisions, nil
}

func (r *ApprovalDecisionRepository) ListByRequester(ctx context.Context, username string, limit int) ([]model.ApprovalDecision, error) {
	var decisions []model.ApprovalDecision
	if err := r.db.WithContext(ctx).
		Where("requested_by = ?", username).
		Order("decided_at DESC").
		Limit(limit).
		Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("list approval decisions by requester failed: %w", err)
	}
	return decisions, nil
}
