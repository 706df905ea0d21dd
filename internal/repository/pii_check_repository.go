package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowledge-governance/internal/model"
)

// PIICheckRepository is append-only. Checks are never updated or deleted.
type PIICheckRepository struct {
	db *gorm.DB
}

func NewPIICheckRepository(db *gorm.DB) *PIICheckRepository {
	return &PIICheckRepository{db: db}
}

func (r *PIICheckRepository) Create(ctx context.Context, check *model.PIICheck) error {
	if err := r.db.WithContext(ctx).Create(check).Error; err != nil {
		return fmt.Errorf("create pii check failed: %w", err)
	}
	return nil
}

func (r *PIICheckRepository) Latest(ctx context.Context, documentID string) (*model.PIICheck, error) {
	var check model.PIICheck
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("answered_at DESC").
		First(&check).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest pii check failed: %w", err)
	}
	return &check, nil
}

func (r *PIICheckRepository) ListByDocument(ctx context.Context, documentID string) ([]model.PIICheck, error) {
	var checks []model.PIICheck
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("answered_at ASC").
		Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("list pii checks failed: %w", err)
	}
	return checks, nil
}
