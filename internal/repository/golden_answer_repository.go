package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowledge-governance/internal/model"
)

type GoldenAnswerRepository struct {
	db *gorm.DB
}

func NewGoldenAnswerRepository(db *gorm.DB) *GoldenAnswerRepository {
	return &GoldenAnswerRepository{db: db}
}

func orderedCitations(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create stores the answer together with its citations.
func (r *GoldenAnswerRepository) Create(ctx context.Context, answer *model.GoldenAnswer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("create golden answer failed: %w", err)
	}
	return nil
}

func (r *GoldenAnswerRepository) GetByID(ctx context.Context, id string) (*model.GoldenAnswer, error) {
	var answer model.GoldenAnswer
	if err := r.db.WithContext(ctx).
		Preload("Citations", orderedCitations).
		Where("id = ?", id).
		First(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query golden answer failed: %w", err)
	}
	return &answer, nil
}

// Update saves the answer row. Citations are left untouched.
func (r *GoldenAnswerRepository) Update(ctx context.Context, answer *model.GoldenAnswer) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(answer).Error; err != nil {
		return fmt.Errorf("update golden answer failed: %w", err)
	}
	return nil
}

// UpdateWithCitations saves the answer and replaces its citation list atomically.
func (r *GoldenAnswerRepository) UpdateWithCitations(ctx context.Context, answer *model.GoldenAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(answer).Error; err != nil {
			return fmt.Errorf("update golden answer failed: %w", err)
		}
		if err := tx.Where("answer_id = ?", answer.ID).Delete(&model.Citation{}).Error; err != nil {
			return fmt.Errorf("delete golden answer citations failed: %w", err)
		}
		if len(answer.Citations) == 0 {
			return nil
		}
		for i := range answer.Citations {
			answer.Citations[i].ID = 0
			answer.Citations[i].AnswerID = answer.ID
		}
		if err := tx.Create(&answer.Citations).Error; err != nil {
			return fmt.Errorf("create golden answer citations failed: %w", err)
		}
		return nil
	})
}

func (r *GoldenAnswerRepository) ListPublishedCitingDocument(ctx context.Context, documentID string) ([]model.GoldenAnswer, error) {
	db := r.db.WithContext(ctx)
	citing := db.Model(&model.Citation{}).Select("answer_id").Where("document_id = ?", documentID)
	var answers []model.GoldenAnswer
	if err := db.
		Preload("Citations", orderedCitations).
		Where("status = ? AND id IN (?)", model.AnswerPublished, citing).
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("list answers citing document failed: %w", err)
	}
	return answers, nil
}

func (r *GoldenAnswerRepository) ListPublished(ctx context.Context) ([]model.GoldenAnswer, error) {
	var answers []model.GoldenAnswer
	if err := r.db.WithContext(ctx).
		Preload("Citations", orderedCitations).
		Where("status = ?", model.AnswerPublished).
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("list published answers failed: %w", err)
	}
	return answers, nil
}

func (r *GoldenAnswerRepository) ListDueForReview(ctx context.Context, now time.Time) ([]model.GoldenAnswer, error) {
	var answers []model.GoldenAnswer
	if err := r.db.WithContext(ctx).
		Preload("Citations", orderedCitations).
		Where("status = ? AND next_review_at <= ?", model.AnswerPublished, now).
		Order("next_review_at ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("list answers due for review failed: %w", err)
	}
	return answers, nil
}

// ListByStatus lists answers in one status. An empty department lists all.
func (r *GoldenAnswerRepository) ListByStatus(ctx context.Context, status model.AnswerStatus, department string) ([]model.GoldenAnswer, error) {
	q := r.db.WithContext(ctx).Preload("Citations", orderedCitations).Where("status = ?", status)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	var answers []model.GoldenAnswer
	if err := q.Order("created_at ASC").Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("list answers by status failed: %w", err)
	}
	return answers, nil
}
