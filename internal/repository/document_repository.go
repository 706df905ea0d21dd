package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"knowledge-governance/internal/model"
)

// ErrStaleTransition means the stored status no longer matches the expected one.
var ErrStaleTransition = errors.New("document status changed concurrently")

// Transition moves one document out of From. Document carries the new state.
type Transition struct {
	Document *model.Document
	From     model.DocumentStatus
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by id failed: %w", err)
	}
	return &doc, nil
}

// FindBySupersedes returns the version that replaced id, if any.
func (r *DocumentRepository) FindBySupersedes(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("supersedes_id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document successor failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByLineage(ctx context.Context, lineageID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.WithContext(ctx).
		Where("lineage_id = ?", lineageID).
		Order("version_major ASC, version_minor ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list lineage documents failed: %w", err)
	}
	return docs, nil
}

// ListByStatus filters by department unless it is empty.
func (r *DocumentRepository) ListByStatus(ctx context.Context, status model.DocumentStatus, department string) ([]model.Document, error) {
	q := r.db.WithContext(ctx).Where("status = ?", status)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	var docs []model.Document
	if err := q.Order("department ASC, file_name ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents by status failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) ListDeprecatedBefore(ctx context.Context, cutoff time.Time) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.WithContext(ctx).
		Where("status = ? AND deprecated_at < ?", model.StatusDeprecated, cutoff).
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list expired documents failed: %w", err)
	}
	return docs, nil
}

// UpdateDraft rewrites the metadata of a document that is still DRAFT.
func (r *DocumentRepository) UpdateDraft(ctx context.Context, doc *model.Document) error {
	res := r.db.WithContext(ctx).
		Model(doc).
		Where("status = ?", model.StatusDraft).
		Select("owner", "tags", "classification", "creation_date", "review_date", "source_department", "updated_at").
		Updates(doc)
	if res.Error != nil {
		return fmt.Errorf("update document metadata failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// SaveTransitions applies every transition in one transaction or none of them.
func (r *DocumentRepository) SaveTransitions(ctx context.Context, transitions ...Transition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range transitions {
			doc := t.Document
			res := tx.Model(&model.Document{}).
				Where("id = ? AND status = ?", doc.ID, t.From).
				Updates(map[string]any{
					"status":        doc.Status,
					"file_name":     doc.FileName,
					"approved_by":   doc.ApprovedBy,
					"approved_at":   doc.ApprovedAt,
					"deprecated_at": doc.DeprecatedAt,
					"archived_at":   doc.ArchivedAt,
					"updated_at":    doc.UpdatedAt,
				})
			if res.Error != nil {
				return fmt.Errorf("save document transition failed: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("document %s: %w", doc.ID, ErrStaleTransition)
			}
		}
		return nil
	})
}
