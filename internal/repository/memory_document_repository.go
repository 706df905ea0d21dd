package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"knowledge-governance/internal/model"
)

// MemoryDocumentRepository keeps documents in process. It backs storage.driver=memory and service tests.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[string]model.Document)}
}

func cloneDocument(doc model.Document) model.Document {
	doc.Metadata.Tags = append([]string(nil), doc.Metadata.Tags...)
	return doc
}

func (r *MemoryDocumentRepository) Create(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("create document failed: duplicate id %s", doc.ID)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	r.docs[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *MemoryDocumentRepository) GetByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	out := cloneDocument(doc)
	return &out, nil
}

func (r *MemoryDocumentRepository) FindBySupersedes(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.SupersedesID == id {
			out := cloneDocument(doc)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryDocumentRepository) ListByLineage(_ context.Context, lineageID string) ([]model.Document, error) {
	docs := r.filter(func(d model.Document) bool { return d.LineageID == lineageID })
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Metadata.Version().Less(docs[j].Metadata.Version())
	})
	return docs, nil
}

func (r *MemoryDocumentRepository) ListByStatus(_ context.Context, status model.DocumentStatus, department string) ([]model.Document, error) {
	docs := r.filter(func(d model.Document) bool {
		return d.Status == status && (department == "" || d.Department == department)
	})
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Department != docs[j].Department {
			return docs[i].Department < docs[j].Department
		}
		return docs[i].FileName < docs[j].FileName
	})
	return docs, nil
}

func (r *MemoryDocumentRepository) ListDeprecatedBefore(_ context.Context, cutoff time.Time) ([]model.Document, error) {
	return r.filter(func(d model.Document) bool {
		return d.Status == model.StatusDeprecated && d.DeprecatedAt != nil && d.DeprecatedAt.Before(cutoff)
	}), nil
}

func (r *MemoryDocumentRepository) UpdateDraft(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Status != model.StatusDraft {
		return ErrStaleTransition
	}
	stored.Metadata.Owner = doc.Metadata.Owner
	stored.Metadata.Tags = append([]string(nil), doc.Metadata.Tags...)
	stored.Metadata.Classification = doc.Metadata.Classification
	stored.Metadata.CreationDate = doc.Metadata.CreationDate
	stored.Metadata.ReviewDate = doc.Metadata.ReviewDate
	stored.Metadata.SourceDepartment = doc.Metadata.SourceDepartment
	stored.UpdatedAt = doc.UpdatedAt
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	r.docs[doc.ID] = stored
	return nil
}

func (r *MemoryDocumentRepository) SaveTransitions(_ context.Context, transitions ...Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transitions {
		stored, ok := r.docs[t.Document.ID]
		if !ok || stored.Status != t.From {
			return fmt.Errorf("document %s: %w", t.Document.ID, ErrStaleTransition)
		}
	}
	for _, t := range transitions {
		r.docs[t.Document.ID] = cloneDocument(*t.Document)
	}
	return nil
}

func (r *MemoryDocumentRepository) filter(keep func(model.Document) bool) []model.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Document
	for _, doc := range r.docs {
		if keep(doc) {
			out = append(out, cloneDocument(doc))
		}
	}
	return out
}
