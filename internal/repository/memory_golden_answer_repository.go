package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"knowledge-governance/internal/model"
)

type MemoryGoldenAnswerRepository struct {
	mu      sync.RWMutex
	answers map[string]model.GoldenAnswer
}

func NewMemoryGoldenAnswerRepository() *MemoryGoldenAnswerRepository {
	return &MemoryGoldenAnswerRepository{answers: make(map[string]model.GoldenAnswer)}
}

func cloneAnswer(a model.GoldenAnswer) model.GoldenAnswer {
	a.Citations = append([]model.Citation(nil), a.Citations...)
	return a
}

func (r *MemoryGoldenAnswerRepository) Create(_ context.Context, answer *model.GoldenAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.answers[answer.ID]; exists {
		return fmt.Errorf("create golden answer failed: duplicate id %s", answer.ID)
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now
	for i := range answer.Citations {
		answer.Citations[i].AnswerID = answer.ID
	}
	r.answers[answer.ID] = cloneAnswer(*answer)
	return nil
}

func (r *MemoryGoldenAnswerRepository) GetByID(_ context.Context, id string) (*model.GoldenAnswer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.answers[id]
	if !ok {
		return nil, nil
	}
	out := cloneAnswer(a)
	return &out, nil
}

func (r *MemoryGoldenAnswerRepository) Update(_ context.Context, answer *model.GoldenAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.answers[answer.ID]
	if !ok {
		return fmt.Errorf("update golden answer failed: %s not found", answer.ID)
	}
	updated := cloneAnswer(*answer)
	updated.Citations = stored.Citations
	updated.UpdatedAt = time.Now().UTC()
	r.answers[answer.ID] = updated
	return nil
}

func (r *MemoryGoldenAnswerRepository) UpdateWithCitations(_ context.Context, answer *model.GoldenAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.answers[answer.ID]; !ok {
		return fmt.Errorf("update golden answer failed: %s not found", answer.ID)
	}
	for i := range answer.Citations {
		answer.Citations[i].AnswerID = answer.ID
	}
	updated := cloneAnswer(*answer)
	updated.UpdatedAt = time.Now().UTC()
	r.answers[answer.ID] = updated
	return nil
}

func (r *MemoryGoldenAnswerRepository) ListPublishedCitingDocument(_ context.Context, documentID string) ([]model.GoldenAnswer, error) {
	return r.filter(func(a model.GoldenAnswer) bool {
		if a.Status != model.AnswerPublished {
			return false
		}
		for _, c := range a.Citations {
			if c.DocumentID == documentID {
				return true
			}
		}
		return false
	}), nil
}

func (r *MemoryGoldenAnswerRepository) ListPublished(_ context.Context) ([]model.GoldenAnswer, error) {
	return r.filter(func(a model.GoldenAnswer) bool { return a.Status == model.AnswerPublished }), nil
}

func (r *MemoryGoldenAnswerRepository) ListByStatus(_ context.Context, status model.AnswerStatus, department string) ([]model.GoldenAnswer, error) {
	return r.filter(func(a model.GoldenAnswer) bool {
		return a.Status == status && (department == "" || a.Department == department)
	}), nil
}

func (r *MemoryGoldenAnswerRepository) ListDueForReview(_ context.Context, now time.Time) ([]model.GoldenAnswer, error) {
	out := r.filter(func(a model.GoldenAnswer) bool {
		return a.Status == model.AnswerPublished && !a.NextReviewAt.After(now)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextReviewAt.Before(out[j].NextReviewAt) })
	return out, nil
}

func (r *MemoryGoldenAnswerRepository) filter(keep func(model.GoldenAnswer) bool) []model.GoldenAnswer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.GoldenAnswer
	for _, a := range r.answers {
		if keep(a) {
			out = append(out, cloneAnswer(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
