package repository

import (
	"context"
	"sync"

	"knowledge-governance/internal/model"
)

type MemoryPIICheckRepository struct {
	mu     sync.RWMutex
	checks map[string][]model.PIICheck
}

func NewMemoryPIICheckRepository() *MemoryPIICheckRepository {
	return &MemoryPIICheckRepository{checks: make(map[string][]model.PIICheck)}
}

func (r *MemoryPIICheckRepository) Create(_ context.Context, check *model.PIICheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *check
	stored.Positive = append([]string(nil), check.Positive...)
	stored.Answers = make(map[string]bool, len(check.Answers))
	for k, v := range check.Answers {
		stored.Answers[k] = v
	}
	r.checks[check.DocumentID] = append(r.checks[check.DocumentID], stored)
	return nil
}

// Latest returns the most recently appended check; appends happen in answer order.
func (r *MemoryPIICheckRepository) Latest(_ context.Context, documentID string) (*model.PIICheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.checks[documentID]
	if len(list) == 0 {
		return nil, nil
	}
	out := list[len(list)-1]
	return &out, nil
}

func (r *MemoryPIICheckRepository) ListByDocument(_ context.Context, documentID string) ([]model.PIICheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.PIICheck(nil), r.checks[documentID]...), nil
}
