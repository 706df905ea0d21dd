package repository

import (
	"context"
	"sync"

	"knowledge-governance/internal/model"
)

type MemoryAISessionRepository struct {
	mu      sync.Mutex
	session *model.AISession
}

func NewMemoryAISessionRepository() *MemoryAISessionRepository {
	return &MemoryAISessionRepository{}
}

func (r *MemoryAISessionRepository) Load(_ context.Context) (*model.AISession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil, nil
	}
	out := *r.session
	return &out, nil
}

func (r *MemoryAISessionRepository) Save(_ context.Context, session *model.AISession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	stored.ID = aiSessionRowID
	r.session = &stored
	return nil
}
