package repository

import (
	"context"
	"sort"
	"sync"

	"knowledge-governance/internal/model"
)

type MemoryApprovalDecisionRepository struct {
	mu        sync.RWMutex
	decisions []model.ApprovalDecision
}

func NewMemoryApprovalDecisionRepository() *MemoryApprovalDecisionRepository {
	return &MemoryApprovalDecisionRepository{}
}

func (r *MemoryApprovalDecisionRepository) Create(_ context.Context, decision *model.ApprovalDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, *decision)
	return nil
}

func (r *MemoryApprovalDecisionRepository) LatestForSubject(_ context.Context, subjectID string) (*model.ApprovalDecision, error) {
	list := r.newestFirst(func(d model.ApprovalDecision) bool { return d.SubjectID == subjectID }, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *MemoryApprovalDecisionRepository) ListByDepartment(_ context.Context, department string, limit int) ([]model.ApprovalDecision, error) {
	return r.newestFirst(func(d model.ApprovalDecision) bool {
		return department == "" || d.Department == department
	}, limit), nil
}

func (r *MemoryApprovalDecisionRepository) ListByRequester(_ context.Context, username string, limit int) ([]model.ApprovalDecision, error) {
	return r.newestFirst(func(d model.ApprovalDecision) bool { return d.RequestedBy == username }, limit), nil
}

// newestFirst keeps append order among decisions with the same timestamp.
func (r *MemoryApprovalDecisionRepository) newestFirst(keep func(model.ApprovalDecision) bool, limit int) []model.ApprovalDecision {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ApprovalDecision
	for i := len(r.decisions) - 1; i >= 0; i-- {
		if keep(r.decisions[i]) {
			out = append(out, r.decisions[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DecidedAt.After(out[j].DecidedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
