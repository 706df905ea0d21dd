package app

import (
	"context"
	"time"

	"knowledge-governance/internal/lock"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/repository"
)

// Stores return (nil, nil) when a record does not exist.

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	FindBySupersedes(ctx context.Context, id string) (*model.Document, error)
	ListByLineage(ctx context.Context, lineageID string) ([]model.Document, error)
	ListByStatus(ctx context.Context, status model.DocumentStatus, department string) ([]model.Document, error)
	ListDeprecatedBefore(ctx context.Context, cutoff time.Time) ([]model.Document, error)
	UpdateDraft(ctx context.Context, doc *model.Document) error
	SaveTransitions(ctx context.Context, transitions ...repository.Transition) error
}

type PIICheckStore interface {
	Create(ctx context.Context, check *model.PIICheck) error
	Latest(ctx context.Context, documentID string) (*model.PIICheck, error)
	ListByDocument(ctx context.Context, documentID string) ([]model.PIICheck, error)
}

type GoldenAnswerStore interface {
	Create(ctx context.Context, answer *model.GoldenAnswer) error
	GetByID(ctx context.Context, id string) (*model.GoldenAnswer, error)
	Update(ctx context.Context, answer *model.GoldenAnswer) error
	UpdateWithCitations(ctx context.Context, answer *model.GoldenAnswer) error
	ListPublishedCitingDocument(ctx context.Context, documentID string) ([]model.GoldenAnswer, error)
	ListPublished(ctx context.Context) ([]model.GoldenAnswer, error)
	ListDueForReview(ctx context.Context, now time.Time) ([]model.GoldenAnswer, error)
	ListByStatus(ctx context.Context, status model.AnswerStatus, department string) ([]model.GoldenAnswer, error)
}

// ApprovalDecisionStore is append-only. List methods return the newest decisions first.
type ApprovalDecisionStore interface {
	Create(ctx context.Context, decision *model.ApprovalDecision) error
	LatestForSubject(ctx context.Context, subjectID string) (*model.ApprovalDecision, error)
	ListByDepartment(ctx context.Context, department string, limit int) ([]model.ApprovalDecision, error)
	ListByRequester(ctx context.Context, username string, limit int) ([]model.ApprovalDecision, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id uint, role model.Role, department string) error
}

// Locker serializes transitions per key. See package lock.
type Locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

type StatusNotifier interface {
	NotifyStatusChanged(ctx context.Context, event model.StatusChangeEvent) error
}

type CitableCache interface {
	Get(ctx context.Context, department string) ([]model.Document, bool, error)
	Set(ctx context.Context, department string, docs []model.Document) error
	Invalidate(ctx context.Context, department string) error
}
