package app

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"knowledge-governance/internal/model"
)

const (
	defaultDecisionLimit = 50
	maxDecisionLimit     = 500
	maxDecisionTitle     = 255
)

// PendingApprovals is what a reviewer still has to decide on.
type PendingApprovals struct {
	Documents     []model.Document     `json:"documents"`
	GoldenAnswers []model.GoldenAnswer `json:"golden_answers"`
}

// MyRequests is a requester's own view: drafts still waiting plus decisions already taken.
type MyRequests struct {
	Pending   PendingApprovals         `json:"pending"`
	Decisions []model.ApprovalDecision `json:"decisions"`
}

// ApprovalService reads the approval queue across documents and golden answers.
// Decisions themselves are taken by LifecycleService and GoldenAnswerService.
type ApprovalService struct {
	lifecycle *LifecycleService
	answers   *GoldenAnswerService
	decisions ApprovalDecisionStore
	logger    *zap.Logger
}

func NewApprovalService(lifecycle *LifecycleService, answers *GoldenAnswerService, decisions ApprovalDecisionStore, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		lifecycle: lifecycle,
		answers:   answers,
		decisions: decisions,
		logger:    logger.With(zap.String("service", "approval")),
	}
}

// Pending lists drafts awaiting a decision in the reviewer's scope.
func (s *ApprovalService) Pending(ctx context.Context, reviewer Actor, department string) (*PendingApprovals, error) {
	dept, err := reviewScope(reviewer, department)
	if err != nil {
		return nil, err
	}
	docs, err := s.lifecycle.ListPendingActivation(ctx, dept)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListPending(ctx, dept)
	if err != nil {
		return nil, err
	}
	return &PendingApprovals{Documents: docs, GoldenAnswers: answers}, nil
}

// History lists decisions already taken in the reviewer's scope, newest first.
func (s *ApprovalService) History(ctx context.Context, reviewer Actor, department string, limit int) ([]model.ApprovalDecision, error) {
	dept, err := reviewScope(reviewer, department)
	if err != nil {
		return nil, err
	}
	return s.decisions.ListByDepartment(ctx, dept, clampLimit(limit))
}

func (s *ApprovalService) MyRequests(ctx context.Context, requester Actor, limit int) (*MyRequests, error) {
	if requester.Username == "" {
		return nil, validationErr("requester identity is required", "requester")
	}
	docs, err := s.lifecycle.ListPendingActivation(ctx, "")
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListPending(ctx, "")
	if err != nil {
		return nil, err
	}
	decisions, err := s.decisions.ListByRequester(ctx, requester.Username, clampLimit(limit))
	if err != nil {
		return nil, err
	}

	out := &MyRequests{Decisions: decisions}
	for _, d := range docs {
		if d.CreatedBy == requester.Username {
			out.Pending.Documents = append(out.Pending.Documents, d)
		}
	}
	for _, a := range answers {
		if a.AuthoredBy == requester.Username {
			out.Pending.GoldenAnswers = append(out.Pending.GoldenAnswers, a)
		}
	}
	return out, nil
}

// reviewScope resolves which department a reviewer may look at. Admins may pass "" for all.
func reviewScope(reviewer Actor, department string) (string, error) {
	if reviewer.IsAdmin() {
		return department, nil
	}
	if department == "" {
		department = reviewer.Department
	}
	if !reviewer.ApprovesFor(department) {
		return "", fmt.Errorf("%w: %s does not review %q", ErrAuthorization, reviewer.Username, department)
	}
	return department, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultDecisionLimit
	}
	if limit > maxDecisionLimit {
		return maxDecisionLimit
	}
	return limit
}

func documentDecision(doc *model.Document, decision model.Decision, reviewer, note string, at time.Time) *model.ApprovalDecision {
	return &model.ApprovalDecision{
		ID:          uuid.NewString(),
		SubjectKind: model.SubjectDocument,
		SubjectID:   doc.ID,
		Department:  doc.Department,
		Title:       truncateTitle(doc.FileName),
		RequestedBy: doc.CreatedBy,
		Decision:    decision,
		Reviewer:    reviewer,
		Note:        note,
		DecidedAt:   at,
	}
}

func answerDecision(answer *model.GoldenAnswer, decision model.Decision, reviewer, note string, at time.Time) *model.ApprovalDecision {
	return &model.ApprovalDecision{
		ID:          uuid.NewString(),
		SubjectKind: model.SubjectGoldenAnswer,
		SubjectID:   answer.ID,
		Department:  answer.Department,
		Title:       truncateTitle(answer.Question),
		RequestedBy: answer.AuthoredBy,
		Decision:    decision,
		Reviewer:    reviewer,
		Note:        note,
		DecidedAt:   at,
	}
}

// recordDecision appends an approval after its transition committed. Failures are only logged.
func recordDecision(ctx context.Context, store ApprovalDecisionStore, logger *zap.Logger, decision *model.ApprovalDecision) {
	if err := store.Create(ctx, decision); err != nil {
		logger.Warn("record approval decision failed",
			zap.String("subject_id", decision.SubjectID),
			zap.String("decision", string(decision.Decision)),
			zap.Error(err))
	}
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxDecisionTitle {
		return s
	}
	r := []rune(s)
	return string(r[:maxDecisionTitle-3]) + "..."
}
