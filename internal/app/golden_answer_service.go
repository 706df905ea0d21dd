package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"knowledge-governance/internal/model"
	"knowledge-governance/internal/taxonomy"
)

// DocumentLookup is how the registry consults the lifecycle before capturing a citation.
type DocumentLookup interface {
	Get(ctx context.Context, docID string) (*model.Document, error)
}

type GoldenAnswerPolicy struct {
	ReviewCadence   time.Duration
	NotebookMinimum int
}

type GoldenAnswerService struct {
	answers   GoldenAnswerStore
	decisions ApprovalDecisionStore
	docs      DocumentLookup
	taxonomy  *taxonomy.Taxonomy
	locker    Locker
	policy    GoldenAnswerPolicy
	logger    *zap.Logger
	now       func() time.Time
}

const maxCitationLocation = 255

type CitationInput struct {
	DocumentID string
	Location   string
}

type ProposeInput struct {
	Question   string
	Answer     string
	Citations  []CitationInput
	Confidence model.Confidence
	Owner      string
	AuthoredBy string
}

type ReviewInput struct {
	Reviewer   Actor
	Confidence model.Confidence
	Answer     *string
	Citations  []CitationInput
}

type NotebookCoverage struct {
	NotebookID   string `json:"notebook_id"`
	Department   string `json:"department"`
	SubArea      string `json:"sub_area,omitempty"`
	Published    int    `json:"published"`
	Minimum      int    `json:"minimum"`
	BelowMinimum bool   `json:"below_minimum"`
}

func NewGoldenAnswerService(
	answers GoldenAnswerStore,
	decisions ApprovalDecisionStore,
	docs DocumentLookup,
	tx *taxonomy.Taxonomy,
	locker Locker,
	policy GoldenAnswerPolicy,
	logger *zap.Logger,
) *GoldenAnswerService {
	return &GoldenAnswerService{
		answers:   answers,
		decisions: decisions,
		docs:      docs,
		taxonomy:  tx,
		locker:    locker,
		policy:    policy,
		logger:    logger.With(zap.String("service", "golden_answer")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Propose stores a draft answer. Every cited document must be ACTIVE when captured.
func (s *GoldenAnswerService) Propose(ctx context.Context, input ProposeInput) (*model.GoldenAnswer, error) {
	var missing []string
	if strings.TrimSpace(input.Question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(input.Answer) == "" {
		missing = append(missing, "answer")
	}
	if strings.TrimSpace(input.Owner) == "" {
		missing = append(missing, "owner")
	}
	if len(input.Citations) == 0 {
		missing = append(missing, "citations")
	}
	if !assignableConfidence(input.Confidence) {
		missing = append(missing, "confidence")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing, Reason: "golden answer is incomplete"}
	}

	citations, first, err := s.captureCitations(ctx, input.Citations)
	if err != nil {
		return nil, err
	}

	authoredBy := input.AuthoredBy
	if authoredBy == "" {
		authoredBy = input.Owner
	}
	answer := &model.GoldenAnswer{
		ID:           uuid.NewString(),
		NotebookID:   s.taxonomy.NotebookFor(first.Department, first.SubArea),
		Department:   first.Department,
		Question:     strings.TrimSpace(input.Question),
		Answer:       strings.TrimSpace(input.Answer),
		Citations:    citations,
		Confidence:   input.Confidence,
		Status:       model.AnswerDraft,
		Owner:        input.Owner,
		AuthoredBy:   authoredBy,
		NextReviewAt: s.now().Add(s.policy.ReviewCadence),
	}
	for i := range answer.Citations {
		answer.Citations[i].AnswerID = answer.ID
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}
	s.logger.Info("golden answer proposed",
		zap.String("answer_id", answer.ID),
		zap.String("notebook_id", answer.NotebookID),
		zap.Int("citations", len(answer.Citations)))
	return answer, nil
}

// Approve publishes a draft. Notebook counts below the minimum are reported, never enforced.
func (s *GoldenAnswerService) Approve(ctx context.Context, id string, approver Actor) (*model.GoldenAnswer, error) {
	answer, unlock, err := s.lockAnswer(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if answer.Status != model.AnswerDraft {
		return nil, &StateConflictError{From: string(answer.Status), To: string(model.AnswerPublished), Reason: "only draft answers can be approved"}
	}
	if !approver.ApprovesFor(answer.Department) {
		return nil, fmt.Errorf("%w: %s may not approve answers of %s", ErrAuthorization, approver.Username, answer.Department)
	}
	if stale := s.staleCitations(ctx, answer); len(stale) > 0 {
		return nil, &ValidationError{Fields: stale, Reason: "cited documents are no longer ACTIVE"}
	}

	now := s.now()
	answer.Status = model.AnswerPublished
	answer.ApprovedBy = approver.Username
	answer.ApprovedAt = &now
	answer.NextReviewAt = now.Add(s.policy.ReviewCadence)
	if err := s.answers.Update(ctx, answer); err != nil {
		return nil, err
	}
	s.logger.Info("golden answer published", zap.String("answer_id", answer.ID), zap.String("approved_by", approver.Username))
	recordDecision(ctx, s.decisions, s.logger, answerDecision(answer, model.DecisionApproved, approver.Username, "", now))
	s.reportCoverage(ctx, answer.NotebookID)
	return answer, nil
}

// Reject closes a draft with the reviewer's note. Rejected answers are never published;
// the author proposes a corrected answer instead.
func (s *GoldenAnswerService) Reject(ctx context.Context, id string, reviewer Actor, note string) (*model.GoldenAnswer, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, validationErr("a rejection needs a note for the author", "note")
	}

	answer, unlock, err := s.lockAnswer(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if answer.Status != model.AnswerDraft {
		return nil, &StateConflictError{From: string(answer.Status), To: string(model.AnswerRejected), Reason: "only draft answers can be rejected"}
	}
	if !reviewer.ApprovesFor(answer.Department) {
		return nil, fmt.Errorf("%w: %s may not review answers of %s", ErrAuthorization, reviewer.Username, answer.Department)
	}

	now := s.now()
	decision := answerDecision(answer, model.DecisionRejected, reviewer.Username, note, now)
	if err := s.decisions.Create(ctx, decision); err != nil {
		return nil, err
	}
	answer.Status = model.AnswerRejected
	answer.ReviewReason = note
	answer.LastReviewedBy = reviewer.Username
	answer.LastReviewedAt = &now
	if err := s.answers.Update(ctx, answer); err != nil {
		return nil, err
	}
	s.logger.Info("golden answer rejected", zap.String("answer_id", answer.ID), zap.String("reviewer", reviewer.Username))
	return answer, nil
}

// ListPending lists draft answers awaiting approval. An empty department lists all.
func (s *GoldenAnswerService) ListPending(ctx context.Context, department string) ([]model.GoldenAnswer, error) {
	return s.answers.ListByStatus(ctx, model.AnswerDraft, department)
}

// OnDocumentStatusChanged downgrades published answers citing documentID once it leaves ACTIVE.
func (s *GoldenAnswerService) OnDocumentStatusChanged(ctx context.Context, documentID string, status model.DocumentStatus) (int, error) {
	if status == model.StatusActive {
		return 0, nil
	}
	citing, err := s.answers.ListPublishedCitingDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	downgraded := 0
	var errs []error
	for _, candidate := range citing {
		changed, err := s.downgrade(ctx, candidate.ID, fmt.Sprintf("cited document %s is %s", documentID, status))
		if err != nil {
			s.logger.Warn("downgrade golden answer failed", zap.String("answer_id", candidate.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if changed {
			downgraded++
		}
	}
	return downgraded, errors.Join(errs...)
}

// Review re-validates a published answer and restarts its review cadence.
func (s *GoldenAnswerService) Review(ctx context.Context, id string, input ReviewInput) (*model.GoldenAnswer, error) {
	if !assignableConfidence(input.Confidence) {
		return nil, validationErr("confidence must be VERIFIED or ASSUMPTION", "confidence")
	}

	answer, unlock, err := s.lockAnswer(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if answer.Status != model.AnswerPublished {
		return nil, &StateConflictError{From: string(answer.Status), To: string(model.AnswerPublished), Reason: "only published answers are reviewed, approve the draft instead"}
	}
	if !input.Reviewer.ApprovesFor(answer.Department) {
		return nil, fmt.Errorf("%w: %s may not review answers of %s", ErrAuthorization, input.Reviewer.Username, answer.Department)
	}

	replaced := len(input.Citations) > 0
	if replaced {
		citations, first, err := s.captureCitations(ctx, input.Citations)
		if err != nil {
			return nil, err
		}
		if first.Department != answer.Department {
			return nil, validationErr("the first citation must stay within the answer's department", "citations")
		}
		answer.Citations = citations
	} else if stale := s.staleCitations(ctx, answer); len(stale) > 0 {
		return nil, &ValidationError{Fields: stale, Reason: "replace citations of documents that are no longer ACTIVE"}
	}
	if input.Answer != nil {
		text := strings.TrimSpace(*input.Answer)
		if text == "" {
			return nil, validationErr("answer text is empty", "answer")
		}
		answer.Answer = text
	}

	now := s.now()
	answer.Confidence = input.Confidence
	answer.LastReviewedBy = input.Reviewer.Username
	answer.LastReviewedAt = &now
	answer.NextReviewAt = now.Add(s.policy.ReviewCadence)
	answer.ReviewReason = ""

	if replaced {
		err = s.answers.UpdateWithCitations(ctx, answer)
	} else {
		err = s.answers.Update(ctx, answer)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("golden answer reviewed", zap.String("answer_id", answer.ID), zap.String("reviewer", input.Reviewer.Username))
	return answer, nil
}

// Get returns the answer after reconciling its label with its citations' current status.
func (s *GoldenAnswerService) Get(ctx context.Context, id string) (*model.GoldenAnswer, error) {
	answer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer.Status != model.AnswerPublished || answer.Confidence == model.ConfidenceOutdatedRisk {
		return answer, nil
	}
	if stale := s.staleCitations(ctx, answer); len(stale) > 0 {
		if _, err := s.downgrade(ctx, id, staleReason(stale)); err != nil {
			return nil, err
		}
		return s.load(ctx, id)
	}
	return answer, nil
}

// Reconcile compares every published answer with the current status of its citations.
// Failures are logged and picked up again by the next sweep.
func (s *GoldenAnswerService) Reconcile(ctx context.Context) (int, error) {
	published, err := s.answers.ListPublished(ctx)
	if err != nil {
		return 0, err
	}
	downgraded := 0
	for i := range published {
		answer := &published[i]
		if answer.Confidence == model.ConfidenceOutdatedRisk {
			continue
		}
		stale := s.staleCitations(ctx, answer)
		if len(stale) == 0 {
			continue
		}
		changed, err := s.downgrade(ctx, answer.ID, staleReason(stale))
		if err != nil {
			s.logger.Warn("reconcile golden answer failed", zap.String("answer_id", answer.ID), zap.Error(err))
			continue
		}
		if changed {
			downgraded++
		}
	}
	return downgraded, nil
}

func (s *GoldenAnswerService) ListDueForReview(ctx context.Context) ([]model.GoldenAnswer, error) {
	return s.answers.ListDueForReview(ctx, s.now())
}

// Coverage counts published answers per notebook of the taxonomy.
func (s *GoldenAnswerService) Coverage(ctx context.Context) ([]NotebookCoverage, error) {
	published, err := s.answers.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range published {
		counts[a.NotebookID]++
	}

	var out []NotebookCoverage
	seen := make(map[string]struct{})
	for _, dept := range s.taxonomy.Departments {
		for _, sa := range dept.SubAreas {
			if sa.NotebookID == "" {
				continue
			}
			if _, dup := seen[sa.NotebookID]; dup {
				continue
			}
			seen[sa.NotebookID] = struct{}{}
			out = append(out, s.coverageOf(sa.NotebookID, dept.Code, sa.Name, counts[sa.NotebookID]))
		}
	}
	for notebookID, n := range counts {
		if _, ok := seen[notebookID]; ok || notebookID == "" {
			continue
		}
		out = append(out, s.coverageOf(notebookID, "", "", n))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].SubArea < out[j].SubArea
	})
	return out, nil
}

func (s *GoldenAnswerService) coverageOf(notebookID, department, subArea string, published int) NotebookCoverage {
	return NotebookCoverage{
		NotebookID:   notebookID,
		Department:   department,
		SubArea:      subArea,
		Published:    published,
		Minimum:      s.policy.NotebookMinimum,
		BelowMinimum: published < s.policy.NotebookMinimum,
	}
}

func (s *GoldenAnswerService) reportCoverage(ctx context.Context, notebookID string) {
	if notebookID == "" || s.policy.NotebookMinimum <= 0 {
		return
	}
	published, err := s.answers.ListPublished(ctx)
	if err != nil {
		s.logger.Warn("golden answer coverage check failed", zap.Error(err))
		return
	}
	n := 0
	for _, a := range published {
		if a.NotebookID == notebookID {
			n++
		}
	}
	if n < s.policy.NotebookMinimum {
		s.logger.Warn("notebook below golden answer minimum",
			zap.String("notebook_id", notebookID),
			zap.Int("published", n),
			zap.Int("minimum", s.policy.NotebookMinimum))
	}
}

func (s *GoldenAnswerService) downgrade(ctx context.Context, id, reason string) (bool, error) {
	answer, unlock, err := s.lockAnswer(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	if answer.Status != model.AnswerPublished || answer.Confidence == model.ConfidenceOutdatedRisk {
		return false, nil
	}
	answer.Confidence = model.ConfidenceOutdatedRisk
	answer.NextReviewAt = s.now()
	answer.ReviewReason = reason
	if err := s.answers.Update(ctx, answer); err != nil {
		return false, err
	}
	s.logger.Info("golden answer downgraded",
		zap.String("answer_id", answer.ID),
		zap.String("reason", reason))
	return true, nil
}

func (s *GoldenAnswerService) captureCitations(ctx context.Context, inputs []CitationInput) ([]model.Citation, *model.Document, error) {
	var first *model.Document
	var invalid []string
	citations := make([]model.Citation, 0, len(inputs))
	now := s.now()
	for i, in := range inputs {
		doc, err := s.docs.Get(ctx, in.DocumentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}
		if doc == nil || doc.Status != model.StatusActive {
			invalid = append(invalid, fmt.Sprintf("citations[%d]", i))
			continue
		}
		location := strings.TrimSpace(in.Location)
		if utf8.RuneCountInString(location) > maxCitationLocation {
			invalid = append(invalid, fmt.Sprintf("citations[%d].location", i))
			continue
		}
		if first == nil {
			first = doc
		}
		citations = append(citations, model.Citation{
			Position:       i,
			DocumentID:     doc.ID,
			Location:       location,
			CapturedStatus: doc.Status,
			CapturedAt:     now,
		})
	}
	if len(invalid) > 0 {
		return nil, nil, &ValidationError{Fields: invalid, Reason: "cited documents must be ACTIVE and locations at most 255 characters"}
	}
	return citations, first, nil
}

// staleCitations returns the ids of cited documents that are missing or not ACTIVE.
// Lookup errors are logged and skipped.
func (s *GoldenAnswerService) staleCitations(ctx context.Context, answer *model.GoldenAnswer) []string {
	var stale []string
	seen := make(map[string]struct{}, len(answer.Citations))
	for _, c := range answer.Citations {
		if _, dup := seen[c.DocumentID]; dup {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		doc, err := s.docs.Get(ctx, c.DocumentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("citation lookup failed", zap.String("document_id", c.DocumentID), zap.Error(err))
			continue
		}
		if doc == nil || doc.Status != model.StatusActive {
			stale = append(stale, c.DocumentID)
		}
	}
	return stale
}

func (s *GoldenAnswerService) load(ctx context.Context, id string) (*model.GoldenAnswer, error) {
	answer, err := s.answers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, fmt.Errorf("%w: golden answer %s", ErrNotFound, id)
	}
	return answer, nil
}

func (s *GoldenAnswerService) lockAnswer(ctx context.Context, id string) (*model.GoldenAnswer, func(), error) {
	unlock, err := s.locker.Lock(ctx, "answer:"+id)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire answer lock failed: %w", err)
	}
	answer, err := s.load(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return answer, unlock, nil
}

// staleReason names at most a few stale ids so the reason fits its column.
func staleReason(stale []string) string {
	const shown = 3
	if len(stale) <= shown {
		return "cited documents no longer ACTIVE: " + strings.Join(stale, ", ")
	}
	return fmt.Sprintf("%d cited documents no longer ACTIVE: %s and %d more",
		len(stale), strings.Join(stale[:shown], ", "), len(stale)-shown)
}

func assignableConfidence(c model.Confidence) bool {
	return c == model.ConfidenceVerified || c == model.ConfidenceAssumption
}
