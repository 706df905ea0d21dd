package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"knowledge-governance/internal/model"
	"knowledge-governance/internal/repository"
	"knowledge-governance/internal/taxonomy"
)

type BumpKind string

const (
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
)

type LifecyclePolicy struct {
	SupersededSuffix    string
	DeprecatedRetention time.Duration
}

type LifecycleService struct {
	docs      DocumentStore
	checks    PIICheckStore
	decisions ApprovalDecisionStore
	validator *MetadataValidator
	gate      PIIGate
	taxonomy  *taxonomy.Taxonomy
	locker    Locker
	notifier  StatusNotifier
	cache     CitableCache
	policy    LifecyclePolicy
	logger    *zap.Logger
	now       func() time.Time
}

type RegisterInput struct {
	FileName   string
	FolderPath string
	ContentRef string
	Metadata   model.Metadata
	CreatedBy  string
}

type NewVersionInput struct {
	FileName   string
	ContentRef string
	Bump       BumpKind
	Patch      MetadataPatch
	CreatedBy  string
}

// MetadataPatch holds in-place corrections. Nil fields are left unchanged.
type MetadataPatch struct {
	Owner            *string
	Tags             []string
	Classification   *model.Classification
	CreationDate     *time.Time
	ReviewDate       *time.Time
	SourceDepartment *string
}

func (p MetadataPatch) apply(md *model.Metadata) {
	if p.Owner != nil {
		md.Owner = strings.TrimSpace(*p.Owner)
	}
	if p.Tags != nil {
		md.Tags = normalizeTags(p.Tags)
	}
	if p.Classification != nil {
		md.Classification = *p.Classification
	}
	if p.CreationDate != nil {
		d := p.CreationDate.UTC()
		md.CreationDate = &d
	}
	if p.ReviewDate != nil {
		d := p.ReviewDate.UTC()
		md.ReviewDate = &d
	}
	if p.SourceDepartment != nil {
		md.SourceDepartment = strings.TrimSpace(*p.SourceDepartment)
	}
}

func NewLifecycleService(
	docs DocumentStore,
	checks PIICheckStore,
	decisions ApprovalDecisionStore,
	validator *MetadataValidator,
	tx *taxonomy.Taxonomy,
	locker Locker,
	notifier StatusNotifier,
	cache CitableCache,
	policy LifecyclePolicy,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		docs:      docs,
		checks:    checks,
		decisions: decisions,
		validator: validator,
		taxonomy:  tx,
		locker:    locker,
		notifier:  notifier,
		cache:     cache,
		policy:    policy,
		logger:    logger.With(zap.String("service", "lifecycle")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier replaces the status-change notifier. In-process delivery needs the
// golden answer service, which in turn reads documents through this service.
func (s *LifecycleService) SetNotifier(notifier StatusNotifier) {
	s.notifier = notifier
}

// Register creates the first DRAFT version of a new lineage.
func (s *LifecycleService) Register(ctx context.Context, input RegisterInput) (*model.Document, error) {
	name, err := ParseFileName(input.FileName)
	if err != nil {
		return nil, err
	}
	loc, err := s.taxonomy.Resolve(input.FolderPath)
	if err != nil {
		return nil, validationErr(err.Error(), "folder_path")
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, validationErr("creator is required", "created_by")
	}

	md := input.Metadata
	if err := reconcileFileName(&md, name); err != nil {
		return nil, err
	}
	md.Tags = normalizeTags(md.Tags)

	id := uuid.NewString()
	now := s.now()
	doc := &model.Document{
		ID:         id,
		LineageID:  id,
		FileName:   name.String(),
		FolderPath: strings.Trim(input.FolderPath, "/"),
		Department: loc.Department,
		SubArea:    loc.SubArea,
		ContentRef: input.ContentRef,
		Metadata:   md,
		Status:     model.StatusDraft,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document registered",
		zap.String("document_id", doc.ID),
		zap.String("file_name", doc.FileName),
		zap.String("department", doc.Department))
	return doc, nil
}

// CreateVersion records a new DRAFT superseding the lineage head. Content edits never touch the predecessor.
func (s *LifecycleService) CreateVersion(ctx context.Context, predecessorID string, input NewVersionInput) (*model.Document, error) {
	if input.Bump != BumpMinor && input.Bump != BumpMajor {
		return nil, validationErr("bump must be minor or major", "bump")
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, validationErr("creator is required", "created_by")
	}
	name, err := ParseFileName(input.FileName)
	if err != nil {
		return nil, err
	}

	pred, unlock, err := s.lockDocument(ctx, predecessorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if pred.Status == model.StatusArchived {
		return nil, &StateConflictError{From: string(pred.Status), To: string(model.StatusDraft), Reason: "archived documents are read-only"}
	}
	versions, err := s.docs.ListByLineage(ctx, pred.LineageID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		versions = []model.Document{*pred}
	}
	head := versions[len(versions)-1]
	if head.ID != pred.ID {
		return nil, &StateConflictError{
			From:   string(pred.Status),
			To:     string(model.StatusDraft),
			Reason: fmt.Sprintf("%s is not the latest version, create the version from %s", pred.ID, head.ID),
		}
	}
	if head.Status == model.StatusDraft {
		return nil, &StateConflictError{
			From:   string(head.Status),
			To:     string(model.StatusDraft),
			Reason: fmt.Sprintf("%s is still a draft, correct it or activate it first", head.ID),
		}
	}

	next := head.Metadata.Version().NextMinor()
	if input.Bump == BumpMajor {
		next = head.Metadata.Version().NextMajor()
	}
	if name.Version != next {
		return nil, validationErr(fmt.Sprintf("file name must carry version %s", next), "file_name", FieldVersion)
	}
	if name.ContentType != pred.Metadata.ContentType || name.Subject != pred.Metadata.Subject {
		return nil, validationErr("content type and subject must match the lineage", "file_name")
	}
	for _, v := range versions {
		md := v.Metadata
		if md.Subject == name.Subject && md.Version() == name.Version && md.CreationDate != nil && md.CreationDate.Equal(name.Date) {
			return nil, validationErr("another version already uses this subject, date and version", "file_name")
		}
	}

	md := pred.Metadata
	md.Tags = append([]string(nil), pred.Metadata.Tags...)
	input.Patch.apply(&md)
	md.VersionMajor, md.VersionMinor = next.Major, next.Minor
	date := name.Date
	md.CreationDate = &date

	now := s.now()
	doc := &model.Document{
		ID:           uuid.NewString(),
		LineageID:    pred.LineageID,
		SupersedesID: pred.ID,
		FileName:     name.String(),
		FolderPath:   pred.FolderPath,
		Department:   pred.Department,
		SubArea:      pred.SubArea,
		ContentRef:   input.ContentRef,
		Metadata:     md,
		Status:       model.StatusDraft,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document version created",
		zap.String("document_id", doc.ID),
		zap.String("supersedes_id", pred.ID),
		zap.String("version", next.String()))
	return doc, nil
}

func (s *LifecycleService) UpdateMetadata(ctx context.Context, docID string, patch MetadataPatch) (*model.Document, error) {
	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusDraft {
		return nil, &StateConflictError{From: string(doc.Status), To: string(doc.Status), Reason: "only DRAFT metadata can be corrected, create a new version instead"}
	}
	patch.apply(&doc.Metadata)
	doc.UpdatedAt = s.now()
	if err := s.docs.UpdateDraft(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return nil, &StateConflictError{From: string(model.StatusDraft), To: string(model.StatusDraft), Reason: "document changed concurrently"}
		}
		return nil, err
	}
	return doc, nil
}

func (s *LifecycleService) ValidateMetadata(ctx context.Context, docID string) (MetadataResult, error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return MetadataResult{}, err
	}
	return s.validator.Validate(doc, s.validator.Schema()), nil
}

// CheckPII stores an immutable gate record. A blocked result is returned together with a ComplianceBlockError.
func (s *LifecycleService) CheckPII(ctx context.Context, docID string, answers map[string]bool, answeredBy string) (*model.PIICheck, error) {
	if strings.TrimSpace(answeredBy) == "" {
		return nil, validationErr("the person answering the questionnaire is required", "answered_by")
	}
	outcome, positives, err := s.gate.Evaluate(answers)
	if err != nil {
		return nil, err
	}

	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusDraft {
		return nil, &StateConflictError{From: string(doc.Status), To: string(doc.Status), Reason: "the pii gate only evaluates DRAFT documents"}
	}

	check := &model.PIICheck{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Answers:    answers,
		Positive:   positives,
		Outcome:    outcome,
		AnsweredBy: answeredBy,
		AnsweredAt: s.now(),
	}
	if err := s.checks.Create(ctx, check); err != nil {
		return nil, err
	}

	if outcome == model.PIIBlocked {
		s.logger.Warn("pii gate blocked document, compliance review required",
			zap.String("document_id", doc.ID),
			zap.Strings("positive", positives),
			zap.String("answered_by", answeredBy))
		return check, &ComplianceBlockError{DocumentID: doc.ID, Positive: positives}
	}
	return check, nil
}

func (s *LifecycleService) ListPIIChecks(ctx context.Context, docID string) ([]model.PIICheck, error) {
	if _, err := s.Get(ctx, docID); err != nil {
		return nil, err
	}
	return s.checks.ListByDocument(ctx, docID)
}

// RequestActivation moves a DRAFT to ACTIVE. The immediate predecessor, when ACTIVE, is
// deprecated and renamed in the same write. Any other ACTIVE version blocks the activation.
func (s *LifecycleService) RequestActivation(ctx context.Context, docID string, approver Actor) (*model.Document, error) {
	if strings.TrimSpace(approver.Username) == "" {
		return nil, validationErr("approver identity is required", "approver")
	}

	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusDraft {
		return nil, transitionErr(doc.Status, model.StatusActive)
	}
	if !approver.mayGovern(doc) {
		return nil, fmt.Errorf("%w: %s may not approve documents of %s", ErrAuthorization, approver.Username, doc.Department)
	}
	if err := s.activationGuards(ctx, doc); err != nil {
		return nil, err
	}

	versions, err := s.docs.ListByLineage(ctx, doc.LineageID)
	if err != nil {
		return nil, err
	}
	var current *model.Document
	for i := range versions {
		if versions[i].Status == model.StatusActive {
			current = &versions[i]
		}
	}
	if current != nil && current.ID != doc.SupersedesID {
		return nil, &StateConflictError{
			From:   string(doc.Status),
			To:     string(model.StatusActive),
			Reason: fmt.Sprintf("active version %s is not the immediate predecessor of %s", current.Metadata.Version(), doc.Metadata.Version()),
		}
	}

	now := s.now()
	doc.Status = model.StatusActive
	doc.ApprovedBy = approver.Username
	doc.ApprovedAt = &now
	doc.UpdatedAt = now
	transitions := []repository.Transition{{Document: doc, From: model.StatusDraft}}
	events := []model.StatusChangeEvent{s.event(doc, model.StatusDraft, now)}

	if current != nil {
		current.Status = model.StatusDeprecated
		current.DeprecatedAt = &now
		current.FileName = SupersededName(current.FileName, s.policy.SupersededSuffix)
		current.UpdatedAt = now
		transitions = append(transitions, repository.Transition{Document: current, From: model.StatusActive})
		events = append(events, s.event(current, model.StatusActive, now))
	}

	if err := s.saveTransitions(ctx, transitions...); err != nil {
		return nil, err
	}
	s.logger.Info("document activated",
		zap.String("document_id", doc.ID),
		zap.String("approved_by", approver.Username),
		zap.Bool("superseded_previous", current != nil))

	s.afterCommit(ctx, doc.Department, events...)
	s.checkLineageInvariant(ctx, doc.LineageID)
	recordDecision(ctx, s.decisions, s.logger, documentDecision(doc, model.DecisionApproved, approver.Username, "", now))
	return doc, nil
}

// RejectActivation records a reviewer's refusal with a note. The document stays DRAFT and
// drops out of the pending list until its metadata is corrected.
func (s *LifecycleService) RejectActivation(ctx context.Context, docID string, reviewer Actor, note string) (*model.ApprovalDecision, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, validationErr("a rejection needs a note for the owner", "note")
	}

	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusDraft {
		return nil, &StateConflictError{From: string(doc.Status), To: string(doc.Status), Reason: "only DRAFT documents await activation"}
	}
	if !reviewer.ApprovesFor(doc.Department) {
		return nil, fmt.Errorf("%w: %s may not review documents of %s", ErrAuthorization, reviewer.Username, doc.Department)
	}

	decision := documentDecision(doc, model.DecisionRejected, reviewer.Username, note, s.now())
	if err := s.decisions.Create(ctx, decision); err != nil {
		return nil, err
	}
	s.logger.Info("document activation rejected",
		zap.String("document_id", doc.ID),
		zap.String("reviewer", reviewer.Username))
	return decision, nil
}

// ListPendingActivation lists DRAFT documents awaiting a decision. An empty department lists all.
func (s *LifecycleService) ListPendingActivation(ctx context.Context, department string) ([]model.Document, error) {
	drafts, err := s.docs.ListByStatus(ctx, model.StatusDraft, department)
	if err != nil {
		return nil, err
	}
	pending := make([]model.Document, 0, len(drafts))
	for _, doc := range drafts {
		last, err := s.decisions.LatestForSubject(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if last != nil && last.Decision == model.DecisionRejected && !last.DecidedAt.Before(doc.UpdatedAt) {
			continue
		}
		pending = append(pending, doc)
	}
	return pending, nil
}

func (s *LifecycleService) activationGuards(ctx context.Context, doc *model.Document) error {
	result := s.validator.Validate(doc, s.validator.Schema())
	if !result.Complete {
		return &ValidationError{Fields: result.Fields, Reason: "metadata is incomplete"}
	}
	check, err := s.checks.Latest(ctx, doc.ID)
	if err != nil {
		return err
	}
	if check == nil {
		return &ComplianceBlockError{DocumentID: doc.ID}
	}
	if check.Outcome != model.PIIClear {
		return &ComplianceBlockError{DocumentID: doc.ID, Positive: check.Positive}
	}
	return nil
}

func (s *LifecycleService) Deprecate(ctx context.Context, docID string, actor Actor) (*model.Document, error) {
	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusActive {
		return nil, transitionErr(doc.Status, model.StatusDeprecated)
	}
	if !actor.mayGovern(doc) {
		return nil, fmt.Errorf("%w: %s may not deprecate documents of %s", ErrAuthorization, actor.Username, doc.Department)
	}

	now := s.now()
	doc.Status = model.StatusDeprecated
	doc.DeprecatedAt = &now
	doc.UpdatedAt = now
	if err := s.saveTransitions(ctx, repository.Transition{Document: doc, From: model.StatusActive}); err != nil {
		return nil, err
	}
	s.logger.Info("document deprecated", zap.String("document_id", doc.ID), zap.String("actor", actor.Username))
	s.afterCommit(ctx, doc.Department, s.event(doc, model.StatusActive, now))
	return doc, nil
}

func (s *LifecycleService) Archive(ctx context.Context, docID string, actor Actor) (*model.Document, error) {
	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if doc.Status != model.StatusActive && doc.Status != model.StatusDeprecated {
		return nil, transitionErr(doc.Status, model.StatusArchived)
	}
	if !actor.mayGovern(doc) {
		return nil, fmt.Errorf("%w: %s may not archive documents of %s", ErrAuthorization, actor.Username, doc.Department)
	}
	if err := s.archive(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document archived", zap.String("document_id", doc.ID), zap.String("actor", actor.Username))
	return doc, nil
}

// ArchiveExpired archives DEPRECATED documents older than the retention interval.
// Failures are logged and retried on the next run.
func (s *LifecycleService) ArchiveExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.policy.DeprecatedRetention)
	expired, err := s.docs.ListDeprecatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	archived := 0
	var errs []error
	for _, candidate := range expired {
		if err := s.archiveExpiredOne(ctx, candidate.ID, cutoff); err != nil {
			s.logger.Warn("archive expired document failed", zap.String("document_id", candidate.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		archived++
	}
	return archived, errors.Join(errs...)
}

func (s *LifecycleService) archiveExpiredOne(ctx context.Context, docID string, cutoff time.Time) error {
	doc, unlock, err := s.lockDocument(ctx, docID)
	if err != nil {
		return err
	}
	defer unlock()

	if doc.Status != model.StatusDeprecated || doc.DeprecatedAt == nil || !doc.DeprecatedAt.Before(cutoff) {
		return nil
	}
	return s.archive(ctx, doc)
}

func (s *LifecycleService) archive(ctx context.Context, doc *model.Document) error {
	from := doc.Status
	now := s.now()
	doc.Status = model.StatusArchived
	doc.ArchivedAt = &now
	doc.UpdatedAt = now
	if err := s.saveTransitions(ctx, repository.Transition{Document: doc, From: from}); err != nil {
		return err
	}
	s.afterCommit(ctx, doc.Department, s.event(doc, from, now))
	return nil
}

func (s *LifecycleService) Get(ctx context.Context, docID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, docID)
	}
	return doc, nil
}

func (s *LifecycleService) ListVersions(ctx context.Context, docID string) ([]model.Document, error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	return s.docs.ListByLineage(ctx, doc.LineageID)
}

// Successor returns the version that supersedes docID, or nil for the lineage head.
func (s *LifecycleService) Successor(ctx context.Context, docID string) (*model.Document, error) {
	if _, err := s.Get(ctx, docID); err != nil {
		return nil, err
	}
	return s.docs.FindBySupersedes(ctx, docID)
}

// ListActiveCitableDocuments lists ACTIVE documents, all departments when department is empty.
func (s *LifecycleService) ListActiveCitableDocuments(ctx context.Context, department string) ([]model.Document, error) {
	if department != "" {
		if _, ok := s.taxonomy.Department(department); !ok {
			return nil, validationErr("unknown department", FieldDepartment)
		}
	}
	if s.cache != nil {
		docs, hit, err := s.cache.Get(ctx, department)
		if err != nil {
			s.logger.Warn("citable cache read failed", zap.Error(err))
		} else if hit {
			return docs, nil
		}
	}

	docs, err := s.docs.ListByStatus(ctx, model.StatusActive, department)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, department, docs); err != nil {
			s.logger.Warn("citable cache write failed", zap.Error(err))
		}
	}
	return docs, nil
}

// lockDocument takes the lineage lock of docID and returns the document as read under it.
func (s *LifecycleService) lockDocument(ctx context.Context, docID string) (*model.Document, func(), error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	unlock, err := s.locker.Lock(ctx, "lineage:"+doc.LineageID)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire lineage lock failed: %w", err)
	}
	doc, err = s.Get(ctx, docID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return doc, unlock, nil
}

func (s *LifecycleService) saveTransitions(ctx context.Context, transitions ...repository.Transition) error {
	err := s.docs.SaveTransitions(ctx, transitions...)
	if errors.Is(err, repository.ErrStaleTransition) {
		t := transitions[0]
		return &StateConflictError{From: string(t.From), To: string(t.Document.Status), Reason: "document changed concurrently"}
	}
	return err
}

func (s *LifecycleService) event(doc *model.Document, from model.DocumentStatus, at time.Time) model.StatusChangeEvent {
	return model.StatusChangeEvent{
		DocumentID: doc.ID,
		LineageID:  doc.LineageID,
		Department: doc.Department,
		From:       from,
		To:         doc.Status,
		ChangedAt:  at,
	}
}

// afterCommit runs once the transition is durable. Notification failures are
// repaired by the golden answer reconcile sweep.
func (s *LifecycleService) afterCommit(ctx context.Context, department string, events ...model.StatusChangeEvent) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, department); err != nil {
			s.logger.Warn("citable cache invalidate failed", zap.String("department", department), zap.Error(err))
		}
	}
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		if err := s.notifier.NotifyStatusChanged(ctx, event); err != nil {
			s.logger.Error("notify status change failed",
				zap.String("document_id", event.DocumentID),
				zap.String("to", string(event.To)),
				zap.Error(err))
		}
	}
}

// checkLineageInvariant logs when a lineage has more than one ACTIVE version or an
// ACTIVE version that fails its guards.
func (s *LifecycleService) checkLineageInvariant(ctx context.Context, lineageID string) {
	versions, err := s.docs.ListByLineage(ctx, lineageID)
	if err != nil {
		s.logger.Warn("lineage invariant check skipped", zap.String("lineage_id", lineageID), zap.Error(err))
		return
	}
	active := 0
	for i := range versions {
		if versions[i].Status != model.StatusActive {
			continue
		}
		active++
		if err := s.activationGuards(ctx, &versions[i]); err != nil {
			s.logger.Error("active document violates activation guards",
				zap.String("document_id", versions[i].ID), zap.Error(err))
		}
	}
	if active > 1 {
		s.logger.Error("lineage has more than one active version",
			zap.String("lineage_id", lineageID), zap.Int("active", active))
	}
}

// reconcileFileName fills metadata from the parsed name and rejects disagreements.
func reconcileFileName(md *model.Metadata, name FileName) error {
	var mismatched []string
	if md.ContentType == "" {
		md.ContentType = name.ContentType
	} else if md.ContentType != name.ContentType {
		mismatched = append(mismatched, FieldContentType)
	}
	if md.Subject == "" {
		md.Subject = name.Subject
	} else if md.Subject != name.Subject {
		mismatched = append(mismatched, FieldSubject)
	}
	if md.VersionMajor == 0 && md.VersionMinor == 0 {
		md.VersionMajor, md.VersionMinor = name.Version.Major, name.Version.Minor
	} else if md.Version() != name.Version {
		mismatched = append(mismatched, FieldVersion)
	}
	if md.CreationDate == nil {
		d := name.Date
		md.CreationDate = &d
	}
	if len(mismatched) > 0 {
		return &ValidationError{Fields: mismatched, Reason: "metadata disagrees with the file name"}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
