package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"knowledge-governance/internal/lock"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/repository"
	"knowledge-governance/internal/taxonomy"
)

const solarFolder = "01_Marketing_D2Com/Product_Marketing_Solar/03_Creative_Assets"

var (
	owner    = Actor{Username: "linh", Role: model.RoleContributor, Department: "D2COM"}
	approver = Actor{Username: "an", Role: model.RoleApprover, Department: "D2COM"}
	outsider = Actor{Username: "bao", Role: model.RoleApprover, Department: "B2B"}
	admin    = Actor{Username: "root", Role: model.RoleAdmin}
)

var defaultSchema = []string{
	"owner", "content_type", "version", "tags", "classification",
	"creation_date", "review_date", "source_department", "status",
}

type testEnv struct {
	tx        *taxonomy.Taxonomy
	docs      *repository.MemoryDocumentRepository
	checks    *repository.MemoryPIICheckRepository
	answers   *repository.MemoryGoldenAnswerRepository
	decisions *repository.MemoryApprovalDecisionRepository
	lifecycle *LifecycleService
	golden    *GoldenAnswerService
	approvals *ApprovalService
	clock     time.Time
}

type envOption func(*testEnv)

// withoutNotifier simulates a lost status-change notification.
func withoutNotifier() envOption {
	return func(e *testEnv) { e.lifecycle.SetNotifier(nil) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	tx, err := taxonomy.Load("")
	require.NoError(t, err)

	env := &testEnv{
		tx:        tx,
		docs:      repository.NewMemoryDocumentRepository(),
		checks:    repository.NewMemoryPIICheckRepository(),
		answers:   repository.NewMemoryGoldenAnswerRepository(),
		decisions: repository.NewMemoryApprovalDecisionRepository(),
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	locker := lock.NewLocalLocker()
	logger := zap.NewNop()

	env.lifecycle = NewLifecycleService(
		env.docs, env.checks, env.decisions,
		NewMetadataValidator(tx, defaultSchema),
		tx, locker, nil, nil,
		LifecyclePolicy{SupersededSuffix: "_SUPERSEDED", DeprecatedRetention: 90 * 24 * time.Hour},
		logger,
	)
	env.golden = NewGoldenAnswerService(env.answers, env.decisions, env.lifecycle, tx, locker,
		GoldenAnswerPolicy{ReviewCadence: 182 * 24 * time.Hour, NotebookMinimum: 20}, logger)
	env.lifecycle.SetNotifier(NewDirectNotifier(env.golden))
	env.approvals = NewApprovalService(env.lifecycle, env.golden, env.decisions, logger)

	now := func() time.Time { return env.clock }
	env.lifecycle.now = now
	env.golden.now = now

	for _, opt := range opts {
		opt(env)
	}
	return env
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

func completeMetadata() model.Metadata {
	review := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	return model.Metadata{
		Owner:            "linh",
		Tags:             []string{"solar", "home"},
		Classification:   model.ClassificationInternal,
		ReviewDate:       &review,
		SourceDepartment: "D2COM",
	}
}

func allNo() map[string]bool {
	answers := make(map[string]bool, len(PIIQuestions))
	for _, q := range PIIQuestions {
		answers[q.Code] = false
	}
	return answers
}

func (e *testEnv) register(t *testing.T, md model.Metadata) *model.Document {
	t.Helper()
	doc, err := e.lifecycle.Register(context.Background(), RegisterInput{
		FileName:   "Brochure_SolarHome_20240115_v1.0.pdf",
		FolderPath: solarFolder,
		ContentRef: "drive://file-1",
		Metadata:   md,
		CreatedBy:  "linh",
	})
	require.NoError(t, err)
	return doc
}

// activeDocument registers, clears and activates a v1.0 document.
func (e *testEnv) activeDocument(t *testing.T) *model.Document {
	t.Helper()
	ctx := context.Background()
	doc := e.register(t, completeMetadata())
	_, err := e.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	require.NoError(t, err)
	doc, err = e.lifecycle.RequestActivation(ctx, doc.ID, approver)
	require.NoError(t, err)
	return doc
}

func (e *testEnv) newVersion(t *testing.T, predecessorID, fileName string, bump BumpKind) *model.Document {
	t.Helper()
	doc, err := e.lifecycle.CreateVersion(context.Background(), predecessorID, NewVersionInput{
		FileName:  fileName,
		Bump:      bump,
		CreatedBy: "linh",
	})
	require.NoError(t, err)
	return doc
}

func (e *testEnv) status(t *testing.T, id string) model.DocumentStatus {
	t.Helper()
	doc, err := e.lifecycle.Get(context.Background(), id)
	require.NoError(t, err)
	return doc.Status
}
