package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
)

type recordingHandler struct {
	calls []string
	err   error
}

func (h *recordingHandler) OnDocumentStatusChanged(_ context.Context, documentID string, status model.DocumentStatus) (int, error) {
	h.calls = append(h.calls, documentID+":"+string(status))
	return 1, h.err
}

func TestStatusChangeWorkerHandle(t *testing.T) {
	h := &recordingHandler{}
	w := NewStatusChangeWorker(nil, h, "q", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, w.handle(ctx, []byte(`{"document_id":"d1","from":"ACTIVE","to":"DEPRECATED"}`)))
	assert.Equal(t, []string{"d1:DEPRECATED"}, h.calls)

	assert.Error(t, w.handle(ctx, []byte(`not json`)))
	assert.Error(t, w.handle(ctx, []byte(`{"document_id":"d1","to":"GONE"}`)))
	assert.Error(t, w.handle(ctx, []byte(`{"to":"ARCHIVED"}`)))
	assert.Len(t, h.calls, 1)

	h.err = errors.New("store down")
	assert.Error(t, w.handle(ctx, []byte(`{"document_id":"d2","to":"ARCHIVED"}`)))
}

type fakeArchiver struct {
	n   int
	err error
}

func (f fakeArchiver) ArchiveExpired(context.Context) (int, error) { return f.n, f.err }

type fakeSweeper struct {
	reconcileErr error
}

func (f fakeSweeper) Reconcile(context.Context) (int, error) { return 2, f.reconcileErr }

func (fakeSweeper) ListDueForReview(context.Context) ([]model.GoldenAnswer, error) {
	return []model.GoldenAnswer{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}, nil
}

func (fakeSweeper) Coverage(context.Context) ([]app.NotebookCoverage, error) {
	return []app.NotebookCoverage{
		{NotebookID: "n1", Published: 25, Minimum: 20},
		{NotebookID: "n2", Published: 3, Minimum: 20, BelowMinimum: true},
	}, nil
}

func TestMaintenanceRunOnce(t *testing.T) {
	w := NewMaintenanceWorker(fakeArchiver{n: 4}, fakeSweeper{}, 0, zap.NewNop())
	report := w.RunOnce(context.Background())
	assert.Equal(t, SweepReport{Archived: 4, Downgraded: 2, DueForReview: 3, BelowMinimum: 1}, report)
}

func TestMaintenanceRunOnceContinuesAfterFailures(t *testing.T) {
	w := NewMaintenanceWorker(
		fakeArchiver{n: 1, err: errors.New("one archive failed")},
		fakeSweeper{reconcileErr: errors.New("partial")},
		0, zap.NewNop())
	report := w.RunOnce(context.Background())
	assert.Equal(t, 1, report.Archived)
	assert.Equal(t, 3, report.DueForReview)
}

func TestMaintenanceStartWithoutIntervalIsNoop(t *testing.T) {
	w := NewMaintenanceWorker(fakeArchiver{}, fakeSweeper{}, 0, zap.NewNop())
	w.Start(context.Background())
	w.Close()
}
