package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
)

type Archiver interface {
	ArchiveExpired(ctx context.Context) (int, error)
}

type AnswerSweeper interface {
	Reconcile(ctx context.Context) (int, error)
	ListDueForReview(ctx context.Context) ([]model.GoldenAnswer, error)
	Coverage(ctx context.Context) ([]app.NotebookCoverage, error)
}

// MaintenanceWorker runs the periodic governance sweeps: retention archival,
// golden answer reconciliation, and review/coverage reporting.
type MaintenanceWorker struct {
	archiver Archiver
	answers  AnswerSweeper
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type SweepReport struct {
	Archived     int
	Downgraded   int
	DueForReview int
	BelowMinimum int
}

func NewMaintenanceWorker(archiver Archiver, answers AnswerSweeper, interval time.Duration, logger *zap.Logger) *MaintenanceWorker {
	return &MaintenanceWorker{
		archiver: archiver,
		answers:  answers,
		interval: interval,
		logger:   logger.With(zap.String("worker", "maintenance")),
	}
}

func (w *MaintenanceWorker) Start(ctx context.Context) {
	if w.cancel != nil || w.interval <= 0 {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				w.RunOnce(workerCtx)
			}
		}
	}()
}

// RunOnce performs a single sweep. Each step runs even when an earlier one failed.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) SweepReport {
	var report SweepReport

	archived, err := w.archiver.ArchiveExpired(ctx)
	if err != nil {
		w.logger.Warn("archive expired documents incomplete", zap.Error(err))
	}
	report.Archived = archived

	downgraded, err := w.answers.Reconcile(ctx)
	if err != nil {
		w.logger.Warn("reconcile golden answers failed", zap.Error(err))
	}
	report.Downgraded = downgraded

	due, err := w.answers.ListDueForReview(ctx)
	if err != nil {
		w.logger.Warn("list golden answers due for review failed", zap.Error(err))
	}
	report.DueForReview = len(due)
	for _, a := range due {
		w.logger.Info("golden answer due for review",
			zap.String("answer_id", a.ID),
			zap.String("owner", a.Owner),
			zap.String("confidence", string(a.Confidence)),
			zap.Time("next_review_at", a.NextReviewAt))
	}

	coverage, err := w.answers.Coverage(ctx)
	if err != nil {
		w.logger.Warn("golden answer coverage failed", zap.Error(err))
	}
	for _, c := range coverage {
		if c.BelowMinimum {
			report.BelowMinimum++
		}
	}

	w.logger.Info("maintenance sweep finished",
		zap.Int("archived", report.Archived),
		zap.Int("downgraded", report.Downgraded),
		zap.Int("due_for_review", report.DueForReview),
		zap.Int("notebooks_below_minimum", report.BelowMinimum))
	return report
}

func (w *MaintenanceWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
