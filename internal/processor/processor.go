package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "resume-analyzer/internal/errors"
	"resume-analyzer/internal/models"
	"resume-analyzer/internal/objectstore"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
)

const consumeErrorDelay = 5 * time.Second

// CompensationWorker deletes the uploads of failed pipeline runs.
type CompensationWorker struct {
	runs       storage.RunStore
	queue      queue.RunFetcher
	store      objectstore.FileStorer
	s3Bucket   string
	maxRetries int
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

func NewCompensationWorker(runs storage.RunStore, q queue.RunFetcher, store objectstore.FileStorer, s3Bucket string, maxRetries int, logger *slog.Logger) *CompensationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &CompensationWorker{
		runs:       runs,
		queue:      q,
		store:      store,
		s3Bucket:   s3Bucket,
		maxRetries: maxRetries,
		logger:     logger,
		backoff:    exponential,
	}
}

// Run consumes failed runs until ctx is cancelled, one at a time.
func (p *CompensationWorker) Run(ctx context.Context) {

	p.logger.Info("compensation worker has started, waiting for runs")

	for {
		if ctx.Err() != nil {
			p.logger.Info("compensation worker stopped")
			return
		}

		runIDStr, err := p.queue.ConsumeRun(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			p.logger.Error("worker.consume.error", "err", err)
			sleep(ctx, consumeErrorDelay)
			continue
		}

		runID, err := uuid.Parse(runIDStr)
		if err != nil {
			p.logger.Warn("worker.consume.invalid_id", "run_id", runIDStr)
			continue
		}

		if err := p.ProcessRun(ctx, runID); err != nil {
			p.logger.Error("worker.compensate.error", "run_id", runID.String(), "err", err)
		}
	}
}

// ProcessRun removes the object a failed run uploaded and marks the run compensated.
// Runs that succeeded, are still in flight or were already compensated are left alone.
func (p *CompensationWorker) ProcessRun(ctx context.Context, runID uuid.UUID) error {

	logger := p.logger.With("run_id", runID.String())

	var run *models.PipelineRun
	err := p.withRetry(ctx, logger, "fetch run", func() error {
		var err error
		run, err = p.runs.RunByID(ctx, runID)
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case run.Compensated:
		logger.Info("worker.compensate.skip", "reason", "already compensated")
		return nil
	case run.Stage != models.StageFailed:
		logger.Warn("worker.compensate.skip", "reason", "run did not fail", "stage", run.Stage.String())
		return nil
	}

	if run.ObjectKey != "" {
		err := p.withRetry(ctx, logger, "delete object", func() error {
			return p.store.Delete(ctx, p.s3Bucket, run.ObjectKey)
		})
		if err != nil {
			return err
		}
		logger.Info("worker.compensate.deleted", "key", run.ObjectKey)
	}

	return p.withRetry(ctx, logger, "mark compensated", func() error {
		return p.runs.MarkCompensated(ctx, runID)
	})
}

func (p *CompensationWorker) withRetry(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {

	var err error
	for i := 0; i < p.maxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryable(err) {
			return fmt.Errorf("%s: %w", op, err)
		}

		logger.Warn("worker.retry", "op", op, "attempt", i+1, "err", err)

		if i < p.maxRetries-1 && !sleep(ctx, p.backoff(i)) {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.maxRetries, err)
}

func isRetryable(err error) bool {
	return !errors.Is(err, apperrors.ErrPermanentFailure) &&
		!errors.Is(err, storage.ErrNotFound) &&
		!errors.Is(err, context.Canceled)
}

// exponential backoff: 1s, 2s, 4s, ...
func exponential(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
