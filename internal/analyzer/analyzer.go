// Package analyzer runs a resume through upload, text extraction, LLM analysis and persistence.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "resume-analyzer/internal/errors"
	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/models"
	"resume-analyzer/internal/objectstore"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/schema"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
)

const objectPrefix = "resumes"

type ProgressReporter interface {
	Report(ctx context.Context, runID uuid.UUID, p models.Progress) error
}

// Options wires an Orchestrator. Runs, Cleanup and Progress are optional.
type Options struct {
	Store     objectstore.FileStorer
	Bucket    string
	Extractor extract.Extractor
	LLM       llm.Invoker
	Analyses  storage.AnalysisCreator
	Runs      storage.RunStore
	Cleanup   queue.RunQueuer
	Progress  ProgressReporter
	Logger    *slog.Logger
}

type Orchestrator struct {
	store     objectstore.FileStorer
	bucket    string
	extractor extract.Extractor
	llm       llm.Invoker
	analyses  storage.AnalysisCreator
	runs      storage.RunStore
	cleanup   queue.RunQueuer
	progress  ProgressReporter
	logger    *slog.Logger
	now       func() time.Time
}

func New(o Options) *Orchestrator {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     o.Store,
		bucket:    o.Bucket,
		extractor: o.Extractor,
		llm:       o.LLM,
		analyses:  o.Analyses,
		runs:      o.Runs,
		cleanup:   o.Cleanup,
		progress:  o.Progress,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pipeline invocation under a fresh run id.
func (o *Orchestrator) Run(ctx context.Context, file models.ResumeFile) (*models.ResumeAnalysis, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	return o.RunWithID(ctx, runID, file)
}

// RunWithID executes the pipeline once. Every collaborator is called at most once
// and the first failure ends the run with a *apperrors.PipelineError.
// A runID that already has a run record is refused with storage.ErrRunExists before any stage starts.
func (o *Orchestrator) RunWithID(ctx context.Context, runID uuid.UUID, file models.ResumeFile) (*models.ResumeAnalysis, error) {
	run := &models.PipelineRun{
		ID:        runID,
		Filename:  file.Name,
		Stage:     models.StageIdle,
		StartedAt: o.now(),
	}
	logger := o.logger.With("run_id", runID.String(), "filename", file.Name)
	start := time.Now()

	if err := o.begin(ctx, run, logger); err != nil {
		return nil, err
	}

	// 1. upload
	o.advance(ctx, run, logger)

	key, err := objectstore.NewKey(objectPrefix, file.Name)
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrUploadFailed, err, logger)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	fileURL, err := o.store.Upload(ctx, file.Body, o.bucket, key, contentType)
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrUploadFailed, err, logger)
	}
	run.FileURL, run.ObjectKey = fileURL, key

	// 2. extract
	o.advance(ctx, run, logger)

	extracted, err := o.extractor.Extract(ctx, fileURL, schema.Extraction())
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrExtractionFailed, err, logger)
	}
	if extracted == nil || extracted.Status != extract.StatusSuccess {
		if extracted != nil {
			logger.Warn("pipeline.extract.status", "status", extracted.Status, "details", extracted.Details)
		}
		return nil, o.fail(ctx, run, apperrors.ErrExtractionFailed, nil, logger)
	}

	// 3. analyze
	o.advance(ctx, run, logger)

	prompt, err := schema.BuildPrompt(extracted.Output.RawText)
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrAnalysisFailed, err, logger)
	}

	raw, err := o.llm.InvokeLLM(ctx, prompt, schema.Analysis())
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrAnalysisFailed, err, logger)
	}

	analysis, err := schema.Decode(raw, logger)
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrAnalysisFailed, fmt.Errorf("model returned an invalid analysis: %w", err), logger)
	}

	// 4. persist
	o.advance(ctx, run, logger)

	status, err := models.StatusPending.Advance(models.StatusCompleted)
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrPersistFailed, err, logger)
	}

	stored, err := o.analyses.Create(ctx, &models.ResumeAnalysis{
		Filename:       file.Name,
		FileURL:        fileURL,
		AnalysisStatus: status,
		Analysis:       *analysis,
	})
	if err != nil {
		return nil, o.fail(ctx, run, apperrors.ErrPersistFailed, err, logger)
	}
	if stored == nil {
		return nil, o.fail(ctx, run, apperrors.ErrPersistFailed, errors.New("store returned no record"), logger)
	}
	run.RecordID = &stored.ID

	// 5. done
	o.advance(ctx, run, logger)
	o.finish(ctx, run, logger)

	logger.Info("pipeline.done",
		"record_id", stored.ID.String(),
		"overall_rating", stored.OverallRating,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return stored, nil
}

// advance moves the run along its only forward edge and reports the new stage.
func (o *Orchestrator) advance(ctx context.Context, run *models.PipelineRun, logger *slog.Logger) {
	next, ok := run.Stage.Next()
	if !ok {
		return
	}
	run.Stage = next
	logger.Info("pipeline.stage", "stage", next.String(), "step", next.Step())
	o.report(ctx, run.ID, models.Progress{Stage: next, Step: next.Step(), UpdatedAt: o.now()}, logger)
	if next != models.StageUploading && !next.Terminal() {
		o.save(ctx, run, logger)
	}
}

func (o *Orchestrator) fail(ctx context.Context, run *models.PipelineRun, kind, cause error, logger *slog.Logger) error {
	failedAt := run.Stage
	pe := apperrors.NewPipelineError(failedAt, kind, cause)
	msg := apperrors.UserMessage(pe)

	logger.Error("pipeline.failed", "stage", failedAt.String(), "err", pe)

	finished := o.now()
	run.Stage = models.StageFailed
	run.ErrorMessage = &msg
	run.FinishedAt = &finished

	o.report(ctx, run.ID, models.Progress{
		Stage:     models.StageFailed,
		Step:      failedAt.Step(),
		FailedAt:  failedAt,
		Error:     msg,
		UpdatedAt: finished,
	}, logger)
	o.save(ctx, run, logger)

	// the upload stays in place; the cleanup worker removes it later
	if run.ObjectKey != "" && o.cleanup != nil {
		if err := o.cleanup.InsertRun(context.WithoutCancel(ctx), run.ID.String()); err != nil {
			logger.Error("pipeline.cleanup.enqueue", "err", err)
		}
	}

	return pe
}

// begin records the run. Only a taken id is fatal, any other store error is logged.
func (o *Orchestrator) begin(ctx context.Context, run *models.PipelineRun, logger *slog.Logger) error {
	if o.runs == nil {
		return nil
	}
	err := o.runs.CreateRun(ctx, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrRunExists):
		logger.Warn("pipeline.run.duplicate")
		return fmt.Errorf("run %s: %w", run.ID, storage.ErrRunExists)
	default:
		logger.Error("pipeline.run.create", "err", err)
		return nil
	}
}

func (o *Orchestrator) finish(ctx context.Context, run *models.PipelineRun, logger *slog.Logger) {
	finished := o.now()
	run.FinishedAt = &finished
	o.save(ctx, run, logger)
}

// save and report never fail the pipeline. They use a detached context so a
// cancelled request still leaves an accurate run record behind.
func (o *Orchestrator) save(ctx context.Context, run *models.PipelineRun, logger *slog.Logger) {
	if o.runs == nil {
		return
	}
	if err := o.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("pipeline.run.update", "err", err)
	}
}

func (o *Orchestrator) report(ctx context.Context, runID uuid.UUID, p models.Progress, logger *slog.Logger) {
	if o.progress == nil {
		return
	}
	if err := o.progress.Report(context.WithoutCancel(ctx), runID, p); err != nil {
		logger.Warn("pipeline.progress.report", "err", err)
	}
}
