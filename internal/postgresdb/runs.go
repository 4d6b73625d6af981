package postgresdb

import (
	"context"
	"errors"
	"fmt"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func (s *Store) CreateRun(ctx context.Context, run *models.PipelineRun) error {

	sql := `
		INSERT INTO pipeline_runs (id, filename, stage, started_at)
		VALUES ($1, $2, $3, $4)
		`

	_, err := s.Pool.Exec(ctx, sql, run.ID, run.Filename, run.Stage.String(), run.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert pipeline run %s: %w", run.ID, storage.ErrRunExists)
		}
		return fmt.Errorf("insert pipeline run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun writes the stage reached and the external ids obtained so far.
func (s *Store) UpdateRun(ctx context.Context, run *models.PipelineRun) error {

	sql := `
		UPDATE pipeline_runs
		SET stage = $2, file_url = $3, object_key = $4, record_id = $5, error_message = $6, finished_at = $7
		WHERE id = $1
		`

	tag, err := s.Pool.Exec(ctx, sql,
		run.ID,
		run.Stage.String(),
		run.FileURL,
		run.ObjectKey,
		run.RecordID,
		run.ErrorMessage,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update pipeline run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pipeline run %s: %w", run.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) RunByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {

	var (
		run   models.PipelineRun
		stage string
	)

	sql := `
		SELECT id, filename, stage, file_url, object_key, record_id, error_message, compensated, started_at, finished_at
		FROM pipeline_runs
		WHERE id = $1
		`

	err := s.Pool.QueryRow(ctx, sql, id).Scan(
		&run.ID,
		&run.Filename,
		&stage,
		&run.FileURL,
		&run.ObjectKey,
		&run.RecordID,
		&run.ErrorMessage,
		&run.Compensated,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pipeline run %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("retrieve pipeline run %s: %w", id, err)
	}
	run.Stage = models.ParseStage(stage)

	return &run, nil
}

func (s *Store) MarkCompensated(ctx context.Context, id uuid.UUID) error {

	tag, err := s.Pool.Exec(ctx, `UPDATE pipeline_runs SET compensated = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark pipeline run %s compensated: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pipeline run %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
