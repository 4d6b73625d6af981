package postgresdb

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Store, error) {
	if connString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.Pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const analysisColumns = `id, filename, file_url, analysis_status, analysis, created_date`

func (s *Store) Create(ctx context.Context, record *models.ResumeAnalysis) (*models.ResumeAnalysis, error) {

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate record id: %w", err)
	}

	analysisJSON, err := json.Marshal(record.Analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	stored := *record
	stored.ID = id

	sql := `
		INSERT INTO resume_analyses (id, filename, file_url, analysis_status, contact_name, contact_email, overall_rating, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_date
		`

	err = s.Pool.QueryRow(
		ctx,
		sql,
		id,
		record.Filename,
		record.FileURL,
		record.AnalysisStatus.String(),
		record.ContactInfo.Name,
		record.ContactInfo.Email,
		record.OverallRating,
		analysisJSON,
	).Scan(&stored.CreatedDate)

	if err != nil {
		return nil, fmt.Errorf("insert resume analysis: %w", err)
	}
	stored.CreatedDate = stored.CreatedDate.UTC()

	return &stored, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.ResumeAnalysis, error) {

	sql := `SELECT ` + analysisColumns + ` FROM resume_analyses WHERE id = $1`

	record, err := scanAnalysis(s.Pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resume analysis %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("retrieve resume analysis %s: %w", id, err)
	}
	return record, nil
}

func (s *Store) List(ctx context.Context, sortKey string) ([]models.ResumeAnalysis, error) {

	key, err := storage.ParseSortKey(sortKey)
	if err != nil {
		return nil, err
	}

	rows, err := s.Pool.Query(ctx, `SELECT `+analysisColumns+` FROM resume_analyses `+key.OrderBy())
	if err != nil {
		return nil, fmt.Errorf("list resume analyses: %w", err)
	}
	defer rows.Close()

	records := []models.ResumeAnalysis{}
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume analysis: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resume analyses: %w", err)
	}
	return records, nil
}

func scanAnalysis(row pgx.Row) (*models.ResumeAnalysis, error) {
	var (
		record       models.ResumeAnalysis
		statusString string
		analysisJSON []byte
		created      time.Time
	)

	if err := row.Scan(&record.ID, &record.Filename, &record.FileURL, &statusString, &analysisJSON, &created); err != nil {
		return nil, err
	}

	status, err := models.ParseAnalysisStatus(statusString)
	if err != nil {
		return nil, fmt.Errorf("database contains invalid analysis status: %w", err)
	}
	record.AnalysisStatus = status

	if err := json.Unmarshal(analysisJSON, &record.Analysis); err != nil {
		return nil, fmt.Errorf("decode stored analysis: %w", err)
	}
	record.CreatedDate = created.UTC()

	return &record, nil
}
