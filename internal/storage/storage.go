package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-analyzer/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrRunExists      = errors.New("pipeline run already exists")
)

const DefaultSortKey = "-created_date"

type AnalysisCreator interface {
	// Create stamps the record with an id and created_date and returns the stored copy.
	Create(ctx context.Context, record *models.ResumeAnalysis) (*models.ResumeAnalysis, error)
}

type AnalysisReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ResumeAnalysis, error)
	List(ctx context.Context, sortKey string) ([]models.ResumeAnalysis, error)
}

type AnalysisStore interface {
	AnalysisCreator
	AnalysisReader
}

type RunStore interface {
	// CreateRun returns ErrRunExists when the id is already taken.
	CreateRun(ctx context.Context, run *models.PipelineRun) error
	UpdateRun(ctx context.Context, run *models.PipelineRun) error
	RunByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	MarkCompensated(ctx context.Context, id uuid.UUID) error
}

type SortKey struct {
	Column string
	Desc   bool
}

var sortColumns = map[string]string{
	"created_date":   "created_date",
	"overall_rating": "overall_rating",
	"filename":       "filename",
}

// ParseSortKey reads keys like "-created_date". An empty key means DefaultSortKey.
func ParseSortKey(key string) (SortKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultSortKey
	}

	desc := strings.HasPrefix(key, "-")
	col, ok := sortColumns[strings.TrimPrefix(key, "-")]
	if !ok {
		return SortKey{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}
	return SortKey{Column: col, Desc: desc}, nil
}

// OrderBy renders the key as a SQL ORDER BY clause. Column names only ever come from sortColumns.
func (k SortKey) OrderBy() string {
	dir := "ASC"
	if k.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", k.Column, dir, dir)
}
