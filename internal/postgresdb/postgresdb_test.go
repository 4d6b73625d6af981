package postgresdb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/postgresdb"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setUpTestDB(t *testing.T) *postgresdb.Store {

	t.Helper()

	connString := os.Getenv("DB_TEST_URL")

	if connString == "" {
		t.Skip("DB_TEST_URL not set, skipping integration test")
	}

	ctx := context.Background()

	db, err := postgresdb.New(ctx, connString)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, db.Migrate(ctx), "failed to migrate test database")

	t.Cleanup(func() {
		_, err := db.Pool.Exec(ctx, "TRUNCATE TABLE pipeline_runs, resume_analyses")
		if err != nil {
			t.Fatalf("Failed to clean up tables: %v", err)
		}

		db.Close()
	})
	return db
}

func newRecord(filename, name string, rating float64) *models.ResumeAnalysis {
	return &models.ResumeAnalysis{
		Filename:       filename,
		FileURL:        "https://x/" + filename,
		AnalysisStatus: models.StatusCompleted,
		Analysis: models.Analysis{
			ContactInfo:     models.ContactInfo{Name: name},
			OverallRating:   rating,
			CategoryRatings: map[string]float64{"content": rating},
			ImprovementSuggestions: []models.Suggestion{
				{Category: "Format", Suggestion: "Tighten layout", Priority: models.PriorityLow},
			},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	db := setUpTestDB(t)
	ctx := context.Background()

	in := newRecord("r1.pdf", "John Doe", 7.5)

	stored, err := db.Create(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.False(t, stored.CreatedDate.IsZero())
	assert.Equal(t, uuid.Nil, in.ID, "input record must not be mutated")

	got, err := db.Get(ctx, stored.ID)
	require.NoError(t, err)

	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "r1.pdf", got.Filename)
	assert.Equal(t, models.StatusCompleted, got.AnalysisStatus)
	assert.Equal(t, 7.5, got.OverallRating)
	assert.Equal(t, "John Doe", got.ContactInfo.Name)
	assert.Equal(t, models.PriorityLow, got.ImprovementSuggestions[0].Priority)
	assert.WithinDuration(t, stored.CreatedDate, got.CreatedDate, time.Millisecond)
}

func TestGetMissing(t *testing.T) {
	db := setUpTestDB(t)

	_, err := db.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRatingOutOfRangeIsRejected(t *testing.T) {
	db := setUpTestDB(t)

	_, err := db.Create(context.Background(), newRecord("bad.pdf", "", 11))
	assert.Error(t, err)
}

func TestListSorting(t *testing.T) {
	db := setUpTestDB(t)
	ctx := context.Background()

	for _, r := range []*models.ResumeAnalysis{
		newRecord("b.pdf", "B", 6),
		newRecord("a.pdf", "A", 9),
		newRecord("c.pdf", "C", 3),
	} {
		_, err := db.Create(ctx, r)
		require.NoError(t, err)
	}

	filenames := func(records []models.ResumeAnalysis) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.Filename)
		}
		return out
	}

	byName, err := db.List(ctx, "filename")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, filenames(byName))

	byRating, err := db.List(ctx, "-overall_rating")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, filenames(byRating))

	newest, err := db.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.pdf", "a.pdf", "b.pdf"}, filenames(newest))

	_, err = db.List(ctx, "contact_email")
	assert.ErrorIs(t, err, storage.ErrInvalidSortKey)
}

func TestPipelineRunLifecycle(t *testing.T) {
	db := setUpTestDB(t)
	ctx := context.Background()

	run := &models.PipelineRun{
		ID:        uuid.New(),
		Filename:  "r1.pdf",
		Stage:     models.StageUploading,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, db.CreateRun(ctx, run))

	msg := "failed to extract text from resume"
	finished := time.Now().UTC()
	run.Stage = models.StageFailed
	run.FileURL = "https://x/r1.pdf"
	run.ObjectKey = "resumes/r1.pdf"
	run.ErrorMessage = &msg
	run.FinishedAt = &finished
	require.NoError(t, db.UpdateRun(ctx, run))

	require.NoError(t, db.MarkCompensated(ctx, run.ID))

	got, err := db.RunByID(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StageFailed, got.Stage)
	assert.Equal(t, "resumes/r1.pdf", got.ObjectKey)
	assert.Nil(t, got.RecordID)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)
	assert.True(t, got.Compensated)

	assert.ErrorIs(t, db.MarkCompensated(ctx, uuid.New()), storage.ErrNotFound)
}

func TestCreateRunDuplicateID(t *testing.T) {
	db := setUpTestDB(t)
	ctx := context.Background()

	run := &models.PipelineRun{
		ID:        uuid.New(),
		Filename:  "r1.pdf",
		Stage:     models.StageIdle,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, db.CreateRun(ctx, run))

	again := *run
	again.Filename = "r2.pdf"
	assert.ErrorIs(t, db.CreateRun(ctx, &again), storage.ErrRunExists)

	got, err := db.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1.pdf", got.Filename)
}
