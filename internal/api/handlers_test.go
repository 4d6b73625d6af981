package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resume-analyzer/internal/analyzer"
	apperrors "resume-analyzer/internal/errors"
	"resume-analyzer/internal/models"
	"resume-analyzer/internal/storage"
	"resume-analyzer/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	analyzer *mocks.MockAnalyzer
	records  *mocks.MockAnalysisStore
	progress *mocks.MockProgressReader
	db       *mocks.MockPinger
	cache    *mocks.MockPinger
	handler  *APIHandler
	router   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		analyzer: new(mocks.MockAnalyzer),
		records:  new(mocks.MockAnalysisStore),
		progress: new(mocks.MockProgressReader),
		db:       new(mocks.MockPinger),
		cache:    new(mocks.MockPinger),
	}
	f.handler = NewAPIHandler(f.analyzer, f.records, f.progress, map[string]Pinger{"postgres": f.db, "valkey": f.cache}, nil)
	f.handler.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	f.router = NewRouter(f.handler)
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

var pdfContent = []byte("%PDF-1.4\n%Mock PDF content for testing\n%%EOF")

func storedRecord(filename string, rating float64) models.ResumeAnalysis {
	return models.ResumeAnalysis{
		ID:             uuid.New(),
		Filename:       filename,
		FileURL:        "https://x/" + filename,
		AnalysisStatus: models.StatusCompleted,
		Analysis: models.Analysis{
			OverallRating:   rating,
			CategoryRatings: map[string]float64{"content": rating},
		},
		CreatedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleUploadResume_Success(t *testing.T) {
	f := newFixture()

	record := storedRecord("test-resume.pdf", 7.5)
	f.analyzer.On("RunWithID", mock.Anything, mock.Anything, mock.MatchedBy(func(file models.ResumeFile) bool {
		return file.Name == "test-resume.pdf" && file.Size == int64(len(pdfContent)) && file.ContentType == "application/pdf"
	})).Return(&record, nil)

	rr := f.do(uploadRequest(t, "test-resume.pdf", pdfContent, nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/resumes/"+record.ID.String(), rr.Header().Get("Location"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, record.ID.String(), got["id"])
	assert.Equal(t, "completed", got["analysis_status"])
	assert.Equal(t, 7.5, got["overall_rating"])
	f.analyzer.AssertExpectations(t)
}

func TestHandleUploadResume_UsesClientRunID(t *testing.T) {
	f := newFixture()
	runID := uuid.New()

	record := storedRecord("cv.pdf", 6)
	f.analyzer.On("RunWithID", mock.Anything, runID, mock.Anything).Return(&record, nil)

	rr := f.do(uploadRequest(t, "cv.pdf", pdfContent, map[string]string{"run_id": runID.String()}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	f.analyzer.AssertExpectations(t)
}

func TestHandleUploadResume_ReusedRunID(t *testing.T) {
	f := newFixture()
	runID := uuid.New()

	f.analyzer.On("RunWithID", mock.Anything, runID, mock.Anything).
		Return(nil, fmt.Errorf("run %s: %w", runID, storage.ErrRunExists))

	rr := f.do(uploadRequest(t, "cv.pdf", pdfContent, map[string]string{"run_id": runID.String()}))

	assert.Equal(t, http.StatusConflict, rr.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "run_id is already in use", got["error"])
}

func TestHandleUploadResume_PipelineError(t *testing.T) {
	f := newFixture()
	runID := uuid.New()

	pipelineErr := apperrors.NewPipelineError(models.StageExtracting, apperrors.ErrExtractionFailed, nil)
	f.analyzer.On("RunWithID", mock.Anything, runID, mock.Anything).Return(nil, pipelineErr)

	rr := f.do(uploadRequest(t, "cv.pdf", pdfContent, map[string]string{"run_id": runID.String()}))

	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var got pipelineErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "failed to extract text from resume", got.Error)
	assert.Equal(t, "extracting", got.Stage)
	assert.Equal(t, runID.String(), got.RunID)
}

func TestHandleUploadResume_Rejected(t *testing.T) {
	tooLarge := append([]byte("%PDF-1.4\n"), make([]byte, analyzer.MaxUploadBytes)...)

	tests := []struct {
		name     string
		filename string
		content  []byte
		want     int
	}{
		{name: "missing file", want: http.StatusBadRequest},
		{name: "not a pdf extension", filename: "resume.docx", content: pdfContent, want: http.StatusBadRequest},
		{name: "not pdf content", filename: "resume.pdf", content: []byte("hello, I am plain text"), want: http.StatusBadRequest},
		{name: "empty file", filename: "resume.pdf", content: []byte{}, want: http.StatusBadRequest},
		{name: "over 10 MB", filename: "resume.pdf", content: tooLarge, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			rr := f.do(uploadRequest(t, tt.filename, tt.content, nil))

			assert.Equal(t, tt.want, rr.Code)
			f.analyzer.AssertNotCalled(t, "RunWithID", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleListResumes(t *testing.T) {
	f := newFixture()

	a := storedRecord("a_resume.pdf", 9)
	b := storedRecord("b_cv.pdf", 6)
	f.records.On("List", mock.Anything, "-overall_rating").Return([]models.ResumeAnalysis{a, b}, nil)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/resumes?sort=-overall_rating&q=RESUME", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.ResumeAnalysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a_resume.pdf", got[0].Filename)
}

func TestHandleListResumes_InvalidSort(t *testing.T) {
	f := newFixture()
	f.records.On("List", mock.Anything, "colour").Return(nil, fmt.Errorf("%w: %q", storage.ErrInvalidSortKey, "colour"))

	rr := f.do(httptest.NewRequest(http.MethodGet, "/resumes?sort=colour", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleStats(t *testing.T) {
	f := newFixture()
	f.records.On("List", mock.Anything, "").Return([]models.ResumeAnalysis{
		storedRecord("a.pdf", 8),
		storedRecord("b.pdf", 7),
	}, nil)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/resumes/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":2,"completed":2,"average_rating":7.5,"this_month":2}`, rr.Body.String())
}

func TestHandleExport(t *testing.T) {
	f := newFixture()
	f.records.On("List", mock.Anything, "").Return([]models.ResumeAnalysis{storedRecord("a.pdf", 8)}, nil)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/resumes/export", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "resume-history.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestHandleViewResult(t *testing.T) {
	f := newFixture()

	record := storedRecord("a.pdf", 8)
	missing := uuid.New()
	f.records.On("Get", mock.Anything, record.ID).Return(&record, nil)
	f.records.On("Get", mock.Anything, missing).Return(nil, fmt.Errorf("resume analysis %s: %w", missing, storage.ErrNotFound))

	rr := f.do(httptest.NewRequest(http.MethodGet, "/resumes/"+record.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/resumes/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/resumes/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleRunProgress(t *testing.T) {
	f := newFixture()

	runID := uuid.New()
	unknown := uuid.New()
	f.progress.On("Progress", mock.Anything, runID).Return(&models.Progress{Stage: models.StageAnalyzing, Step: 3}, nil)
	f.progress.On("Progress", mock.Anything, unknown).Return(nil, storage.ErrNotFound)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "analyzing", got["stage"])
	assert.Equal(t, float64(3), got["step"])

	rr = f.do(httptest.NewRequest(http.MethodGet, "/runs/"+unknown.String(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleHealth(t *testing.T) {
	f := newFixture()
	f.db.On("Ping", mock.Anything).Return(nil)
	f.cache.On("Ping", mock.Anything).Return(nil).Once()
	f.cache.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	rr := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":"ok","valkey":"ok"}}`, rr.Body.String())

	rr = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","valkey":"unavailable"}}`, rr.Body.String())
}
