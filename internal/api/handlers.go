package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"resume-analyzer/internal/analyzer"
	apperrors "resume-analyzer/internal/errors"
	"resume-analyzer/internal/export"
	"resume-analyzer/internal/history"
	"resume-analyzer/internal/models"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// room for the multipart envelope around a maximum size resume
	maxRequestBytes = analyzer.MaxUploadBytes + 1<<20
)

type Analyzer interface {
	RunWithID(ctx context.Context, runID uuid.UUID, file models.ResumeFile) (*models.ResumeAnalysis, error)
}

type ProgressReader interface {
	Progress(ctx context.Context, runID uuid.UUID) (*models.Progress, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	analyzer Analyzer
	records  storage.AnalysisReader
	progress ProgressReader
	checks   map[string]Pinger
	logger   *slog.Logger
	now      func() time.Time
}

func NewAPIHandler(a Analyzer, records storage.AnalysisReader, progress ProgressReader, checks map[string]Pinger, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		analyzer: a,
		records:  records,
		progress: progress,
		checks:   checks,
		logger:   logger,
		now:      time.Now,
	}
}

type pipelineErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage"`
	RunID string `json:"run_id"`
}

// HandleUploadResume validates the upload and runs it through the pipeline in the request.
// An optional run_id form field lets clients poll GET /runs/{runID} while the request is in flight.
func (h *APIHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	file, fileHeader, err := r.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, analyzer.ErrFileTooLarge.Error())
			return
		}
		h.respondError(w, http.StatusBadRequest, "An error occurred upon retrieving the file.")
		return
	}
	defer file.Close()

	head := make([]byte, analyzer.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "An error occurred upon retrieving the file.")
		return
	}

	if err := analyzer.ValidateUpload(fileHeader.Filename, fileHeader.Size, head[:n]); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, analyzer.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.respondError(w, status, err.Error())
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.respondError(w, http.StatusInternalServerError, apperrors.GenericMessage)
		return
	}

	runID, err := uuid.Parse(r.FormValue("run_id"))
	if err != nil {
		runID, err = uuid.NewV7()
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, apperrors.GenericMessage)
			return
		}
	}

	record, err := h.analyzer.RunWithID(r.Context(), runID, models.ResumeFile{
		Name:        filepath.Base(fileHeader.Filename),
		Size:        fileHeader.Size,
		ContentType: "application/pdf",
		Body:        file,
	})
	if errors.Is(err, storage.ErrRunExists) {
		h.respondError(w, http.StatusConflict, "run_id is already in use")
		return
	}
	if err != nil {
		h.respondJSON(w, http.StatusBadGateway, pipelineErrorResponse{
			Error: apperrors.UserMessage(err),
			Stage: apperrors.StageOf(err).String(),
			RunID: runID.String(),
		})
		return
	}

	w.Header().Set("Location", "/resumes/"+record.ID.String())
	h.respondJSON(w, http.StatusCreated, record)
}

// HandleListResumes returns stored analyses, sorted by ?sort= and narrowed by ?q=.
func (h *APIHandler) HandleListResumes(w http.ResponseWriter, r *http.Request) {

	records, ok := h.list(w, r)
	if !ok {
		return
	}

	h.respondJSON(w, http.StatusOK, history.Filter(records, r.URL.Query().Get("q")))
}

func (h *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {

	records, ok := h.list(w, r)
	if !ok {
		return
	}

	h.respondJSON(w, http.StatusOK, history.Summarize(records, h.now()))
}

func (h *APIHandler) HandleExport(w http.ResponseWriter, r *http.Request) {

	records, ok := h.list(w, r)
	if !ok {
		return
	}
	records = history.Filter(records, r.URL.Query().Get("q"))

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, records); err != nil {
		h.logger.Error("export.xlsx.error", "err", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="resume-history.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("export.xlsx.write", "err", err)
	}
}

func (h *APIHandler) HandleViewResult(w http.ResponseWriter, r *http.Request) {

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid resume id format")
		return
	}

	record, err := h.records.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Resume analysis not found")
			return
		}
		h.logger.Error("resume.get.error", "id", id.String(), "err", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load resume analysis")
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

func (h *APIHandler) HandleRunProgress(w http.ResponseWriter, r *http.Request) {

	runID, err := uuid.Parse(r.PathValue("runID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid run id format")
		return
	}

	p, err := h.progress.Progress(r.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Error("run.progress.error", "run_id", runID.String(), "err", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load run progress")
		return
	}

	h.respondJSON(w, http.StatusOK, p)
}

func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.Ping(r.Context()); err != nil {
			h.logger.Warn("health.check.failed", "dependency", name, "err", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	h.respondJSON(w, status, map[string]any{"status": overall, "checks": results})
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) ([]models.ResumeAnalysis, bool) {

	records, err := h.records.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		if errors.Is(err, storage.ErrInvalidSortKey) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		h.logger.Error("resume.list.error", "err", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load resume history")
		return nil, false
	}
	return records, true
}

func (h *APIHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "err", err)
	}
}

func (h *APIHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
