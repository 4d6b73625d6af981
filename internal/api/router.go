package api

import (
	"log/slog"
	"net/http"
	"time"
)

func NewRouter(h *APIHandler) http.Handler {

	mux := http.NewServeMux()

	mux.HandleFunc("POST /resumes", h.HandleUploadResume)
	mux.HandleFunc("GET /resumes", h.HandleListResumes)
	mux.HandleFunc("GET /resumes/stats", h.HandleStats)
	mux.HandleFunc("GET /resumes/export", h.HandleExport)
	mux.HandleFunc("GET /resumes/{id}", h.HandleViewResult)
	mux.HandleFunc("GET /runs/{runID}", h.HandleRunProgress)
	mux.HandleFunc("GET /health", h.HandleHealth)

	return loggingMiddleware(h.logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
