package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/objectstore"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Output struct {
	RawText string `json:"raw_text"`
}

// Result mirrors the extraction contract: anything but StatusSuccess means no usable text.
type Result struct {
	Status  string `json:"status"`
	Output  Output `json:"output"`
	Details string `json:"details,omitempty"`
}

type Extractor interface {
	Extract(ctx context.Context, fileURL string, jsonSchema map[string]any) (*Result, error)
}

// Service pulls an uploaded resume back out of object storage and reads its text.
// Text layer parsing is tried first, the fallback (OCR through an LLM) only when it yields nothing.
type Service struct {
	store    objectstore.FileStorer
	bucket   string
	fallback llm.TextExtractor
	logger   *slog.Logger
}

func NewService(store objectstore.FileStorer, bucket string, fallback llm.TextExtractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bucket: bucket, fallback: fallback, logger: logger}
}

// Extract only fills raw_text; jsonSchema is accepted for contract parity and must request it.
func (s *Service) Extract(ctx context.Context, fileURL string, jsonSchema map[string]any) (*Result, error) {
	if !requestsRawText(jsonSchema) {
		return nil, fmt.Errorf("extraction schema must request raw_text")
	}

	key, err := objectstore.KeyFromURL(fileURL, s.bucket)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Download(ctx, s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}

	start := time.Now()
	text, parseErr := ParsePDF(data)
	if parseErr == nil && text != "" {
		s.logger.Info("extract.pdf.ok", "key", key, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
		return success(text), nil
	}

	if s.fallback == nil {
		return failure(parseErr), nil
	}

	s.logger.Warn("extract.pdf.empty", "key", key, "err", parseErr)

	start = time.Now()
	text, err = s.fallback.ExtractText(ctx, data)
	if err != nil {
		s.logger.Error("extract.fallback.error", "key", key, "err", err)
		return failure(err), nil
	}
	text = normalizeWhitespace(text)
	if text == "" {
		return failure(nil), nil
	}

	s.logger.Info("extract.fallback.ok", "key", key, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return success(text), nil
}

func success(text string) *Result {
	return &Result{Status: StatusSuccess, Output: Output{RawText: text}}
}

func failure(err error) *Result {
	r := &Result{Status: StatusError, Details: "no text found in document"}
	if err != nil {
		r.Details = err.Error()
	}
	return r
}

func requestsRawText(jsonSchema map[string]any) bool {
	props, ok := jsonSchema["properties"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = props["raw_text"]
	return ok
}
