package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-analyzer/internal/analyzer"
	"resume-analyzer/internal/api"
	"resume-analyzer/internal/config"
	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/geministore"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/openrouter"
	"resume-analyzer/internal/postgresdb"
	"resume-analyzer/internal/s3"
	"resume-analyzer/internal/valkeydb"
)

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := postgresdb.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize postgresdb", "err", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	if err := postgresDB.Migrate(ctx); err != nil {
		logger.Error("Failed to run migrations", "err", err)
		os.Exit(1)
	}

	valkeyClient, err := valkeydb.New(ctx, cfg.Valkey.URL, cfg.Valkey.Password)
	if err != nil {
		logger.Error("Failed to initialize valkey", "err", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	s3Store, err := s3.NewFileStore(ctx, s3.S3Config{
		EndpointURL: cfg.S3.EndpointURL,
		Region:      cfg.S3.Region,
		AccessKey:   cfg.S3.AccessKey,
		SecretKey:   cfg.S3.SecretKey,
	})
	if err != nil {
		logger.Error("Could not create S3 filestore", "err", err)
		os.Exit(1)
	}
	logger.Info("S3 FileStore initialized", "bucket", cfg.S3.Bucket)

	invoker, ocr, err := newLLM(ctx, cfg)
	if err != nil {
		logger.Error("Could not create LLM client", "err", err)
		os.Exit(1)
	}

	orchestrator := analyzer.New(analyzer.Options{
		Store:     s3Store,
		Bucket:    cfg.S3.Bucket,
		Extractor: extract.NewService(s3Store, cfg.S3.Bucket, ocr, logger),
		LLM:       invoker,
		Analyses:  postgresDB,
		Runs:      postgresDB,
		Cleanup:   valkeyClient,
		Progress:  valkeyClient,
		Logger:    logger,
	})

	apiHandler := api.NewAPIHandler(orchestrator, postgresDB, valkeyClient, map[string]api.Pinger{
		"postgres": postgresDB,
		"valkey":   valkeyClient,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(apiHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API listening", "addr", srv.Addr, "llm_provider", cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}

	logger.Info("API shutdown complete")
}

// newLLM picks the analysis provider. The OCR fallback is Gemini when a key is available.
func newLLM(ctx context.Context, cfg config.Config) (llm.Invoker, llm.TextExtractor, error) {
	var gemini *geministore.GeminiClient
	if cfg.NeedsGemini() {
		g, err := geministore.New(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		gemini = g
	}

	var ocr llm.TextExtractor
	if gemini != nil && cfg.LLM.OCRFallback {
		ocr = gemini
	}

	if cfg.LLM.Provider == config.ProviderOpenRouter {
		return openrouter.New(
			cfg.LLM.OpenRouterAPIKey,
			cfg.LLM.OpenRouterBaseURL,
			cfg.LLM.OpenRouterModel,
			cfg.LLM.AppTitle,
			cfg.LLM.Referer,
		), ocr, nil
	}
	return gemini, ocr, nil
}
