package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"resume-analyzer/internal/config"
	"resume-analyzer/internal/postgresdb"
	"resume-analyzer/internal/processor"
	"resume-analyzer/internal/s3"
	"resume-analyzer/internal/valkeydb"
)

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgresDB, err := postgresdb.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize postgresdb", "err", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

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

	worker := processor.NewCompensationWorker(
		postgresDB,
		valkeyClient,
		s3Store,
		cfg.S3.Bucket,
		cfg.CleanupRetries,
		logger,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, stopping workers...")
	cancel()
	<-done

	logger.Info("Worker shutdown complete")
}
