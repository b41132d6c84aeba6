package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tranqh/formintake/internal/config"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/queue"
	"github.com/tranqh/formintake/internal/repository"
	"github.com/tranqh/formintake/internal/service"
	"github.com/tranqh/formintake/internal/storage"
	"github.com/tranqh/formintake/internal/tasks"
)

// Standalone worker pool for the redis queue mode. Shares the record store
// and blob store with the API process; only the HTTP surface is absent.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "formintake-worker",
		Environment: cfg.Log.Environment,
		LogFile:     cfg.Log.File,
		LogFileOnly: cfg.Log.FileOnly,
	})
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}

	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize object storage")
	}

	backend, err := queue.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Queue.Retention)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to redis")
	}
	defer backend.Close()

	jobQueue := queue.New(backend, cfg.Queue.Workers, appLog)

	imageRepo := repository.NewImageRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)

	imageService := service.NewImageService(imageRepo, extractionRepo, objectStorage, jobQueue, service.UploadLimits{
		TempDir:           cfg.Upload.TempDir,
		MaxFileSize:       cfg.Upload.MaxFileSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})
	extractorService := service.NewExtractionService(&service.ExtractionConfig{
		Model:     cfg.Extractor.Model,
		APIKey:    cfg.Extractor.APIKey,
		BaseURL:   cfg.Extractor.BaseURL,
		Timeout:   cfg.Extractor.Timeout,
		MaxTokens: cfg.Extractor.MaxTokens,
	})

	uploadTask := tasks.NewUploadTask(imageService)
	extractTask := tasks.NewExtractTask(imageRepo, extractionRepo, extractorService, cfg.Upload.TempDir)
	tasks.Register(jobQueue, uploadTask, extractTask)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.WithField("workers", cfg.Queue.Workers).Info("Starting worker pool")
	jobQueue.Start(ctx)

	<-ctx.Done()
	appLog.Info("Shutting down")
	jobQueue.Wait()
	appLog.Info("Worker stopped")
}
