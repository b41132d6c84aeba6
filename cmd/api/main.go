package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tranqh/formintake/internal/api"
	"github.com/tranqh/formintake/internal/api/handler"
	"github.com/tranqh/formintake/internal/config"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/queue"
	"github.com/tranqh/formintake/internal/repository"
	"github.com/tranqh/formintake/internal/service"
	"github.com/tranqh/formintake/internal/storage"
	"github.com/tranqh/formintake/internal/tasks"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "formintake-api",
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

	// Queue backend: redis for shared workers, inline for a single binary
	// running its own pool.
	var backend queue.Backend
	var redisBackend *queue.RedisBackend
	switch cfg.Queue.Mode {
	case "inline":
		backend = queue.NewMemoryBackend(cfg.Queue.Retention)
	default:
		redisBackend, err = queue.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Queue.Retention)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to redis")
		}
		backend = redisBackend
	}
	defer backend.Close()

	jobQueue := queue.New(backend, cfg.Queue.Workers, appLog)

	imageRepo := repository.NewImageRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	userRepo := repository.NewUserRepository(db)

	imageService := service.NewImageService(imageRepo, extractionRepo, objectStorage, jobQueue, service.UploadLimits{
		TempDir:           cfg.Upload.TempDir,
		MaxFileSize:       cfg.Upload.MaxFileSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})
	folderService := service.NewFolderService(folderRepo, imageRepo, extractionRepo, objectStorage)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, appLog)
	activityService := service.NewActivityService(activityRepo, cfg.Activity.Enabled, cfg.Activity.RetentionDays, appLog)
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

	if err := authService.SeedAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		appLog.WithError(err).Fatal("Failed to seed admin account")
	}
	activityService.RunRetention(ctx)

	// Inline mode runs the worker pool inside the API process.
	if cfg.Queue.Mode == "inline" {
		jobQueue.Start(ctx)
	}

	checks := map[string]handler.CheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"storage": func(ctx context.Context) error {
			_, err := objectStorage.Exists(ctx, "healthcheck-probe")
			return err
		},
	}
	if redisBackend != nil {
		checks["redis"] = redisBackend.Ping
	}

	router := api.SetupRouter(&cfg.Server, api.Handlers{
		Health:   handler.NewHealthHandler(checks),
		Auth:     handler.NewAuthHandler(authService),
		Image:    handler.NewImageHandler(imageService, cfg.Upload.TempDir),
		Folder:   handler.NewFolderHandler(folderService),
		Extract:  handler.NewExtractHandler(imageService, extractTask),
		Task:     handler.NewTaskHandler(jobQueue),
		Activity: handler.NewActivityHandler(activityService),
	}, authService, activityService)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLog.WithField("port", cfg.Server.Port).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Forced shutdown")
	}
	if cfg.Queue.Mode == "inline" {
		jobQueue.Wait()
	}
	appLog.Info("Server stopped")
}
