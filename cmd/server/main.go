package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labelstack/labeladmin/internal"
	"github.com/labelstack/labeladmin/internal/handler"
	"github.com/labelstack/labeladmin/internal/jobs"
	"github.com/labelstack/labeladmin/internal/metrics"
	"github.com/labelstack/labeladmin/internal/middleware"
	"github.com/labelstack/labeladmin/internal/repository"
	"github.com/labelstack/labeladmin/internal/service"
	"github.com/labelstack/labeladmin/internal/storage"
	"github.com/labelstack/labeladmin/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize services
	taskService := service.NewTaskService(repo, store, logger)
	imageService := service.NewExampleImageService(repo, store, service.NewImagingProcessor(), cfg.MaxUploadSize, logger)
	assignmentService := service.NewAssignmentService(repo, logger)

	// Caption autosave controller. Debounced edits flow through here; the
	// controller owns the timers and must be closed before the process exits
	// so pending edits are not silently dropped.
	captions, err := handler.NewCaptionController(imageService, cfg.AutosaveDelay, logger)
	if err != nil {
		return fmt.Errorf("autosave controller initialization failed: %w", err)
	}

	// Initialize background worker
	jobWorker, err := worker.New(db, repo, worker.Config{
		Concurrency:       cfg.WorkerConcurrency,
		PollInterval:      cfg.WorkerPollInterval,
		JobTimeout:        cfg.WorkerJobTimeout,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	jobWorker.Register(jobs.NewExportAssignmentsHandler(assignmentService, store, logger))

	if cfg.WorkerEnabled {
		jobWorker.Start(ctx)
		logger.Info("Worker started", "concurrency", cfg.WorkerConcurrency)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(repo, logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(rateLimiter, logger)

	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	// Uploads and exports can saturate storage and the job queue, so those
	// handlers additionally go through the per-IP rate limiter.
	requireUserLimited := middleware.Stack(authMw.WithUser, authMw.RequireUser, rateLimitMw.Limit)

	// Initialize handlers
	taskHandler := handler.NewTaskHandler(taskService, logger)
	imageHandler := handler.NewExampleImageHandler(imageService, captions, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, repo, store, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Local storage serves uploaded files directly; R2 hands out its own URLs
	if cfg.StorageProvider == storage.ProviderLocal {
		fileFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", fileFS))
	}

	taskHandler.RegisterRoutes(mux, requireUser)
	imageHandler.RegisterRoutes(mux, requireUserLimited)
	assignmentHandler.RegisterRoutes(mux, requireUserLimited)

	root := securityMw.Handler(metrics.Middleware(loggingMw.Handler(mux)))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// No more requests can arrive; cancel any pending caption timers before
	// the database goes away
	captions.Close()

	if cfg.WorkerEnabled {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
