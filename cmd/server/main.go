package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/database"
	"github.com/paperflow/paperflow-backend/internal/handler"
	"github.com/paperflow/paperflow-backend/internal/logger"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/paperflow/paperflow-backend/internal/router"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/paperflow/paperflow-backend/internal/validator"
	"github.com/paperflow/paperflow-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PaperFlow Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	layoutRepo := repository.NewLayoutRepository(pool)
	bundleRepo := repository.NewBundleRepository(pool)
	pageRepo := repository.NewPageRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)
	collisionRepo := repository.NewCollisionRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	predictionRepo := repository.NewPredictionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	layoutService := service.NewLayoutService(layoutRepo, rdb, log)
	taskService := service.NewTaskService(taskRepo, paperRepo, predictionRepo, layoutService, log)
	userService := service.NewUserService(userRepo, authService, taskService, log)
	bundleService := service.NewBundleService(bundleRepo, pageRepo, collisionRepo, paperRepo, layoutService, rdb, log)
	assemblerService := service.NewAssemblerService(bundleRepo, pageRepo, paperRepo, collisionRepo, layoutService, bundleService, rdb, log)
	collisionService := service.NewCollisionService(collisionRepo, pageRepo, paperRepo, taskService, rdb, log)
	paperService := service.NewPaperService(paperRepo, taskRepo, log)
	predictionService := service.NewPredictionService(predictionRepo, paperRepo, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Bundle:     handler.NewBundleHandler(bundleService, assemblerService),
		Collision:  handler.NewCollisionHandler(collisionService),
		Paper:      handler.NewPaperHandler(paperService),
		Task:       handler.NewTaskHandler(taskService),
		Prediction: handler.NewPredictionHandler(predictionService),
		Admin:      handler.NewAdminHandler(layoutService, userService, taskService, paperRepo, cfg),
		System:     handler.NewSystemHandler(rdb, log),
		WS:         handler.NewWSHandler(rdb, bundleService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	qrWorker := worker.NewQRWorker(bundleService, rdb, log)
	evalWorker := worker.NewEvalWorker(taskService, rdb, log)
	predictionWorker := worker.NewPredictionWorker(predictionService, rdb, log)
	sweepWorker := worker.NewSweepWorker(taskService, cfg, log)

	go qrWorker.Start(workerCtx)
	go evalWorker.Start(workerCtx)
	go predictionWorker.Start(workerCtx)
	go sweepWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for in-flight jobs.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
