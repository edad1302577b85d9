package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/activity"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/database"
	"github.com/stjoseph/assessment-gateway/internal/handler"
	"github.com/stjoseph/assessment-gateway/internal/ledger"
	"github.com/stjoseph/assessment-gateway/internal/logger"
	"github.com/stjoseph/assessment-gateway/internal/monitoring"
	"github.com/stjoseph/assessment-gateway/internal/repository"
	"github.com/stjoseph/assessment-gateway/internal/router"
	"github.com/stjoseph/assessment-gateway/internal/service"
	"github.com/stjoseph/assessment-gateway/internal/upstream"
	"github.com/stjoseph/assessment-gateway/internal/validator"
	"github.com/stjoseph/assessment-gateway/internal/worker"
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
		Msg("Starting Assessment Gateway")

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
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	completionLedger := ledger.NewRedisLedger(rdb)
	gradingClient := upstream.NewClient(cfg, log)

	authService := service.NewAuthService(cfg)
	assessmentService := service.NewAssessmentService(
		gradingClient, rdb, completionLedger, resultRepo, cfg.LobbyCacheTTL, log,
	)
	sessionService := service.NewSessionService(
		assessmentService, completionLedger, gradingClient, nil, log,
		activity.NewNotifier(rdb, log),
		worker.NewResultEnqueuer(rdb, log),
	)

	// ─── Initialize Metrics ────────────────────────────────────────────
	monitoring.Init(sessionService.ActiveCount)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Assessment: handler.NewAssessmentHandler(assessmentService, resultRepo, log),
		Session:    handler.NewSessionHandler(sessionService, log),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	activityWorker := worker.NewActivityWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(pool, rdb, log)

	go activityWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
