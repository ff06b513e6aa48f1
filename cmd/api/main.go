package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josh-kwaku/payment-decider/api"
	"github.com/josh-kwaku/payment-decider/internal/config"
	"github.com/josh-kwaku/payment-decider/internal/decider"
	"github.com/josh-kwaku/payment-decider/internal/handler"
	"github.com/josh-kwaku/payment-decider/internal/logging"
	"github.com/josh-kwaku/payment-decider/internal/middleware"
	"github.com/josh-kwaku/payment-decider/internal/repository"
	"github.com/josh-kwaku/payment-decider/internal/service"
	"github.com/josh-kwaku/payment-decider/internal/service/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("payment-decider", cfg.LogLevel, cfg.AppEnv)

	decide, err := decider.ForMode(decider.Mode(cfg.DeciderMode))
	if err != nil {
		slog.Error("invalid decider mode", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, cfg.DBConnectTimeout)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := repository.NewPaymentEventRepository(db)
	statusRepo := repository.NewPaymentStatusRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	paymentSvc := payment.NewService(eventRepo, statusRepo, decide, cfg)
	projector := service.NewProjector(eventRepo, statusRepo, logger.With("component", "projector"), cfg.ProjectorInterval, cfg.ProjectorBatchSize)
	sweeper := service.NewIdempotencySweeper(idempotencyRepo, logger.With("component", "idempotency_sweeper"), cfg.IdempotencySweepEvery)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		projector.Start(ctx)
	}()
	go func() {
		defer workers.Done()
		sweeper.Start(ctx)
	}()

	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	healthHandler := handler.NewHealthHandler(db, statusRepo, cfg.DeciderMode)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/payments", paymentHandler.Create)
	apiMux.HandleFunc("GET /api/v1/payments", paymentHandler.List)
	apiMux.HandleFunc("GET /api/v1/payments/{id}", paymentHandler.Get)
	apiMux.HandleFunc("GET /api/v1/payments/{id}/events", paymentHandler.Events)
	apiMux.HandleFunc("POST /api/v1/payments/{id}/authorise", paymentHandler.Authorise)
	apiMux.HandleFunc("POST /api/v1/payments/{id}/capture", paymentHandler.Capture)
	apiMux.HandleFunc("POST /api/v1/payments/{id}/refund", paymentHandler.Refund)
	apiMux.HandleFunc("POST /api/v1/payments/{id}/cancel", paymentHandler.Cancel)

	protected := middleware.Auth(cfg.JWTSecret)(
		middleware.Logging(
			middleware.Idempotency(idempotencyRepo, cfg.IdempotencyTTL)(apiMux),
		),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs("/docs/openapi.yaml"))
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.Spec))
	mux.Handle("/api/v1/", protected)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestID(middleware.Recover(mux)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "decider_mode", cfg.DeciderMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	workers.Wait()
	slog.Info("server stopped")
}
