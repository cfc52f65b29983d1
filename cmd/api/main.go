package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfi-core/backoffice-ledger/internal/audit"
	"github.com/mfi-core/backoffice-ledger/internal/cleanup"
	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/config"
	"github.com/mfi-core/backoffice-ledger/internal/handler"
	"github.com/mfi-core/backoffice-ledger/internal/ledger"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
	"github.com/mfi-core/backoffice-ledger/internal/middleware"
	"github.com/mfi-core/backoffice-ledger/internal/repository"
	"github.com/mfi-core/backoffice-ledger/internal/statement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := repository.NewDB(pool)
	accountRepo := repository.NewAccountRepository(pool)
	journalRepo := repository.NewJournalRepository(pool)
	statementRepo := repository.NewStatementRepository(pool)
	taxRecordRepo := repository.NewTaxRecordRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	resolver := coa.NewResolver(accountRepo)
	sink := audit.NewSink(auditRepo)

	ledgerSvc := ledger.NewService(journalRepo, accountRepo, resolver, db, sink, cfg.DefaultBranch)
	statementSvc := statement.NewService(accountRepo, journalRepo, statementRepo, sink,
		cfg.DefaultBranch, time.Duration(cfg.StatementTimeoutS)*time.Second)
	validator := cleanup.NewValidator(journalRepo, taxRecordRepo)
	cleanupSvc := cleanup.NewService(journalRepo, journalRepo, ledgerSvc, statementRepo,
		validator, ledgerSvc, db, sink, cfg.DefaultBranch)

	healthHandler := handler.NewHealthHandler(pool)
	accountHandler := handler.NewAccountHandler(accountRepo)
	eventHandler := handler.NewEventHandler(ledgerSvc, journalRepo)
	statementHandler := handler.NewStatementHandler(statementSvc)
	cleanupHandler := handler.NewCleanupHandler(cleanupSvc, validator)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.Handle("GET /api/v1/accounts", authed(accountHandler.List))
	mux.Handle("POST /api/v1/accounts", authed(accountHandler.Create))
	mux.Handle("GET /api/v1/accounts/{code}", authed(accountHandler.GetByCode))

	mux.Handle("POST /api/v1/events/{type}", authed(eventHandler.Post))
	mux.Handle("GET /api/v1/entries/{id}", authed(eventHandler.Get))

	mux.Handle("POST /api/v1/statements/{type}", authed(statementHandler.Generate))
	mux.Handle("GET /api/v1/statements/{type}", authed(statementHandler.Get))

	mux.Handle("POST /api/v1/cleanup/{entityType}/{id}", authed(cleanupHandler.Cleanup))
	mux.Handle("POST /api/v1/cleanup/{entityType}/{id}/transition", authed(cleanupHandler.Transition))
	mux.Handle("GET /api/v1/cleanup/{entityType}/{id}/preview", authed(cleanupHandler.Preview))

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
