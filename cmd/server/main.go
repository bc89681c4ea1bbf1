package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/config"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/db"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/events"
	httpHandlers "github.com/0001Moksh/moto-service-hub-sub000/internal/http/handlers"
	httpRouter "github.com/0001Moksh/moto-service-hub-sub000/internal/http/router"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/logger"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository/common"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/service"
)

func main() {
	// Context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Database connection and migrations.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to the database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Event bus with the audit subscriber; notification dispatchers
	// subscribe to the same topics.
	bus := events.NewBus(logger.Log)
	defer bus.Close()
	if err := events.StartAuditLogger(ctx, bus, logger.Log); err != nil {
		log.Fatalf("main: failed to start audit subscriber: %v", err)
	}

	// Repositories.
	txManager := common.NewTxManager(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	workerRepo := repository.NewWorkerRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	reassignmentRepo := repository.NewReassignmentRepository(dbConn)

	// Services.
	matchingService := service.NewMatchingService(workerRepo)
	ledgerService := service.NewLedgerService(ledgerRepo)
	bookingService := service.NewBookingService(bookingRepo, ledgerService, ledgerRepo, matchingService, txManager, bus)
	bookingService.SetCandidateLimit(cfg.MatchCandidateLimit)
	reassignmentService := service.NewReassignmentService(bookingRepo, workerRepo, reassignmentRepo, matchingService, txManager, bus)
	reassignmentService.SetCandidateLimit(cfg.MatchCandidateLimit)

	// HTTP handlers.
	bookingHandler := httpHandlers.NewBookingHandler(bookingService, reassignmentService)
	workerHandler := httpHandlers.NewWorkerHandler(reassignmentService)
	adminHandler := httpHandlers.NewAdminHandler(reassignmentService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, bookingHandler, workerHandler, adminHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Stop the server when the signal arrives.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: error closing database: %v", err)
	}
}
