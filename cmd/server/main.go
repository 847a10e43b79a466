// Package main is the entry point for the e-invoice issuance API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"einvoice/internal/domain/carrier"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/domain/numbering"
	v1 "einvoice/internal/infrastructure/http/v1"
	"einvoice/internal/infrastructure/storage/postgres"
	"einvoice/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting einvoice server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	tenantRepo := postgres.NewTenantRepo(txManager)
	carrierRepo := postgres.NewCarrierRepo(txManager)
	rangeRepo := postgres.NewNumberRangeRepo(txManager)
	invoiceRepo := postgres.NewInvoiceRepo(txManager)

	// --- Domain services ---
	binder := carrier.NewBinder(carrierRepo, txManager)
	allocator := numbering.NewAllocator(rangeRepo)
	issuer := invoice.NewIssuer(
		tenantRepo,
		binder,
		allocator,
		invoiceRepo,
		txManager,
		invoice.DefaultIssueDefaults(),
	)

	// --- Action log (optional) ---
	var actionLog *postgres.ActionLogStore
	if getEnv("ACTION_LOG_ENABLED", "true") == "true" {
		actionLog, err = postgres.NewActionLogStore(txManager)
		if err != nil {
			log.Fatalw("failed to initialize action log", "error", err)
		}
		defer actionLog.Close()
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:      pool,
		Logger:    log,
		Issuer:    issuer,
		ActionLog: actionLog,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
