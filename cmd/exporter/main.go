// Package main is the entry point for the e-invoice export worker.
// It periodically drains unsent invoice records into XML drop files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"einvoice/internal/domain/export"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting einvoice exporter")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	tenantRepo := postgres.NewTenantRepo(txManager)
	invoiceRepo := postgres.NewInvoiceRepo(txManager)

	exporter := export.NewExporter(invoiceRepo, tenantRepo, export.Config{
		Dir:       getEnv("EXPORT_DIR", "./export"),
		Env:       getEnv("EXPORT_ENV", "stage"),
		Format:    export.Format(getEnv("EXPORT_FORMAT", string(export.FormatC0401))),
		BatchSize: getEnvInt("EXPORT_BATCH_SIZE", 100),
	})

	interval := getEnvDuration("EXPORT_INTERVAL", time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if n, err := exporter.Run(ctx); err != nil {
				log.Errorw("export run failed", "error", err, "exported", n)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down exporter...")
	cancel()
	<-done
	log.Info("exporter stopped")
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
