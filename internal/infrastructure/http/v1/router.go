// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"einvoice/internal/domain/invoice"
	"einvoice/internal/infrastructure/http/v1/handlers"
	"einvoice/internal/infrastructure/http/v1/middleware"
	"einvoice/internal/infrastructure/storage/postgres"
	"einvoice/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection, used by health checks.
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// Issuer is the issuance orchestrator.
	Issuer *invoice.Issuer

	// ActionLog records mutating API calls when set.
	ActionLog *postgres.ActionLogStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()
	invoiceHandler := handlers.NewInvoiceHandler(baseHandler, cfg.Issuer)

	apiV1 := router.Group("/api/v1")
	if cfg.ActionLog != nil {
		apiV1.Use(middleware.ActionLog(cfg.ActionLog))
	}
	{
		invoices := apiV1.Group("/invoices")
		invoices.POST("/issue", invoiceHandler.Issue)
	}

	return router
}
