package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cargoledger/internal/auth"
	"cargoledger/internal/domain"
	"cargoledger/internal/handler"
	"cargoledger/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Fee      *handler.FeeHandler
	Invoice  *handler.InvoiceHandler
	Currency *handler.CurrencyHandler
	Rate     *handler.RateHandler
	Health   *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	verifier auth.TokenVerifier,
	h Handlers,
	allowedOrigins []string,
	log *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(verifier))

	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleWarehouse)

	v1.POST("/fees/compute", h.Fee.Compute)

	currencies := v1.Group("/currencies")
	currencies.GET("", h.Currency.List)
	currencies.GET("/convert", h.Currency.Convert)
	currencies.GET("/format", h.Currency.Format)

	rates := v1.Group("/rates")
	rates.GET("", h.Rate.Current)
	rates.PUT("", middleware.RequireRole(domain.RoleAdmin), h.Rate.Publish)

	// Customers may read their own invoices; every mutation is staff only.
	invoices := v1.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.POST("", staff, h.Invoice.Create)
	invoices.POST("/from-package", staff, h.Invoice.FromPackage)
	invoices.POST("/:id/line-items", staff, h.Invoice.AddLineItem)
	invoices.DELETE("/:id/line-items/:itemId", staff, h.Invoice.RemoveLineItem)
	invoices.PUT("/:id/discount", staff, h.Invoice.SetDiscount)
	invoices.POST("/:id/send", staff, h.Invoice.Send)
	invoices.POST("/:id/cancel", staff, h.Invoice.Cancel)
	invoices.POST("/:id/payments", staff, h.Invoice.ApplyPayment)

	return r
}
