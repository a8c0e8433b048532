package api

import (
	"cardify-api/internal/config"
	"cardify-api/internal/database"
	"cardify-api/internal/middleware"
	"cardify-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps carries every dependency the handlers need. Constructed once at
// startup and threaded through explicitly; handlers never reach for package
// globals.
type Deps struct {
	Cfg        *config.Config
	DB         *database.DB
	Verifier   *services.SignatureVerifier
	Cache      *services.EventCache
	Reconciler *services.Reconciler
	Credits    *services.CreditService
	Accounts   *services.AccountService
	Payments   services.PaymentAPI
	Storage    services.ObjectStore
}

// SetupRoutes registers all routes.
func SetupRoutes(r *gin.Engine, d *Deps) {
	auth := middleware.AuthRequired(d.Cfg.JWTSecret)

	api := r.Group("/api")
	{
		// Provider webhooks (no auth; the signature is the authentication)
		api.POST("/webhooks/stripe", d.StripeWebhook)

		// Payment surface
		payments := api.Group("/payments")
		{
			payments.POST("/intent", auth, d.CreatePaymentIntent)
			payments.GET("/intent/:id", d.GetPaymentIntent)
		}

		// Seller onboarding
		connect := api.Group("/connect")
		{
			connect.POST("/onboard", auth, d.Onboard)
			connect.GET("/status", auth, d.ConnectStatus)
			connect.GET("/callback", auth, d.ConnectCallback)
			connect.POST("/refresh", d.RefreshAccountStatus)
		}

		// Usage/analytics ingestion
		api.POST("/usage", d.IngestUsage)

		// Asset management
		api.POST("/assets/delete", auth, d.DeleteAsset)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "cardify-api",
		})
	})
}
