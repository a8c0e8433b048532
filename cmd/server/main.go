package main

import (
	"log"
	"time"

	"cardify-api/internal/api"
	"cardify-api/internal/config"
	"cardify-api/internal/database"
	"cardify-api/internal/services"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Initialize database and Redis
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	stripeClient := services.NewStripeClient(cfg.StripeSecretKey)

	deps := &api.Deps{
		Cfg:      cfg,
		DB:       db,
		Verifier: services.NewSignatureVerifier(cfg.WebhookSecrets()),
		Cache:    services.NewEventCache(db.Redis()),
		Reconciler: services.NewReconciler(db, cfg.FulfillmentPolicy,
			time.Duration(cfg.PayoutDelayMinutes)*time.Minute),
		Credits:  services.NewCreditService(db),
		Accounts: services.NewAccountService(db, stripeClient, cfg.SiteURL),
		Payments: stripeClient,
	}
	// Leave Storage nil when unconfigured; handlers check before use.
	if cfg.StorageURL != "" {
		deps.Storage = services.NewStorageClient(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket)
	}

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, deps)

	// Start server
	logging.Infof("Starting server on port %s", cfg.Port)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
