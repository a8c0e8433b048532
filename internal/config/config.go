package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// FulfillmentPolicy controls what happens to a listing when its purchase
// completes. There is no default: the two behaviors corrupt inventory when
// mixed, so the operator must pick one.
type FulfillmentPolicy string

const (
	// PolicyGrantAccess leaves the listing active so any number of buyers
	// can purchase read access to the same digital asset.
	PolicyGrantAccess FulfillmentPolicy = "grant_access"
	// PolicyTransferOwnership marks the listing sold, records the buyer and
	// moves ownership of the underlying asset to them.
	PolicyTransferOwnership FulfillmentPolicy = "transfer_ownership"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration (optional; empty disables the event cache)
	RedisURL string

	// Stripe configuration
	StripeSecretKey            string
	StripeWebhookSecret        string
	StripeConnectWebhookSecret string

	// Auth configuration
	JWTSecret string

	// Marketplace policy
	FulfillmentPolicy  FulfillmentPolicy
	PlatformFeePercent int
	PayoutDelayMinutes int

	// Blob storage configuration
	StorageURL        string
	StorageServiceKey string
	StorageBucket     string

	// Site configuration (onboarding redirect targets)
	SiteURL string
}

// Load collects configuration from the environment.
func Load() (*Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	cfg := &Config{
		Port:                       getEnv("PORT", "8080"),
		Mode:                       getEnv("GIN_MODE", "debug"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		RedisURL:                   getEnv("REDIS_URL", ""),
		StripeSecretKey:            getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:        getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeConnectWebhookSecret: getEnv("STRIPE_CONNECT_WEBHOOK_SECRET", ""),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		FulfillmentPolicy:          FulfillmentPolicy(getEnv("FULFILLMENT_POLICY", "")),
		PlatformFeePercent:         getEnvInt("PLATFORM_FEE_PERCENT", 5),
		PayoutDelayMinutes:         getEnvInt("PAYOUT_DELAY_MINUTES", 10),
		StorageURL:                 getEnv("STORAGE_URL", ""),
		StorageServiceKey:          getEnv("STORAGE_SERVICE_KEY", ""),
		StorageBucket:              getEnv("STORAGE_BUCKET", "custom-uploads"),
		SiteURL:                    getEnv("SITE_URL", "http://localhost:3000"),
	}

	switch cfg.FulfillmentPolicy {
	case PolicyGrantAccess, PolicyTransferOwnership:
	default:
		return nil, fmt.Errorf("FULFILLMENT_POLICY must be %q or %q, got %q",
			PolicyGrantAccess, PolicyTransferOwnership, cfg.FulfillmentPolicy)
	}

	return cfg, nil
}

// WebhookSecrets returns the signing secrets to try, in priority order:
// the platform tenant first, then the marketplace connect tenant.
func (c *Config) WebhookSecrets() []string {
	var secrets []string
	if c.StripeWebhookSecret != "" {
		secrets = append(secrets, c.StripeWebhookSecret)
	}
	if c.StripeConnectWebhookSecret != "" {
		secrets = append(secrets, c.StripeConnectWebhookSecret)
	}
	return secrets
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
