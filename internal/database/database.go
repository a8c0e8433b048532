package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardify-api/internal/config"
	"cardify-api/internal/models"
	"cardify-api/pkg/logging"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DB bundles the relational store and the optional Redis client. It is
// constructed once at startup and handed to every service and handler; there
// is no package-level instance.
type DB struct {
	gorm  *gorm.DB
	redis *redis.Client
}

// Open connects to the configured stores and migrates the schema.
func Open(cfg *config.Config) (*DB, error) {
	gdb, err := openGorm(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := &DB{gorm: gdb}

	if cfg.RedisURL != "" {
		rdb, err := openRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		db.redis = rdb
	} else {
		logging.Infof("REDIS_URL not set, event cache disabled")
	}

	if err := db.autoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// openGorm picks the driver from the DSN shape: postgres URLs in production,
// SQLite paths (or nothing at all) for development and tests.
func openGorm(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch {
	case dsn == "":
		logging.Infof("Database URL not set, using SQLite for development")
		gdb, err = gorm.Open(sqlite.Open("cardify-api.db"), gormCfg)
	case strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db"):
		gdb, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		gdb, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Infof("Database connected successfully")
	return gdb, nil
}

func openRedis(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Infof("Redis connected successfully")
	return client, nil
}

func (db *DB) autoMigrate() error {
	return db.gorm.AutoMigrate(
		&models.SellerProfile{},
		&models.Listing{},
		&models.UserAsset{},
		&models.UploadedImage{},
		&models.Transaction{},
		&models.AccessGrant{},
		&models.Payout{},
		&models.CreditLedgerEntry{},
		&models.AppEvent{},
	)
}

// Gorm exposes the underlying handle for queries the typed methods do not
// cover (tests, mostly).
func (db *DB) Gorm() *gorm.DB {
	return db.gorm
}

// Redis returns the Redis client; nil when the event cache is disabled.
func (db *DB) Redis() *redis.Client {
	return db.redis
}

// Close closes both connections.
func (db *DB) Close() error {
	if sqlDB, err := db.gorm.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logging.Errorf("Failed to close database: %v", err)
		}
	}

	if db.redis != nil {
		if err := db.redis.Close(); err != nil {
			logging.Errorf("Failed to close Redis: %v", err)
		}
	}

	return nil
}
