package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends accepted by LEDGER_STORE.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreMongo  = "mongo"
	StorePgSQL  = "pgsql"
)

// Config holds application configuration.
type Config struct {
	Store         string
	BoltPath      string
	DatabaseURL   string
	EnableDBCheck bool

	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool // use multi-document transactions (replica set required)

	RedisAddr            string
	IntegrityKey         string
	ReconcileConcurrency int

	LogFormat string
	LogLevel  string

	// Book defaults
	MaxAccountPath int
	Precision      int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("LEDGER_STORE", StoreBolt)
	viper.SetDefault("BOLT_PATH", "data/ledger.db")
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "medici")
	viper.SetDefault("MONGO_TRANSACTIONS", false)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("INTEGRITY_KEY", "")
	viper.SetDefault("RECONCILE_CONCURRENCY", 5)
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("BOOK_MAX_ACCOUNT_PATH", 3)
	viper.SetDefault("BOOK_PRECISION", 8)

	// Environment variables override defaults and .env values.
	viper.AutomaticEnv()

	cfg := &Config{
		Store:                strings.ToLower(strings.TrimSpace(viper.GetString("LEDGER_STORE"))),
		BoltPath:             viper.GetString("BOLT_PATH"),
		DatabaseURL:          viper.GetString("PGSQL_URL"),
		EnableDBCheck:        viper.GetBool("ENABLE_DB_CHECK"),
		MongoURI:             viper.GetString("MONGO_URI"),
		MongoDatabase:        viper.GetString("MONGO_DATABASE"),
		MongoTransactions:    viper.GetBool("MONGO_TRANSACTIONS"),
		RedisAddr:            viper.GetString("REDIS_ADDR"),
		IntegrityKey:         viper.GetString("INTEGRITY_KEY"),
		ReconcileConcurrency: viper.GetInt("RECONCILE_CONCURRENCY"),
		LogFormat:            viper.GetString("LOG_FORMAT"),
		LogLevel:             viper.GetString("LOG_LEVEL"),
		MaxAccountPath:       viper.GetInt("BOOK_MAX_ACCOUNT_PATH"),
		Precision:            viper.GetInt("BOOK_PRECISION"),
	}

	switch cfg.Store {
	case StoreMemory:
		slog.Warn("LEDGER_STORE is memory. Nothing will survive the process.")
	case StoreBolt:
		if cfg.BoltPath == "" {
			return nil, fmt.Errorf("%w: BOLT_PATH is required for the bolt store", apperrors.ErrConfiguration)
		}
	case StoreMongo:
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			return nil, fmt.Errorf("%w: MONGO_URI and MONGO_DATABASE are required for the mongo store", apperrors.ErrConfiguration)
		}
	case StorePgSQL, "postgres":
		cfg.Store = StorePgSQL
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: PGSQL_URL is required for the pgsql store", apperrors.ErrConfiguration)
		}
	default:
		return nil, fmt.Errorf("%w: unknown LEDGER_STORE %q", apperrors.ErrConfiguration, cfg.Store)
	}

	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set. Integrity warnings will only be logged.")
	}
	if cfg.ReconcileConcurrency <= 0 {
		slog.Warn("Invalid RECONCILE_CONCURRENCY. Defaulting to 5.", slog.Int("value", cfg.ReconcileConcurrency))
		cfg.ReconcileConcurrency = 5
	}

	return cfg, nil
}
