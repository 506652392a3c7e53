package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	StorageDriver  string // "pgsql" or "memory"
	DatabaseURL    string
	DBMaxConns     int32
	MigrationsPath string
	Port           string
	IsProduction   bool
	LogLevel       string
	JWTSecret      string

	// Optional Redis; when empty, in-process cache, locks and rate limit store are used.
	RedisURL        string
	BalanceCacheTTL time.Duration // zero disables the balance cache

	// KhataAdjustmentCeiling bounds current balance + manual adjustment.
	// nil disables the check.
	KhataAdjustmentCeiling *decimal.Decimal

	CompensationTimeout time.Duration
	RateLimit           string // ulule/limiter formatted rate, e.g. "100-M"
	CORSAllowedOrigins  []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("STORAGE_DRIVER", "pgsql")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("BALANCE_CACHE_TTL", "0s")
	v.SetDefault("KHATA_ADJUSTMENT_CEILING", "1")
	v.SetDefault("COMPENSATION_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = "pgsql"
	}

	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" && cfg.StorageDriver == "pgsql" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = v.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = v.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.DBMaxConns = v.GetInt32("DB_MAX_CONNS")
	cfg.MigrationsPath = v.GetString("MIGRATIONS_PATH")
	cfg.IsProduction = v.GetBool("IS_PRODUCTION")
	cfg.LogLevel = strings.ToLower(v.GetString("LOG_LEVEL"))
	cfg.RedisURL = v.GetString("REDIS_URL")
	cfg.RateLimit = v.GetString("RATE_LIMIT")

	cfg.BalanceCacheTTL = parseDuration(v.GetString("BALANCE_CACHE_TTL"), 0, "BALANCE_CACHE_TTL")
	cfg.CompensationTimeout = parseDuration(v.GetString("COMPENSATION_TIMEOUT"), 10*time.Second, "COMPENSATION_TIMEOUT")

	ceilingStr := strings.TrimSpace(v.GetString("KHATA_ADJUSTMENT_CEILING"))
	if ceilingStr != "" {
		ceiling, err := decimal.NewFromString(ceilingStr)
		if err != nil {
			log.Printf("Warning: Invalid value for KHATA_ADJUSTMENT_CEILING ('%s'). Disabling the ceiling check.\n", ceilingStr)
		} else {
			cfg.KhataAdjustmentCeiling = &ceiling
		}
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}
