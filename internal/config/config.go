package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-trading-post/pkg/validator"

	"github.com/shopspring/decimal"
)

const (
	ServiceName    = "go-trading-post"
	ServiceVersion = "1.0.0"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver   string
	DBSource   string
	DBLogLevel string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	OtelEndpoint   string
	OtelAuthHeader string

	LowStockThreshold int
	ShutdownTimeout   time.Duration

	NewGoodMaterial string
	NewGoodValue    decimal.Decimal
	NewGoodWeight   float64
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getenv("ENVIRONMENT", "development"),
		Port:           getenv("PORT", "3000"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DBDriver:       getenv("DB_DRIVER", "postgres"),
		DBSource:       os.Getenv("DATABASE_URL"),
		DBLogLevel:     getenv("DB_LOG_LEVEL", "warn"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		KafkaTopic:     getenv("KAFKA_TOPIC", "trading-post.events"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	cfg.NewGoodMaterial = getenv("NEW_GOOD_MATERIAL", "Unknown")

	var err error
	if cfg.LowStockThreshold, err = strconv.Atoi(getenv("LOW_STOCK_THRESHOLD", "10")); err != nil {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD: %w", err)
	}

	timeout, err := time.ParseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = timeout

	if cfg.NewGoodValue, err = decimal.NewFromString(getenv("NEW_GOOD_VALUE", "0")); err != nil {
		return nil, fmt.Errorf("NEW_GOOD_VALUE: %w", err)
	}
	if cfg.NewGoodValue.IsNegative() || !validator.IsMoney(cfg.NewGoodValue) {
		return nil, fmt.Errorf("NEW_GOOD_VALUE must be a non-negative amount with at most two decimals")
	}
	if cfg.NewGoodWeight, err = strconv.ParseFloat(getenv("NEW_GOOD_WEIGHT", "1"), 64); err != nil {
		return nil, fmt.Errorf("NEW_GOOD_WEIGHT: %w", err)
	}

	if cfg.DBDriver == "sqlite" && cfg.DBSource == "" {
		cfg.DBSource = "trading-post.db"
	}

	return cfg, nil
}
