package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// DefaultSQLiteDSN keeps the SQLite store process-local.
const DefaultSQLiteDSN = "file:receipts?mode=memory&cache=shared"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Ingest    IngestConfig
	LogLevel  string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	MaxBodyBytes int64
}

// StoreConfig selects and tunes the receipt store.
type StoreConfig struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// RateLimitConfig configures the HTTP token bucket. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// IngestConfig configures the receipt file watcher and its worker pool.
type IngestConfig struct {
	WatchDir  string
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// LoadDotEnv loads a .env file when one exists. It reports whether a file was read.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreMemory))
	dsn := getEnv("DB_URL", "")
	if dsn == "" && driver == StoreSQLite {
		dsn = DefaultSQLiteDSN
	}

	return &Config{
		Server: ServerConfig{
			HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:     getEnvAllowEmpty("GRPC_ADDR", ":9090"),
			MaxBodyBytes: getEnvAsInt64("MAX_BODY_BYTES", 1<<20),
		},
		Store: StoreConfig{
			Driver:          driver,
			DSN:             dsn,
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat64("RATE_LIMIT_RPS", 50),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},
		Ingest: IngestConfig{
			WatchDir:  getEnv("INGEST_WATCH_DIR", ""),
			Workers:   getEnvAsInt("INGEST_WORKERS", 4),
			QueueSize: getEnvAsInt("INGEST_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("INGEST_TIMEOUT", 30*time.Second),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty treats an explicitly empty variable as a value.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Store.DSN == "" {
			return NewAppError(CodeConfig, "DB_URL is required for the postgres store", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown STORE_DRIVER %q", c.Store.Driver), ErrInvalidInput)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return NewAppError(CodeConfig, "MAX_BODY_BYTES must be positive", ErrInvalidInput)
	}
	if c.Ingest.WatchDir != "" && c.Ingest.Workers <= 0 {
		return NewAppError(CodeConfig, "INGEST_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
