package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType               string // mysql, mariadb, postgres, sqlite, sqlite-purego, sqlserver
	DBHost               string
	DBPort               string
	DBDatabase           string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int
	DBAdminUser          string
	DBAdminPassword      string
	DBLogLevel           string

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string
	AuthDisabled  bool

	// Change feed configuration
	NATSURL      string
	NATSEmbedded bool

	// Sync layer tuning
	CacheTTL        time.Duration
	RefetchDebounce time.Duration
	LiveHeartbeat   time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables. A .env file named by
// ENV_FILE (default ".env") is read first when it exists; variables already
// set in the environment win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		DBType:               strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBDatabase:           getEnv("DB_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 5),
		DBAdminUser:          getEnv("DB_ADMIN_USER", ""),
		DBAdminPassword:      getEnv("DB_ADMIN_PASSWORD", ""),
		DBLogLevel:           getEnv("DB_LOG_LEVEL", "warn"),
		AuthzURL:             getEnv("AUTHZ_URL", ""),
		AuthzClientID:        getEnv("AUTHZ_CLIENT_ID", ""),
		AuthDisabled:         getEnvAsBool("AUTH_DISABLED", false),
		NATSURL:              getEnv("NATS_URL", ""),
		NATSEmbedded:         getEnvAsBool("NATS_EMBEDDED", false),
		CacheTTL:             getEnvAsDuration("CACHE_TTL", 30*time.Second),
		RefetchDebounce:      getEnvAsDuration("REFETCH_DEBOUNCE", 300*time.Millisecond),
		LiveHeartbeat:        getEnvAsDuration("LIVE_HEARTBEAT", 30*time.Second),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields for the configured database and auth mode.
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	switch cfg.DBType {
	case "sqlite", "sqlite-purego":
	case "mysql", "mariadb", "postgres", "postgresql", "sqlserver", "mssql":
		if cfg.DBAppUser == "" {
			return fmt.Errorf("DB_APP_USER is required")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", cfg.DBType)
	}
	if !cfg.AuthDisabled {
		if cfg.AuthzURL == "" {
			return fmt.Errorf("AUTHZ_URL is required")
		}
		if cfg.AuthzClientID == "" {
			return fmt.Errorf("AUTHZ_CLIENT_ID is required")
		}
	}
	if cfg.NATSURL != "" && cfg.NATSEmbedded {
		return fmt.Errorf("NATS_URL and NATS_EMBEDDED are mutually exclusive")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if cfg.RefetchDebounce <= 0 {
		return fmt.Errorf("REFETCH_DEBOUNCE must be positive")
	}
	return nil
}

// AdminUser returns the admin credentials, falling back to the app user.
func (cfg *Config) AdminUser() (string, string) {
	if cfg.DBAdminUser == "" {
		return cfg.DBAppUser, cfg.DBAppPassword
	}
	return cfg.DBAdminUser, cfg.DBAdminPassword
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") or plain milliseconds ("300").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
