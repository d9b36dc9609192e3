package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Dashboard DashboardConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Docstore  DocstoreConfig
	Billing   BillingConfig
	Crashes   CrashesConfig
	Sentry    SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DashboardConfig holds the shared-password gate configuration.
// The dashboard is single-tenant: one password, one signing secret
// for the session cookie minted after login.
type DashboardConfig struct {
	Password      string
	SessionSecret string
	SessionTTL    time.Duration
}

// RedisConfig holds Redis configuration (asynq broker + rate limiter)
type RedisConfig struct {
	URL      string
	Password string
	PoolSize int
}

// DocstoreConfig holds the document store query endpoint configuration
type DocstoreConfig struct {
	BaseURL         string
	ProjectID       string
	CredentialsJSON string
	EventCollection string
	Timeout         time.Duration
}

// BillingConfig holds the billing vendor API configuration
type BillingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CrashesConfig holds the crash-reporting vendor API configuration
type CrashesConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env file is optional for production (env vars are used)
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_read_timeout", 10*time.Second)
	viper.SetDefault("server_write_timeout", 30*time.Second)
	viper.SetDefault("server_shutdown_timeout", 30*time.Second)

	// Dashboard session defaults
	viper.SetDefault("dashboard_session_ttl", 24*time.Hour)

	// Redis defaults
	viper.SetDefault("redis_pool_size", 10)

	// Vendor endpoints
	viper.SetDefault("docstore_base_url", "https://firestore.googleapis.com/v1")
	viper.SetDefault("docstore_event_collection", "events")
	viper.SetDefault("docstore_timeout", 30*time.Second)
	viper.SetDefault("billing_base_url", "https://api.revenuecat.com")
	viper.SetDefault("billing_timeout", 30*time.Second)
	viper.SetDefault("crashes_timeout", 30*time.Second)
}

func validate(cfg *Config) error {
	if cfg.Dashboard.Password == "" {
		return fmt.Errorf("DASHBOARD_PASSWORD is required")
	}
	if cfg.Dashboard.SessionSecret == "" {
		return fmt.Errorf("DASHBOARD_SESSION_SECRET is required")
	}
	if len(cfg.Dashboard.SessionSecret) < 32 {
		return fmt.Errorf("DASHBOARD_SESSION_SECRET must be at least 32 characters")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if cfg.Docstore.ProjectID == "" {
		return fmt.Errorf("DOCSTORE_PROJECT_ID is required")
	}
	return nil
}
