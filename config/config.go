package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// Config holds the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Catalog     catalog.Config    `mapstructure:"catalog"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	APIKey          string        `mapstructure:"api_key"` // Shared key for /internal routes
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RateLimitConfig holds limits for the internal API
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// MaintenanceConfig controls background pruning of superseded observations
type MaintenanceConfig struct {
	PruneEnabled         bool          `mapstructure:"prune_enabled"`
	PruneInterval        time.Duration `mapstructure:"prune_interval"`
	ObservationRetention time.Duration `mapstructure:"observation_retention"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("CATALOG_SERVICE")
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}
	if cfg.Maintenance.PruneEnabled && cfg.Maintenance.PruneInterval <= 0 {
		return nil, fmt.Errorf("invalid maintenance config: prune_interval must be positive")
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found without overriding variables
// that are already set in the environment.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.api_key", "INTERNAL_API_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "OTEL_ENABLED")
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.environment", "ENVIRONMENT")

	// Catalog
	v.BindEnv("catalog.export_baseline_code", "CATALOG_EXPORT_BASELINE_CODE")
	v.BindEnv("catalog.cache_enabled", "CATALOG_CACHE_ENABLED")
	v.BindEnv("catalog.cache_ttl", "CATALOG_CACHE_TTL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "opentelemetry-collector:4317")
	v.SetDefault("telemetry.service_name", "catalog-service")
	v.SetDefault("telemetry.environment", "production")

	// Maintenance defaults
	v.SetDefault("maintenance.prune_enabled", false)
	v.SetDefault("maintenance.prune_interval", 6*time.Hour)
	v.SetDefault("maintenance.observation_retention", 365*24*time.Hour)

	// Catalog defaults
	defaults := catalog.Defaults()
	v.SetDefault("catalog.export_baseline_code", defaults.ExportBaselineCode)
	v.SetDefault("catalog.wholesale_export_code", defaults.WholesaleExportCode)
	v.SetDefault("catalog.weight_based_code", defaults.WeightBasedCode)
	v.SetDefault("catalog.industrial_code", defaults.IndustrialCode)
	v.SetDefault("catalog.matrix", defaults.Matrix)
	v.SetDefault("catalog.load_timeout", defaults.LoadTimeout)
	v.SetDefault("catalog.cache_enabled", defaults.CacheEnabled)
	v.SetDefault("catalog.cache_ttl", defaults.CacheTTL)
	v.SetDefault("catalog.cache_max_size", defaults.CacheMaxSize)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
