package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Merge     MergeConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// StorageConfig holds generation storage settings
type StorageConfig struct {
	// Root directory under which per-project generation trees live
	Root string

	// LegacyReads enables fallback reads of the flat pre-hierarchical
	// layout for generations created before this engine existed
	LegacyReads bool
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// MergeConfig holds iteration-merge validation settings
type MergeConfig struct {
	// WarnExpression is a CEL expression over parent_count, new_count and
	// merged_count. When it evaluates to true a data-loss warning is
	// emitted. The generation still completes; the threshold is a
	// heuristic, not an invariant.
	WarnExpression string
}

// EventsConfig holds progress-event emitter settings
type EventsConfig struct {
	RedisHost     string
	RedisPort     int
	RedisPassword string
	ChannelPrefix string
}

// RateLimitConfig throttles generation creation and saves. Disabled
// automatically when Redis is unreachable.
type RateLimitConfig struct {
	Enabled             bool
	GlobalPerMinute     int64
	PerProjectPerMinute int64
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// DefaultWarnExpression flags saves whose persisted set shrank below the
// parent or covers less than 80% of it. Both clauses test merged_count:
// the overlay merge never shrinks the set, so a sparse generator output
// routed through the merge stays quiet, while a caller that bypassed the
// merge and persisted the raw output gets flagged.
const DefaultWarnExpression = "merged_count < parent_count || double(merged_count) < 0.8 * double(parent_count)"

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "genstore"),
			User:        getEnv("POSTGRES_USER", "genstore"),
			Password:    getEnv("POSTGRES_PASSWORD", "genstore"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Storage: StorageConfig{
			Root:        getEnv("STORAGE_ROOT", "./data"),
			LegacyReads: getEnvBool("STORAGE_LEGACY_READS", true),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 15*time.Minute),
		},
		Merge: MergeConfig{
			WarnExpression: getEnv("MERGE_WARN_EXPRESSION", DefaultWarnExpression),
		},
		Events: EventsConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnvInt("REDIS_PORT", 6379),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			ChannelPrefix: getEnv("EVENTS_CHANNEL_PREFIX", "genstore:events"),
		},
		RateLimit: RateLimitConfig{
			Enabled:             getEnvBool("RATE_LIMIT_ENABLED", true),
			GlobalPerMinute:     int64(getEnvInt("RATE_LIMIT_GLOBAL_PER_MINUTE", 600)),
			PerProjectPerMinute: int64(getEnvInt("RATE_LIMIT_PROJECT_PER_MINUTE", 30)),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", true),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}

	if c.Merge.WarnExpression == "" {
		return fmt.Errorf("merge warn expression is required")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis address for the events emitter
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Events.RedisHost, c.Events.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
