package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Orders    OrdersConfig
	PromoSeed PromoSeedConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// RedisConfig holds cache store configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds admin authentication configuration.
type AuthConfig struct {
	APIKey string
}

// CacheConfig holds the cache key namespace and per-category TTL tiers.
// The tiers are policy constants balancing staleness against store load,
// overridable per deployment.
type CacheConfig struct {
	Prefix      string
	DefaultTTL  time.Duration
	ProductTTL  time.Duration
	CategoryTTL time.Duration
	BrandTTL    time.Duration
	SearchTTL   time.Duration
	FeaturedTTL time.Duration
	AdminTTL    time.Duration
	OrderTTL    time.Duration
}

// OrdersConfig holds the order transaction knobs: the bounded worker pool
// handling concurrent order placements and the retry budget for transient
// storage contention.
type OrdersConfig struct {
	MaxConcurrent  int
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

// PromoSeedConfig holds the optional promo-code bulk seed source. Seed files
// are gzipped JSON lines read from local disk or S3 at startup.
type PromoSeedConfig struct {
	Enabled bool
	S3      bool
	Bucket  string
	Region  string
	Paths   []string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "hexashop"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Cache: CacheConfig{
			Prefix:      getEnv("CACHE_PREFIX", "hexashop"),
			DefaultTTL:  getEnvAsSeconds("CACHE_DEFAULT_TTL", 300),
			ProductTTL:  getEnvAsSeconds("CACHE_PRODUCT_TTL", 600),
			CategoryTTL: getEnvAsSeconds("CACHE_CATEGORY_TTL", 600),
			BrandTTL:    getEnvAsSeconds("CACHE_BRAND_TTL", 600),
			SearchTTL:   getEnvAsSeconds("CACHE_SEARCH_TTL", 180),
			FeaturedTTL: getEnvAsSeconds("CACHE_FEATURED_TTL", 1800),
			AdminTTL:    getEnvAsSeconds("CACHE_ADMIN_TTL", 30),
			OrderTTL:    getEnvAsSeconds("CACHE_ORDER_TTL", 900),
		},
		Orders: OrdersConfig{
			MaxConcurrent:  getEnvAsInt("ORDER_MAX_CONCURRENT", 20),
			MaxAttempts:    getEnvAsInt("ORDER_MAX_ATTEMPTS", 3),
			RetryDelay:     getEnvAsDuration("ORDER_RETRY_DELAY", 100*time.Millisecond),
			AttemptTimeout: getEnvAsDuration("ORDER_ATTEMPT_TIMEOUT", 5*time.Second),
		},
		PromoSeed: PromoSeedConfig{
			Enabled: getEnvAsBool("PROMO_SEED_ENABLED", false),
			S3:      getEnvAsBool("PROMO_SEED_S3", false),
			Bucket:  getEnv("PROMO_SEED_BUCKET", ""),
			Region:  getEnv("PROMO_SEED_REGION", "us-east-1"),
			Paths:   getEnvAsList("PROMO_SEED_PATHS", "data/promos/promocodes.gz"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Orders.MaxConcurrent < 1 {
		return fmt.Errorf("order worker pool size must be at least 1")
	}

	if c.Orders.MaxAttempts < 1 {
		return fmt.Errorf("order max attempts must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.PromoSeed.Enabled && c.PromoSeed.S3 {
		if c.PromoSeed.Bucket == "" {
			return fmt.Errorf("promo seed bucket is required when S3 seeding is enabled")
		}
		if c.PromoSeed.Region == "" {
			return fmt.Errorf("promo seed region is required when S3 seeding is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds retrieves an environment variable holding a whole number of
// seconds as a time.Duration.
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

// getEnvAsDuration retrieves an environment variable in Go duration syntax
// (e.g. "100ms") or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a slice.
func getEnvAsList(key, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
