// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Catalog     CatalogConfig
	AWS         AWSConfig
	Payment     PaymentConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	Path         string // sqlite file, ":memory:" for tests
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type SessionConfig struct {
	Secret      string
	TTLHours    int
	IdleMinutes int
}

type CatalogConfig struct {
	Source       string // embedded, file, http or s3
	Path         string
	URL          string
	S3Bucket     string
	S3Key        string
	FetchTimeout int // in seconds
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig limits requests per shopper. Zero disables a limit.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	SessionsPerMinute int
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 0), // SSE streams stay open
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			Path:         getEnv("DB_PATH", "storefront.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Session: SessionConfig{
			Secret:      getEnv("SESSION_SECRET", defaultSessionSecret),
			TTLHours:    getEnvAsInt("SESSION_TTL_HOURS", 24),
			IdleMinutes: getEnvAsInt("SESSION_IDLE_MINUTES", 120),
		},
		Catalog: CatalogConfig{
			Source:       getEnv("CATALOG_SOURCE", "embedded"),
			Path:         getEnv("CATALOG_PATH", "./data.json"),
			URL:          getEnv("CATALOG_URL", ""),
			S3Bucket:     getEnv("CATALOG_S3_BUCKET", ""),
			S3Key:        getEnv("CATALOG_S3_KEY", "catalog/data.json"),
			FetchTimeout: getEnvAsInt("CATALOG_FETCH_TIMEOUT", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        strings.ToLower(getEnv("CURRENCY", "usd")),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 30),
			SessionsPerMinute: getEnvAsInt("RATE_LIMIT_SESSIONS_PER_MINUTE", 10),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Session.Secret == defaultSessionSecret && c.Environment == "production" {
		return fmt.Errorf("session secret must be changed in production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" && c.Environment == "production" {
			return fmt.Errorf("database password is required in production")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Catalog.Source {
	case "embedded", "file":
	case "http":
		if c.Catalog.URL == "" {
			return fmt.Errorf("CATALOG_URL is required for the http catalog source")
		}
	case "s3":
		if c.Catalog.S3Bucket == "" {
			return fmt.Errorf("CATALOG_S3_BUCKET is required for the s3 catalog source")
		}
	default:
		return fmt.Errorf("unsupported catalog source %q", c.Catalog.Source)
	}

	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("currency must be a three letter ISO code, got %q", c.Payment.Currency)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
