package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "embedded", cfg.Catalog.Source)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "http")
	t.Setenv("CATALOG_URL", "https://cdn.example.com/data.json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com,")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("SESSION_TTL_HOURS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/data.json", cfg.Catalog.URL)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "eur", cfg.Payment.Currency)
	assert.Equal(t, 24, cfg.Session.TTLHours)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "development",
			Session:     SessionConfig{Secret: defaultSessionSecret},
			Database:    DatabaseConfig{Driver: "sqlite"},
			Catalog:     CatalogConfig{Source: "embedded"},
			Payment:     PaymentConfig{Currency: "usd"},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "session secret")

	cfg = valid()
	cfg.Database.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg = valid()
	cfg.Catalog.Source = "http"
	assert.ErrorContains(t, cfg.Validate(), "CATALOG_URL")

	cfg = valid()
	cfg.Catalog.Source = "s3"
	assert.ErrorContains(t, cfg.Validate(), "CATALOG_S3_BUCKET")

	cfg = valid()
	cfg.Catalog.Source = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "unsupported catalog source")

	cfg = valid()
	cfg.Payment.Currency = "dollars"
	assert.ErrorContains(t, cfg.Validate(), "currency")
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "shop", Password: "pw", Database: "storefront", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=shop password=pw dbname=storefront sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Path: ":memory:"}
	assert.Equal(t, ":memory:", lite.DSN())
}
