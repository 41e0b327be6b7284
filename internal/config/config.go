package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" envDefault:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" envDefault:"300"`
	ApplicationName    string `env:"DB_APPLICATION_NAME" envDefault:"booktracker"`
}

// MinIOConfig holds object storage settings for uploaded book covers.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"covers"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// AuthConfig holds token signing and identity provider settings.
type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	Issuer         string        `env:"JWT_ISSUER" envDefault:"booktracker"`
	TokenTTL       time.Duration `env:"JWT_TTL" envDefault:"168h"`
	GoogleClientID string        `env:"GOOGLE_CLIENT_ID"`
}

// CatalogConfig holds settings for the Google Books client.
type CatalogConfig struct {
	BaseURL string        `env:"CATALOG_BASE_URL" envDefault:"https://www.googleapis.com/books/v1"`
	APIKey  string        `env:"CATALOG_API_KEY"`
	RPS     float64       `env:"CATALOG_RPS" envDefault:"5"`
	Burst   int           `env:"CATALOG_BURST" envDefault:"10"`
	Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
}

// LiveConfig controls the book list subscription stream.
type LiveConfig struct {
	Heartbeat      time.Duration `env:"LIVE_HEARTBEAT" envDefault:"30s"`
	ReconnectDelay time.Duration `env:"LIVE_RECONNECT_DELAY" envDefault:"5s"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	// AppHost is the swagger "Try it out" host when a request carries no Host header.
	AppHost        string   `env:"APP_HOST" envDefault:"localhost:8080"`
	Port           string   `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	Timezone       string   `env:"TZ_NAME" envDefault:"UTC"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	RateLimitMax   int      `env:"RATE_LIMIT_MAX" envDefault:"120"`
	AuthRateLimit  int      `env:"AUTH_RATE_LIMIT_MAX" envDefault:"10"`
	Database       DatabaseConfig
	MinIO          MinIOConfig
	Auth           AuthConfig
	Catalog        CatalogConfig
	Live           LiveConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over .env values.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone used for log timestamps.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
