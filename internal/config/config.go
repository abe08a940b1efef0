package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var baseURLs = map[string]string{
	EnvDevelopment: "https://dev-api.subleasefinder.com",
	EnvStaging:     "https://staging-api.subleasefinder.com",
	EnvProduction:  "https://api.subleasefinder.com",
}

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Environment string `mapstructure:"APP_ENVIRONMENT"`

	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	APIRequestTimeout time.Duration `mapstructure:"API_REQUEST_TIMEOUT"`
	APIUploadTimeout  time.Duration `mapstructure:"API_UPLOAD_TIMEOUT"`
	APIRetryBudget    int           `mapstructure:"API_RETRY_BUDGET"`
	APIBackoffUnit    time.Duration `mapstructure:"API_BACKOFF_UNIT"`

	CacheBackend       string        `mapstructure:"CACHE_BACKEND"` // "disk" or "redis"
	CacheDir           string        `mapstructure:"CACHE_DIR"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL"`
	CacheMemoryEntries int           `mapstructure:"CACHE_MEMORY_ENTRIES"`
	RedisAddress       string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`

	NATSURL string `mapstructure:"NATS_URL"`

	UploadAuthorizer string        `mapstructure:"UPLOAD_AUTHORIZER"` // "api" or "minio"
	MinIOEndpoint    string        `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey   string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey   string        `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket      string        `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL      bool          `mapstructure:"MINIO_USE_SSL"`
	MinIORegion      string        `mapstructure:"MINIO_REGION"`
	PresignExpiry    time.Duration `mapstructure:"PRESIGN_EXPIRY"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	AuthTokenTTL time.Duration `mapstructure:"AUTH_TOKEN_TTL"`

	SearchDebounce      time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	MaxImagesPerListing int           `mapstructure:"MAX_IMAGES_PER_LISTING"`
	MaxImageSize        int           `mapstructure:"MAX_IMAGE_SIZE"`

	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	LogOutputFile          string `mapstructure:"LOG_OUTPUT_FILE"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`

	DevServerPort      string `mapstructure:"DEVSERVER_PORT"`
	DevServerPublicURL string `mapstructure:"DEVSERVER_PUBLIC_URL"`
	MongoURI           string `mapstructure:"MONGO_URI"` // empty keeps the devserver in memory
	MongoDatabase      string `mapstructure:"MONGO_DATABASE"`
	SMTPHost           string `mapstructure:"SMTP_HOST"`
	SMTPPort           int    `mapstructure:"SMTP_PORT"`
	SMTPEmail          string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword       string `mapstructure:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "sublease-client")
	v.SetDefault("APP_ENVIRONMENT", EnvDevelopment)
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("API_REQUEST_TIMEOUT", "30s")
	v.SetDefault("API_UPLOAD_TIMEOUT", "60s")
	v.SetDefault("API_RETRY_BUDGET", 2)
	v.SetDefault("API_BACKOFF_UNIT", "1s")

	v.SetDefault("CACHE_BACKEND", "disk")
	v.SetDefault("CACHE_DIR", defaultCacheDir())
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_MEMORY_ENTRIES", 100)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("NATS_URL", "")

	v.SetDefault("UPLOAD_AUTHORIZER", "api")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "listing-images")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("PRESIGN_EXPIRY", "15m")

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("AUTH_TOKEN_TTL", "1h")

	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("MAX_IMAGES_PER_LISTING", 10)
	v.SetDefault("MAX_IMAGE_SIZE", 10*1024*1024)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_FILE", "stdout")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "")

	v.SetDefault("DEVSERVER_PORT", "8080")
	v.SetDefault("DEVSERVER_PUBLIC_URL", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "subleases")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: error loading .env, relying on environment variables: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.Environment = strings.ToLower(c.Environment)
	if c.APIBaseURL == "" {
		url, ok := baseURLs[c.Environment]
		if !ok {
			return fmt.Errorf("config: unknown APP_ENVIRONMENT %q", c.Environment)
		}
		c.APIBaseURL = url
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	if c.APIRetryBudget < 0 {
		return fmt.Errorf("config: API_RETRY_BUDGET must not be negative, got %d", c.APIRetryBudget)
	}
	switch c.CacheBackend {
	case "disk", "redis":
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	switch c.UploadAuthorizer {
	case "api", "minio":
	default:
		return fmt.Errorf("config: unknown UPLOAD_AUTHORIZER %q", c.UploadAuthorizer)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must be set")
	}
	return nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "subleasefinder", "ListingCache")
}
