package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string
	ServerHost string

	// Recipe document
	DataFile string

	// Photo storage
	PhotoBackend    string
	UploadsDir      string
	StagingDir      string
	MaxUploadMB     int64
	S3BucketName    string
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretKey    string
	S3KeyPrefix     string
	S3PublicBaseURL string
	// S3SetupPolicy applies a public-read bucket policy at startup
	S3SetupPolicy bool

	// Orphan sweep cron spec; empty means startup only
	OrphanSweepSchedule string

	// Redis backs the rate limiter; empty disables it
	RedisURL           string
	RateLimitPerMinute int

	CORSAllowedOrigins []string
}

// Photo backends accepted in PHOTO_BACKEND.
const (
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	if err := loadConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadConfig(cfg *Config) error {
	cfg.ServerPort = getEnv("SERVER_PORT", "3000")
	cfg.ServerHost = getEnv("SERVER_HOST", "")
	cfg.DataFile = getEnv("DATA_FILE", "recipes.json")

	cfg.PhotoBackend = strings.ToLower(getEnv("PHOTO_BACKEND", PhotoBackendLocal))
	cfg.UploadsDir = getEnv("UPLOADS_DIR", filepath.Join("public", "uploads"))
	cfg.StagingDir = getEnv("STAGING_DIR", filepath.Join(os.TempDir(), "recipebook-staging"))
	cfg.S3BucketName = getEnv("S3_BUCKET_NAME", "")
	cfg.AWSRegion = getEnv("AWS_REGION", "")
	cfg.S3KeyPrefix = getEnv("S3_KEY_PREFIX", "")
	cfg.S3PublicBaseURL = getEnv("S3_PUBLIC_BASE_URL", "")
	cfg.S3SetupPolicy = getEnv("S3_SETUP_PUBLIC_POLICY", "false") == "true"

	// Credentials come from the environment first, then Docker secrets. When
	// both are empty the AWS default credential chain applies.
	cfg.AWSAccessKeyID = getEnvOrSecret("AWS_ACCESS_KEY_ID", "aws_access_key_id")
	cfg.AWSSecretKey = getEnvOrSecret("AWS_SECRET_ACCESS_KEY", "aws_secret_access_key")

	cfg.OrphanSweepSchedule = getEnv("ORPHAN_SWEEP_SCHEDULE", "")
	cfg.RedisURL = getEnvOrSecret("REDIS_URL", "redis_url")

	var err error
	if cfg.MaxUploadMB, err = strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "10"), 10, 64); err != nil {
		return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60")); err != nil {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// MaxUploadBytes returns the photo size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvOrSecret(key, secret string) string {
	if value := getEnv(key, ""); value != "" {
		return value
	}
	return readSecret(secret)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
