package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CI", "ENV", "SERVER_PORT", "SERVER_HOST", "DATA_FILE", "PHOTO_BACKEND",
		"UPLOADS_DIR", "STAGING_DIR", "S3_BUCKET_NAME", "AWS_REGION", "S3_KEY_PREFIX",
		"S3_PUBLIC_BASE_URL", "S3_SETUP_PUBLIC_POLICY", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"ORPHAN_SWEEP_SCHEDULE", "REDIS_URL", "MAX_UPLOAD_MB", "RATE_LIMIT_PER_MINUTE",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "recipes.json", cfg.DataFile)
	assert.Equal(t, PhotoBackendLocal, cfg.PhotoBackend)
	assert.Equal(t, filepath.Join("public", "uploads"), cfg.UploadsDir)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.OrphanSweepSchedule)
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DATA_FILE", "/data/recipes.json")
	t.Setenv("PHOTO_BACKEND", "S3")
	t.Setenv("S3_BUCKET_NAME", "recipe-photos")
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, http://frontend:5173")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "/data/recipes.json", cfg.DataFile)
	assert.Equal(t, PhotoBackendS3, cfg.PhotoBackend)
	assert.Equal(t, "recipe-photos", cfg.S3BucketName)
	assert.Equal(t, "eu-central-1", cfg.AWSRegion)
	assert.Equal(t, []string{"http://localhost:5173", "http://frontend:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://recipe-photos.s3.eu-central-1.amazonaws.com", publicBaseURL(cfg))
}

func TestLoadConfigReadsCredentialSecrets(t *testing.T) {
	clearEnv(t)
	secrets := t.TempDir()
	t.Setenv("SECRETS_DIR", secrets)
	require.NoError(t, os.WriteFile(filepath.Join(secrets, "aws_access_key_id"), []byte("AKIA\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secrets, "aws_secret_access_key"), []byte("shh\n"), 0o600))
	t.Setenv("PHOTO_BACKEND", "s3")
	t.Setenv("S3_BUCKET_NAME", "recipe-photos")
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "AKIA", cfg.AWSAccessKeyID)
	assert.Equal(t, "shh", cfg.AWSSecretKey)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:  Development,
			ServerPort:   "3000",
			DataFile:     "recipes.json",
			PhotoBackend: PhotoBackendLocal,
			UploadsDir:   "public/uploads",
			MaxUploadMB:  10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{name: "valid local", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.ServerPort = "http" }, fields: []string{"SERVER_PORT"}},
		{name: "unknown backend", mutate: func(c *Config) { c.PhotoBackend = "ftp" }, fields: []string{"PHOTO_BACKEND"}},
		{
			name:   "s3 without bucket and region",
			mutate: func(c *Config) { c.PhotoBackend = PhotoBackendS3 },
			fields: []string{"S3_BUCKET_NAME", "AWS_REGION"},
		},
		{
			name: "s3 with sweep schedule",
			mutate: func(c *Config) {
				c.PhotoBackend = PhotoBackendS3
				c.S3BucketName = "b"
				c.AWSRegion = "us-east-1"
				c.OrphanSweepSchedule = "@every 1h"
			},
			fields: []string{"ORPHAN_SWEEP_SCHEDULE"},
		},
		{
			name: "s3 in production needs credentials",
			mutate: func(c *Config) {
				c.Environment = Production
				c.PhotoBackend = PhotoBackendS3
				c.S3BucketName = "b"
				c.AWSRegion = "us-east-1"
			},
			fields: []string{"AWS_ACCESS_KEY_ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			var got []string
			for _, e := range verrs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestEnvironmentModes(t *testing.T) {
	assert.Equal(t, "production", Production.LogMode())
	assert.Equal(t, "development", Test.LogMode())
	assert.Equal(t, "release", Production.GinMode())
	assert.Equal(t, "test", CI.GinMode())
	assert.Equal(t, "debug", Development.GinMode())
}
