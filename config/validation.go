package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration. Production additionally requires
// explicit S3 credentials when the S3 backend is selected.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}
	if cfg.DataFile == "" {
		errs = append(errs, ValidationError{Field: "DATA_FILE", Message: "must not be empty"})
	}
	if cfg.MaxUploadMB <= 0 {
		errs = append(errs, ValidationError{Field: "MAX_UPLOAD_MB", Message: "must be positive"})
	}
	if cfg.RedisURL != "" && cfg.RateLimitPerMinute <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must be positive when REDIS_URL is set"})
	}

	switch cfg.PhotoBackend {
	case PhotoBackendLocal:
		if cfg.UploadsDir == "" {
			errs = append(errs, ValidationError{Field: "UPLOADS_DIR", Message: "required for the local photo backend"})
		}
	case PhotoBackendS3:
		if cfg.S3BucketName == "" {
			errs = append(errs, ValidationError{Field: "S3_BUCKET_NAME", Message: "required for the s3 photo backend"})
		}
		if cfg.AWSRegion == "" {
			errs = append(errs, ValidationError{Field: "AWS_REGION", Message: "required for the s3 photo backend"})
		}
		if cfg.OrphanSweepSchedule != "" {
			errs = append(errs, ValidationError{Field: "ORPHAN_SWEEP_SCHEDULE", Message: "orphan sweep only runs with the local photo backend"})
		}
		if (cfg.AWSAccessKeyID == "") != (cfg.AWSSecretKey == "") {
			errs = append(errs, ValidationError{Field: "AWS_SECRET_ACCESS_KEY", Message: "access key id and secret must be set together"})
		}
		if cfg.Environment == Production && cfg.AWSAccessKeyID == "" {
			errs = append(errs, ValidationError{Field: "AWS_ACCESS_KEY_ID", Message: "explicit credentials are required in production"})
		}
	default:
		errs = append(errs, ValidationError{Field: "PHOTO_BACKEND", Message: fmt.Sprintf("unknown backend %q (want local or s3)", cfg.PhotoBackend)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
