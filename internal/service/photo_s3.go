package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/metrics"
)

var _ IPhotoService = (*S3PhotoService)(nil)

// S3API is the subset of the S3 client used for photos.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3PhotoOptions configures the S3 backend.
type S3PhotoOptions struct {
	Bucket string
	// KeyPrefix is prepended to every object key, e.g. "recipe-photos/".
	KeyPrefix string
	// PublicBaseURL is the URL objects are served from, without trailing slash.
	PublicBaseURL string
	// StagingDir receives uploads before they are sent to the bucket.
	StagingDir string
}

// S3PhotoService stores photos in a bucket and references them by public URL.
type S3PhotoService struct {
	client S3API
	opts   S3PhotoOptions
	log    *logger.Logger
}

// NewS3PhotoService creates the S3 backend.
func NewS3PhotoService(client S3API, opts S3PhotoOptions, log *logger.Logger) (*S3PhotoService, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 photo backend requires a bucket name")
	}
	if opts.StagingDir == "" {
		opts.StagingDir = os.TempDir()
	}
	if err := os.MkdirAll(opts.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	opts.PublicBaseURL = strings.TrimSuffix(opts.PublicBaseURL, "/")
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", opts.Bucket)
	}
	return &S3PhotoService{
		client: client,
		opts:   opts,
		log:    log.With("service", "S3PhotoService", "bucket", opts.Bucket),
	}, nil
}

func (s *S3PhotoService) Backend() string { return BackendS3 }

func (s *S3PhotoService) StageUpload(fh *multipart.FileHeader) (*Upload, error) {
	return stageUpload(s.opts.StagingDir, fh)
}

// Store uploads the staged file under its generated name and returns the
// public URL. The staged copy is removed either way; failing to remove it is
// only logged.
func (s *S3PhotoService) Store(ctx context.Context, upload *Upload) (string, error) {
	defer s.removeStaged(upload)

	f, err := os.Open(upload.Path)
	if err != nil {
		metrics.RecordPhotoOperation(BackendS3, "store", false)
		return "", fmt.Errorf("%w: failed to open staged file: %v", ErrUploadFailed, err)
	}
	defer func() { _ = f.Close() }()

	key := s.opts.KeyPrefix + upload.Filename
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(upload.Size),
		ContentType:   aws.String(s.contentType(upload)),
	})
	if err != nil {
		metrics.RecordPhotoOperation(BackendS3, "store", false)
		s.log.Error("failed to upload photo", "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	metrics.RecordPhotoOperation(BackendS3, "store", true)
	publicURL := s.PublicURL(key)
	s.log.Info("photo uploaded", "key", key, "url", publicURL)
	return publicURL, nil
}

// Remove deletes the object behind ref. Failures are logged, never returned.
func (s *S3PhotoService) Remove(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	key := s.KeyFromRef(ref)
	if key == "" {
		s.log.Warn("cannot derive object key from photo reference", "ref", ref)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordPhotoOperation(BackendS3, "remove", false)
		s.log.Error("failed to delete photo from bucket", "key", key, "error", err)
		return
	}
	metrics.RecordPhotoOperation(BackendS3, "remove", true)
	s.log.Info("photo deleted from bucket", "key", key)
}

// PublicURL returns the URL an object key is served from.
func (s *S3PhotoService) PublicURL(key string) string {
	return s.opts.PublicBaseURL + "/" + key
}

// KeyFromRef maps a photo reference back to its object key. References under
// PublicBaseURL are trimmed; other URLs use their path; anything else is
// taken as a key.
func (s *S3PhotoService) KeyFromRef(ref string) string {
	if rest, ok := strings.CutPrefix(ref, s.opts.PublicBaseURL+"/"); ok {
		return rest
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return strings.TrimPrefix(ref, "/")
	}
	return strings.TrimPrefix(path.Clean(u.Path), "/")
}

func (s *S3PhotoService) contentType(upload *Upload) string {
	ct := upload.ContentType
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	mt, err := mimetype.DetectFile(upload.Path)
	if err != nil {
		s.log.Debug("content type detection failed", "file", upload.Filename, "error", err)
		return "application/octet-stream"
	}
	return mt.String()
}

func (s *S3PhotoService) removeStaged(upload *Upload) {
	if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove staged upload", "path", upload.Path, "error", err)
	}
}
