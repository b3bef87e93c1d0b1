package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/metrics"
)

var _ IPhotoService = (*LocalPhotoService)(nil)

// LocalPhotoService keeps photos in a directory served as static files.
// Uploads are staged straight into that directory, so a crash between staging
// and persisting the recipe leaves an orphan for the Reclaimer.
type LocalPhotoService struct {
	dir string
	log *logger.Logger
}

// NewLocalPhotoService creates the uploads directory if needed.
func NewLocalPhotoService(dir string, log *logger.Logger) (*LocalPhotoService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalPhotoService{
		dir: dir,
		log: log.With("service", "LocalPhotoService"),
	}, nil
}

func (s *LocalPhotoService) Backend() string { return BackendLocal }

func (s *LocalPhotoService) StageUpload(fh *multipart.FileHeader) (*Upload, error) {
	return stageUpload(s.dir, fh)
}

// Store returns the bare filename of the upload, moving it into the uploads
// directory first when it was staged elsewhere.
func (s *LocalPhotoService) Store(ctx context.Context, upload *Upload) (string, error) {
	target := filepath.Join(s.dir, upload.Filename)
	if filepath.Clean(upload.Path) != filepath.Clean(target) {
		if err := os.Rename(upload.Path, target); err != nil {
			metrics.RecordPhotoOperation(BackendLocal, "store", false)
			return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		upload.Path = target
	}
	metrics.RecordPhotoOperation(BackendLocal, "store", true)
	s.log.Debug("photo stored", "file", upload.Filename, "original", upload.OriginalName, "size", upload.Size)
	return upload.Filename, nil
}

// Remove deletes the photo file, doing nothing if it is already gone.
func (s *LocalPhotoService) Remove(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	// Refs are bare filenames; never follow a path out of the uploads dir.
	path := filepath.Join(s.dir, filepath.Base(ref))

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("photo already absent", "file", ref)
			return
		}
		s.log.Error("failed to stat photo", "file", ref, "error", err)
		metrics.RecordPhotoOperation(BackendLocal, "remove", false)
		return
	}
	if err := os.Remove(path); err != nil {
		s.log.Error("failed to remove photo", "file", ref, "error", err)
		metrics.RecordPhotoOperation(BackendLocal, "remove", false)
		return
	}
	metrics.RecordPhotoOperation(BackendLocal, "remove", true)
	s.log.Info("photo removed", "file", ref)
}
