package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload is a photo staged on local disk, waiting to be stored by a backend.
type Upload struct {
	// Path is the staged file on disk.
	Path string
	// Filename is the generated name; backends use it as the storage key.
	Filename     string
	OriginalName string
	ContentType  string
	Size         int64
}

// GeneratePhotoName returns a random 32 hex char name keeping the lowercased
// extension of the original filename.
func GeneratePhotoName(original string) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 1 && len(ext) <= 6 && !strings.ContainsAny(ext, `/\`) {
		name += ext
	}
	return name
}

// stageUpload copies a multipart part into dir under a generated name.
func stageUpload(dir string, fh *multipart.FileHeader) (*Upload, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() { _ = src.Close() }()

	name := GeneratePhotoName(fh.Filename)
	path := filepath.Join(dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}

	return &Upload{
		Path:         path,
		Filename:     name,
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         size,
	}, nil
}
