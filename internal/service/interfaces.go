package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/pageza/recipebook/internal/model"
)

var (
	// ErrRecipeNotFound is returned when no recipe has the requested id.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrUploadFailed wraps failures persisting a photo to its backend.
	ErrUploadFailed = errors.New("photo upload failed")
)

// Photo backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context) []model.Recipe
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, fields model.RecipeFields, photoRef *string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, fields model.RecipeFields, photoRef *string) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	PhotoRefs(ctx context.Context) map[string]struct{}
}

// PhotoRemover deletes a stored photo. Implementations log failures instead of
// returning them.
type PhotoRemover interface {
	Remove(ctx context.Context, ref string)
}

// IPhotoService defines the photo backend contract.
type IPhotoService interface {
	PhotoRemover
	// StageUpload copies an uploaded part into the backend's staging area.
	StageUpload(fh *multipart.FileHeader) (*Upload, error)
	// Store persists a staged upload and returns its photo reference.
	Store(ctx context.Context, upload *Upload) (string, error)
	// Backend names the backend, BackendLocal or BackendS3.
	Backend() string
}
