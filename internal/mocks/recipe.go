package mocks

import (
	"context"
	"mime/multipart"

	"github.com/pageza/recipebook/internal/model"
	"github.com/pageza/recipebook/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// ListRecipes mocks the ListRecipes method
func (m *MockRecipeService) ListRecipes(ctx context.Context) []model.Recipe {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Recipe)
}

// GetRecipe mocks the GetRecipe method
func (m *MockRecipeService) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

// CreateRecipe mocks the CreateRecipe method
func (m *MockRecipeService) CreateRecipe(ctx context.Context, fields model.RecipeFields, photoRef *string) (*model.Recipe, error) {
	args := m.Called(ctx, fields, photoRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

// UpdateRecipe mocks the UpdateRecipe method
func (m *MockRecipeService) UpdateRecipe(ctx context.Context, id string, fields model.RecipeFields, photoRef *string) (*model.Recipe, error) {
	args := m.Called(ctx, id, fields, photoRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

// DeleteRecipe mocks the DeleteRecipe method
func (m *MockRecipeService) DeleteRecipe(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PhotoRefs mocks the PhotoRefs method
func (m *MockRecipeService) PhotoRefs(ctx context.Context) map[string]struct{} {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]struct{})
}

// MockPhotoService is a mock implementation of the photo service
type MockPhotoService struct {
	mock.Mock
}

// StageUpload mocks the StageUpload method
func (m *MockPhotoService) StageUpload(fh *multipart.FileHeader) (*service.Upload, error) {
	args := m.Called(fh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Upload), args.Error(1)
}

// Store mocks the Store method
func (m *MockPhotoService) Store(ctx context.Context, upload *service.Upload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

// Remove mocks the Remove method
func (m *MockPhotoService) Remove(ctx context.Context, ref string) {
	m.Called(ctx, ref)
}

// Backend mocks the Backend method
func (m *MockPhotoService) Backend() string {
	args := m.Called()
	return args.String(0)
}

var (
	_ service.IRecipeService = (*MockRecipeService)(nil)
	_ service.IPhotoService  = (*MockPhotoService)(nil)
)
