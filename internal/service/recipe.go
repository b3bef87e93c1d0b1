package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/metrics"
	"github.com/pageza/recipebook/internal/model"
)

// Compile-time interface check.
var _ IRecipeService = (*RecipeService)(nil)

// RecipeService owns the recipe collection and its JSON document.
//
// The whole collection lives in memory and the document is rewritten on every
// mutation. Mutations hold the write lock across modify and persist, so
// concurrent writers are serialized rather than racing on the file.
type RecipeService struct {
	mu      sync.RWMutex
	path    string
	recipes []model.Recipe
	photos  PhotoRemover
	log     *logger.Logger
}

// NewRecipeService loads the document at path. A missing document starts an
// empty collection; it is created on the first mutation.
func NewRecipeService(path string, photos PhotoRemover, log *logger.Logger) (*RecipeService, error) {
	s := &RecipeService{
		path:   path,
		photos: photos,
		log:    log.With("service", "RecipeService"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	metrics.SetRecipeCount(len(s.recipes))
	return s, nil
}

func (s *RecipeService) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("recipe document not found, starting empty", "path", s.path)
		s.recipes = []model.Recipe{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read recipe document: %w", err)
	}

	var recipes []model.Recipe
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &recipes); err != nil {
			return fmt.Errorf("failed to decode recipe document %s: %w", s.path, err)
		}
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	s.recipes = recipes
	s.log.Info("loaded recipes", "path", s.path, "count", len(recipes))
	return nil
}

// persist writes the full collection. Caller holds the write lock.
func (s *RecipeService) persist(recipes []model.Recipe) error {
	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode recipes: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		s.log.Warn("failed to chmod temp document", "path", tmpName, "error", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write recipe document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write recipe document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace recipe document: %w", err)
	}
	return nil
}

// ListRecipes returns the collection in insertion order.
func (s *RecipeService) ListRecipes(ctx context.Context) []model.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out
}

// GetRecipe finds a recipe by id.
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrRecipeNotFound
	}
	recipe := s.recipes[i]
	return &recipe, nil
}

// CreateRecipe mints an id, appends the recipe and persists the collection.
func (s *RecipeService) CreateRecipe(ctx context.Context, fields model.RecipeFields, photoRef *string) (*model.Recipe, error) {
	if err := fields.ValidateNew(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recipe := model.Recipe{ID: s.newID()}
	fields.Apply(&recipe)
	if photoRef != nil {
		ref := *photoRef
		recipe.Photo = &ref
	}

	next := append(s.snapshot(), recipe)
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.recipes = next

	metrics.RecordRecipeMutation("create", len(next))
	s.log.Info("recipe created", "id", recipe.ID, "title", recipe.Title)
	return &recipe, nil
}

// UpdateRecipe replaces the editable fields of a recipe. The photo changes only
// when photoRef is non-nil; the replaced photo is then removed best-effort.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id string, fields model.RecipeFields, photoRef *string) (*model.Recipe, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrRecipeNotFound
	}

	next := s.snapshot()
	recipe := next[i]
	oldPhoto := recipe.PhotoRef()
	fields.Apply(&recipe)
	if photoRef != nil {
		ref := *photoRef
		recipe.Photo = &ref
	}
	next[i] = recipe

	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.recipes = next
	metrics.RecordRecipeMutation("update", len(next))
	s.mu.Unlock()

	s.log.Info("recipe updated", "id", recipe.ID, "title", recipe.Title)
	if photoRef != nil && oldPhoto != "" && oldPhoto != *photoRef {
		s.photos.Remove(ctx, oldPhoto)
	}
	return &recipe, nil
}

// DeleteRecipe removes a recipe, persists, then removes its photo. Photo
// removal failures are logged by the photo service and never returned.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrRecipeNotFound
	}

	removed := s.recipes[i]
	next := make([]model.Recipe, 0, len(s.recipes)-1)
	next = append(next, s.recipes[:i]...)
	next = append(next, s.recipes[i+1:]...)

	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.recipes = next
	metrics.RecordRecipeMutation("delete", len(next))
	s.mu.Unlock()

	s.log.Info("recipe deleted", "id", removed.ID, "title", removed.Title)
	if ref := removed.PhotoRef(); ref != "" {
		s.photos.Remove(ctx, ref)
	}
	return nil
}

// PhotoRefs returns the set of photo references used by any recipe.
func (s *RecipeService) PhotoRefs(ctx context.Context) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make(map[string]struct{}, len(s.recipes))
	for i := range s.recipes {
		if ref := s.recipes[i].PhotoRef(); ref != "" {
			refs[ref] = struct{}{}
		}
	}
	return refs
}

func (s *RecipeService) indexOf(id string) int {
	for i := range s.recipes {
		if s.recipes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *RecipeService) snapshot() []model.Recipe {
	out := make([]model.Recipe, len(s.recipes), len(s.recipes)+1)
	copy(out, s.recipes)
	return out
}

func (s *RecipeService) newID() string {
	for {
		id := uuid.NewString()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
