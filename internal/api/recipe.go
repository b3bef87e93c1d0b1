package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/middleware"
	"github.com/pageza/recipebook/internal/model"
	"github.com/pageza/recipebook/internal/service"
)

// formOverhead bounds the non-file part of a recipe form.
const formOverhead = 1 << 20

var errPhotoTooLarge = errors.New("photo is too large")

type RecipeHandler struct {
	recipes        service.IRecipeService
	photos         service.IPhotoService
	views          *Views
	maxUploadBytes int64
	log            *logger.Logger
}

func NewRecipeHandler(recipes service.IRecipeService, photos service.IPhotoService, views *Views, maxUploadBytes int64, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:        recipes,
		photos:         photos,
		views:          views,
		maxUploadBytes: maxUploadBytes,
		log:            log.With("handler", "RecipeHandler"),
	}
}

// RegisterRoutes mounts the page routes. mutate runs in front of every
// route that changes the collection.
func (h *RecipeHandler) RegisterRoutes(router gin.IRoutes, mutate ...gin.HandlerFunc) {
	with := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutate...), handler)
	}

	router.GET("/", h.ListRecipes)
	router.GET("/recipe/:id", h.GetRecipe)
	router.GET("/add-recipe", h.AddRecipeForm)
	router.POST("/add-recipe", with(h.CreateRecipe)...)
	router.GET("/edit-recipe/:id", h.EditRecipeForm)
	router.POST("/edit-recipe/:id", with(h.UpdateRecipe)...)
	router.POST("/delete-recipe/:id", with(h.DeleteRecipe)...)
}

type indexPage struct {
	FishDishes []model.Recipe
	MeatDishes []model.Recipe
	Sauces     []model.Recipe
}

type addPage struct {
	Categories []string
	Recipes    []model.Recipe
}

type editPage struct {
	Categories []string
	Recipe     model.Recipe
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	groups := model.GroupByCategory(h.recipes.ListRecipes(c.Request.Context()))
	h.views.Render(c, http.StatusOK, "index", indexPage{
		FishDishes: groups[model.CategoryFish],
		MeatDishes: groups[model.CategoryMeat],
		Sauces:     groups[model.CategorySauce],
	})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, ok := h.lookup(c)
	if !ok {
		return
	}
	h.views.Render(c, http.StatusOK, "recipe-detail", *recipe)
}

func (h *RecipeHandler) AddRecipeForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, "add-recipe", addPage{
		Categories: model.Categories,
		Recipes:    h.recipes.ListRecipes(c.Request.Context()),
	})
}

func (h *RecipeHandler) EditRecipeForm(c *gin.Context) {
	recipe, ok := h.lookup(c)
	if !ok {
		return
	}
	h.views.Render(c, http.StatusOK, "edit-recipe", editPage{
		Categories: model.Categories,
		Recipe:     *recipe,
	})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	if err := h.parseForm(c); err != nil {
		h.badRequest(c, err)
		return
	}

	fields := bindFields(c)
	if err := fields.ValidateNew(); err != nil {
		h.badRequest(c, err)
		return
	}

	photoRef, ok := h.storePhoto(c)
	if !ok {
		return
	}

	if _, err := h.recipes.CreateRecipe(c.Request.Context(), fields, photoRef); err != nil {
		h.discardPhoto(c, photoRef)
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.lookup(c); !ok {
		return
	}
	if err := h.parseForm(c); err != nil {
		h.badRequest(c, err)
		return
	}

	fields := bindFields(c)
	if err := fields.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}

	photoRef, ok := h.storePhoto(c)
	if !ok {
		return
	}

	if _, err := h.recipes.UpdateRecipe(c.Request.Context(), id, fields, photoRef); err != nil {
		h.discardPhoto(c, photoRef)
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id := c.Param("id")
	err := h.recipes.DeleteRecipe(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		h.log.Warn("recipe not found for delete", "id", id)
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "recipe not found"})
	case err != nil:
		h.log.Error("failed to delete recipe", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, middleware.ErrorResponse{Error: "failed to delete recipe"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// lookup loads the recipe named by the :id param, answering 404 itself.
func (h *RecipeHandler) lookup(c *gin.Context) (*model.Recipe, bool) {
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return recipe, true
}

// parseForm reads a multipart or urlencoded body, capping its total size.
func (h *RecipeHandler) parseForm(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)
	err := c.Request.ParseMultipartForm(h.maxUploadBytes)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: limit is %s", errPhotoTooLarge, formatBytes(h.maxUploadBytes))
	default:
		return fmt.Errorf("invalid form: %w", err)
	}
}

// storePhoto stores the optional "photo" part. It returns nil when no photo
// was sent; ok is false when a response has already been written.
func (h *RecipeHandler) storePhoto(c *gin.Context) (ref *string, ok bool) {
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		h.badRequest(c, fmt.Errorf("invalid photo: %w", err))
		return nil, false
	}
	if fh.Size > h.maxUploadBytes {
		h.badRequest(c, fmt.Errorf("%w: limit is %s", errPhotoTooLarge, formatBytes(h.maxUploadBytes)))
		return nil, false
	}

	upload, err := h.photos.StageUpload(fh)
	if err == nil {
		var stored string
		if stored, err = h.photos.Store(c.Request.Context(), upload); err == nil {
			return &stored, true
		}
	}

	h.log.Error("failed to upload photo", "backend", h.photos.Backend(), "file", fh.Filename, "error", err)
	c.String(http.StatusInternalServerError, "failed to upload photo")
	return nil, false
}

// discardPhoto removes a photo stored for a request whose recipe was not saved.
func (h *RecipeHandler) discardPhoto(c *gin.Context, ref *string) {
	if ref != nil {
		h.photos.Remove(c.Request.Context(), *ref)
	}
}

func (h *RecipeHandler) badRequest(c *gin.Context, err error) {
	h.log.Warn("rejected recipe form", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusBadRequest, err.Error())
}

func (h *RecipeHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		h.log.Warn("recipe not found", "id", c.Param("id"), "path", c.Request.URL.Path)
		c.String(http.StatusNotFound, "recipe not found")
	case errors.Is(err, model.ErrMissingField), errors.Is(err, model.ErrIngredientMismatch):
		h.badRequest(c, err)
	default:
		h.log.Error("recipe request failed", "path", c.Request.URL.Path, "error", err)
		c.String(http.StatusInternalServerError, "failed to save recipe")
	}
}

// bindFields reads the recipe form. List fields are accepted with or without
// the [] suffix.
func bindFields(c *gin.Context) model.RecipeFields {
	return model.RecipeFields{
		Title:             strings.TrimSpace(c.PostForm("title")),
		Category:          strings.TrimSpace(c.PostForm("category")),
		Ingredients:       formList(c, "ingredients"),
		IngredientWeights: formList(c, "ingredientWeights"),
		TotalWeight:       strings.TrimSpace(c.PostForm("totalWeight")),
		Preparation:       c.PostForm("description"),
	}
}

func formList(c *gin.Context, name string) []string {
	if values := c.PostFormArray(name + "[]"); len(values) > 0 {
		return values
	}
	return c.PostFormArray(name)
}

// formatBytes renders an upload limit for error messages.
func formatBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
