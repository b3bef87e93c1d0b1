package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Known categories the list view groups by. The store accepts any category.
const (
	CategoryFish  = "fish"
	CategoryMeat  = "meat"
	CategorySauce = "sauce"
)

// Categories lists the grouped categories in display order.
var Categories = []string{CategoryFish, CategoryMeat, CategorySauce}

var (
	ErrMissingField       = errors.New("missing required field")
	ErrIngredientMismatch = errors.New("ingredients and weights are not aligned")
)

// StringList is a list of strings that also accepts a bare string or null
// when decoding, so older documents written from single-value forms still load.
type StringList []string

// MarshalJSON always writes an array, never null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = StringList{}
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = StringList(items)
	return nil
}

// Recipe is the only persisted entity. The JSON names are the on-disk format.
type Recipe struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Category          string     `json:"category"`
	Ingredients       StringList `json:"ingredients"`
	IngredientWeights StringList `json:"ingredientWeights"`
	TotalWeight       string     `json:"totalWeight"`
	Preparation       string     `json:"preparation"`
	Photo             *string    `json:"photo"`
}

// PhotoRef returns the photo reference or "" when the recipe has none.
func (r Recipe) PhotoRef() string {
	if r.Photo == nil {
		return ""
	}
	return *r.Photo
}

// HasRemotePhoto reports whether the photo reference is an absolute URL.
func (r Recipe) HasRemotePhoto() bool {
	ref := r.PhotoRef()
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Ingredient pairs an ingredient name with its weight.
type Ingredient struct {
	Name   string
	Weight string
}

// IngredientRows zips ingredients with their weights. A missing weight is
// rendered as an empty string.
func (r Recipe) IngredientRows() []Ingredient {
	rows := make([]Ingredient, 0, len(r.Ingredients))
	for i, name := range r.Ingredients {
		row := Ingredient{Name: name}
		if i < len(r.IngredientWeights) {
			row.Weight = r.IngredientWeights[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// RecipeFields holds the user-editable part of a recipe.
type RecipeFields struct {
	Title             string
	Category          string
	Ingredients       []string
	IngredientWeights []string
	TotalWeight       string
	Preparation       string
}

// Validate checks that a title is present and that every ingredient has
// exactly one weight at the same index.
func (f RecipeFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if len(f.Ingredients) != len(f.IngredientWeights) {
		return fmt.Errorf("%w: %d ingredients, %d weights", ErrIngredientMismatch, len(f.Ingredients), len(f.IngredientWeights))
	}
	return nil
}

// ValidateNew is Validate plus a required category, used on create.
func (f RecipeFields) ValidateNew() error {
	if err := f.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(f.Category) == "" {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	return nil
}

// Apply copies the fields onto r. An empty category keeps the current one.
func (f RecipeFields) Apply(r *Recipe) {
	r.Title = f.Title
	if strings.TrimSpace(f.Category) != "" {
		r.Category = f.Category
	}
	r.Ingredients = append(StringList{}, f.Ingredients...)
	r.IngredientWeights = append(StringList{}, f.IngredientWeights...)
	r.TotalWeight = f.TotalWeight
	r.Preparation = f.Preparation
}

// GroupByCategory buckets recipes by category, keeping collection order inside
// each bucket.
func GroupByCategory(recipes []Recipe) map[string][]Recipe {
	groups := make(map[string][]Recipe)
	for _, r := range recipes {
		groups[r.Category] = append(groups[r.Category], r)
	}
	return groups
}
