// Package domain provides domain models and business logic for the recipe catalog service.
package domain

import (
	"fmt"
	"time"
)

// FodmapLevel classifies an ingredient's FODMAP content.
// These values must match the database enum fodmap_level.
type FodmapLevel string

const (
	FodmapLevelLow      FodmapLevel = "LOW"
	FodmapLevelModerate FodmapLevel = "MODERATE"
	FodmapLevelHigh     FodmapLevel = "HIGH"
)

// Valid returns true if the level is one of the known enum values.
func (l FodmapLevel) Valid() bool {
	switch l {
	case FodmapLevelLow, FodmapLevelModerate, FodmapLevelHigh:
		return true
	default:
		return false
	}
}

// ParseFodmapLevel converts a string into a FodmapLevel, rejecting unknown values.
func ParseFodmapLevel(s string) (FodmapLevel, error) {
	l := FodmapLevel(s)
	if !l.Valid() {
		return "", NewValidationError("fodmap_level", fmt.Sprintf("unknown level %q", s))
	}
	return l, nil
}

// Category is shared reference data grouping recipes. Deletion is blocked
// while any recipe references it.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ingredient is shared reference data. Deletion is blocked while any
// recipe_ingredients row references it.
type Ingredient struct {
	ID           int64
	Name         string
	QuantityUnit *string
	FodmapLevel  *FodmapLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tag is shared reference data. Deletion is blocked while any recipe_tags
// row references it.
type Tag struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Recipe is the aggregate root. It exclusively owns its association rows,
// which are created and destroyed with it.
type Recipe struct {
	ID              int64
	Title           string
	Description     *string
	PreparationTime *int32
	ServingSize     *int32
	ImageURL        *string
	CategoryID      int64
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecipeIngredient is the quantity payload of a recipe/ingredient association.
type RecipeIngredient struct {
	IngredientID int64
	Quantity     float64
}

// RecipeIngredientDetail is an association row joined with its ingredient.
type RecipeIngredientDetail struct {
	IngredientID int64       `json:"ingredient_id"`
	Name         string      `json:"name"`
	QuantityUnit *string     `json:"quantity_unit"`
	FodmapLevel  *FodmapLevel `json:"fodmap_level"`
	Quantity     float64     `json:"quantity"`
}

// TagRef is a tag as embedded in a recipe detail.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RecipeSummary is one row of a recipe listing.
type RecipeSummary struct {
	ID              int64
	Title           string
	Description     *string
	PreparationTime *int32
	ServingSize     *int32
	ImageURL        *string
	CategoryID      int64
	CategoryName    string
	IngredientCount int64
	TagCount        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecipeDetail is a fully hydrated recipe with its category name and
// association sets.
type RecipeDetail struct {
	Recipe
	CategoryName string
	Ingredients  []RecipeIngredientDetail
	Tags         []TagRef
}

// RecipeRef identifies a recipe in deletion snapshots and bulk reports.
type RecipeRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// NewRecipe is the payload for creating a recipe together with its
// association sets.
type NewRecipe struct {
	Title           string
	Description     *string
	PreparationTime *int32
	ServingSize     *int32
	ImageURL        *string
	CategoryID      int64
	CreatedBy       string
	Ingredients     []RecipeIngredient
	Tags            []int64
}

// Validate checks semantic invariants the wire-level schema cannot express.
func (r *NewRecipe) Validate() error {
	if r.Title == "" {
		return NewValidationError("title", "must not be empty")
	}
	if r.CategoryID <= 0 {
		return NewValidationError("category_id", "must be a positive id")
	}
	if r.PreparationTime != nil && *r.PreparationTime <= 0 {
		return NewValidationError("preparation_time", "must be positive")
	}
	if r.ServingSize != nil && *r.ServingSize <= 0 {
		return NewValidationError("serving_size", "must be positive")
	}
	if err := ValidateIngredients(r.Ingredients); err != nil {
		return err
	}
	seenTags := make(map[int64]struct{}, len(r.Tags))
	for _, id := range r.Tags {
		if id <= 0 {
			return NewValidationError("tags", "tag id must be a positive id")
		}
		if _, dup := seenTags[id]; dup {
			return NewValidationError("tags", fmt.Sprintf("duplicate tag %d", id))
		}
		seenTags[id] = struct{}{}
	}
	return nil
}

// ValidateIngredients checks an association set for positive ids, positive
// quantities, and duplicate pairs.
func ValidateIngredients(ingredients []RecipeIngredient) error {
	seen := make(map[int64]struct{}, len(ingredients))
	for _, ing := range ingredients {
		if ing.IngredientID <= 0 {
			return NewValidationError("ingredients", "ingredient_id must be a positive id")
		}
		if ing.Quantity <= 0 {
			return NewValidationError("ingredients", fmt.Sprintf("quantity for ingredient %d must be positive", ing.IngredientID))
		}
		if _, dup := seen[ing.IngredientID]; dup {
			return NewValidationError("ingredients", fmt.Sprintf("duplicate ingredient %d", ing.IngredientID))
		}
		seen[ing.IngredientID] = struct{}{}
	}
	return nil
}

// RecipeUpdate carries a recipe update. Ingredients and Tags are full-replace
// sets: a nil pointer leaves the existing associations untouched, a non-nil
// pointer (including a pointer to an empty slice) replaces them.
type RecipeUpdate struct {
	Title           string
	Description     *string
	PreparationTime *int32
	ServingSize     *int32
	ImageURL        *string
	CategoryID      int64
	UpdatedBy       string
	Ingredients     *[]RecipeIngredient
	Tags            *[]int64
}

// Validate checks semantic invariants of an update payload.
func (r *RecipeUpdate) Validate() error {
	nr := NewRecipe{
		Title:           r.Title,
		PreparationTime: r.PreparationTime,
		ServingSize:     r.ServingSize,
		CategoryID:      r.CategoryID,
	}
	if r.Ingredients != nil {
		nr.Ingredients = *r.Ingredients
	}
	if r.Tags != nil {
		nr.Tags = *r.Tags
	}
	return nr.Validate()
}

// BulkCreatedRecipe reports one successfully created item of a bulk create.
type BulkCreatedRecipe struct {
	Index    int    `json:"index"`
	RecipeID int64  `json:"recipe_id"`
	Title    string `json:"title"`
}

// BulkCreateError reports one failed item of a bulk create.
type BulkCreateError struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// BulkCreateResult is the per-item outcome of a bulk create. Successes are
// committed even when other items fail.
type BulkCreateResult struct {
	Created []BulkCreatedRecipe
	Errors  []BulkCreateError
}

// BulkDeleteError reports one id a bulk delete could not remove.
type BulkDeleteError struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// BulkDeleteResult is the per-id outcome of a bulk delete.
type BulkDeleteResult struct {
	Deleted []RecipeRef
	Errors  []BulkDeleteError
}

// RecipeFilter holds the optional predicates of a recipe listing.
type RecipeFilter struct {
	CategoryID *int64
	// Search matches title or description, case-insensitively.
	Search string
	// TagName restricts to recipes carrying a tag with this exact name.
	TagName string
	// MaxPreparationTime restricts to recipes preparable within the limit.
	MaxPreparationTime *int32
}

// IngredientFilter holds the optional predicates of an ingredient listing.
type IngredientFilter struct {
	// Search matches the ingredient name, case-insensitively.
	Search      string
	FodmapLevel *FodmapLevel
}
