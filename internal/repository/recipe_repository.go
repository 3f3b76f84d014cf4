package repository

import (
	"context"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
)

// RecipeRepository manages recipes together with their ingredient and tag
// associations. All mutations are atomic: a recipe is never left without its
// declared associations.
type RecipeRepository interface {
	// Create inserts a recipe and its association rows in one transaction.
	// Returns domain.ErrNotFound when the category or a referenced
	// ingredient/tag does not exist; nothing is persisted in that case.
	Create(ctx context.Context, input *domain.NewRecipe) (*domain.RecipeDetail, error)

	// Update rewrites scalar fields and, for each association set present in
	// the payload, fully replaces the existing rows. A nil set pointer leaves
	// the existing associations untouched; a pointer to an empty slice clears
	// them. Returns domain.ErrNotFound when the recipe does not exist.
	Update(ctx context.Context, id int64, input *domain.RecipeUpdate) (*domain.RecipeDetail, error)

	// Delete removes the recipe and its association rows in one transaction
	// and returns the pre-deletion snapshot.
	Delete(ctx context.Context, id int64) (*domain.RecipeRef, error)

	// BulkCreate attempts each item independently within one transaction.
	// Failed items are reported in the result; the successfully created
	// items are still committed.
	BulkCreate(ctx context.Context, items []domain.NewRecipe) (*domain.BulkCreateResult, error)

	// BulkDelete resolves the existing ids with one lookup, deletes their
	// recipes and associations in batch statements, and reports missing ids
	// as per-id errors.
	BulkDelete(ctx context.Context, ids []int64) (*domain.BulkDeleteResult, error)

	// List returns a page of recipe summaries matching the filter plus the
	// total match count.
	List(ctx context.Context, filter domain.RecipeFilter, page pagination.Params) ([]*domain.RecipeSummary, int64, error)

	// GetByID returns the fully hydrated recipe.
	GetByID(ctx context.Context, id int64) (*domain.RecipeDetail, error)

	// ReplaceIngredients swaps the recipe's entire ingredient set in one
	// transaction and returns the refreshed association list.
	ReplaceIngredients(ctx context.Context, id int64, ingredients []domain.RecipeIngredient) ([]domain.RecipeIngredientDetail, error)
}
