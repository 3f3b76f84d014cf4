package repository

import (
	"context"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
)

// CategoryRepository manages the category reference data.
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	// Create returns domain.ErrConflict on a duplicate name.
	Create(ctx context.Context, name string) (*domain.Category, error)
	Update(ctx context.Context, id int64, name string) (*domain.Category, error)
	// Delete returns domain.ErrConflict while any recipe references the category.
	Delete(ctx context.Context, id int64) error
}

// IngredientRepository manages the ingredient reference data.
type IngredientRepository interface {
	List(ctx context.Context, filter domain.IngredientFilter, page pagination.Params) ([]*domain.Ingredient, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Ingredient, error)
	Create(ctx context.Context, name string, quantityUnit *string, fodmapLevel *domain.FodmapLevel) (*domain.Ingredient, error)
	Update(ctx context.Context, id int64, name string, quantityUnit *string, fodmapLevel *domain.FodmapLevel) (*domain.Ingredient, error)
	// Delete returns domain.ErrConflict while any recipe_ingredients row references the ingredient.
	Delete(ctx context.Context, id int64) error
}

// TagRepository manages the tag reference data.
type TagRepository interface {
	List(ctx context.Context) ([]*domain.Tag, error)
	GetByID(ctx context.Context, id int64) (*domain.Tag, error)
	Create(ctx context.Context, name string) (*domain.Tag, error)
	Update(ctx context.Context, id int64, name string) (*domain.Tag, error)
	// Delete returns domain.ErrConflict while any recipe_tags row references the tag.
	Delete(ctx context.Context, id int64) error
}
