package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/querybuilder"
)

var _ IngredientRepository = (*PgIngredientRepository)(nil)

// PgIngredientRepository is a PostgreSQL implementation of IngredientRepository.
type PgIngredientRepository struct {
	db DBTX
	tx TxCoordinator
}

// NewPgIngredientRepository creates a new PostgreSQL ingredient repository.
func NewPgIngredientRepository(db DBTX, tx TxCoordinator) *PgIngredientRepository {
	return &PgIngredientRepository{db: db, tx: tx}
}

// List returns a page of ingredients matching the filter plus the total
// match count.
func (r *PgIngredientRepository) List(ctx context.Context, filter domain.IngredientFilter, page pagination.Params) ([]*domain.Ingredient, int64, error) {
	var fodmapLevel interface{}
	if filter.FodmapLevel != nil {
		fodmapLevel = string(*filter.FodmapLevel)
	}

	conditions := []querybuilder.Condition{
		querybuilder.Like{Field: "name", Value: filter.Search},
		querybuilder.Exact{Field: "fodmap_level", Value: fodmapLevel},
	}

	clause, args, argIndex, err := querybuilder.Build(conditions, 1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build ingredient filter: %w", err)
	}

	whereClause := ""
	if clause != "" {
		whereClause = "WHERE " + clause
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM ingredients %s`, whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count ingredients: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT id, name, quantity_unit, fodmap_level, created_at, updated_at
		FROM ingredients
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]*domain.Ingredient, 0, page.Limit)
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.QuantityUnit, &ing.FodmapLevel, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, &ing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return ingredients, totalCount, nil
}

// GetByID returns one ingredient.
func (r *PgIngredientRepository) GetByID(ctx context.Context, id int64) (*domain.Ingredient, error) {
	query := `SELECT id, name, quantity_unit, fodmap_level, created_at, updated_at FROM ingredients WHERE id = $1`

	var ing domain.Ingredient
	err := r.db.QueryRow(ctx, query, id).Scan(&ing.ID, &ing.Name, &ing.QuantityUnit, &ing.FodmapLevel, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("ingredient", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get ingredient by ID: %w", err)
	}

	return &ing, nil
}

// Create inserts an ingredient.
func (r *PgIngredientRepository) Create(ctx context.Context, name string, quantityUnit *string, fodmapLevel *domain.FodmapLevel) (*domain.Ingredient, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if fodmapLevel != nil && !fodmapLevel.Valid() {
		return nil, domain.NewValidationError("fodmap_level", fmt.Sprintf("unknown level %q", string(*fodmapLevel)))
	}

	query := `
		INSERT INTO ingredients (name, quantity_unit, fodmap_level)
		VALUES ($1, $2, $3)
		RETURNING id, name, quantity_unit, fodmap_level, created_at, updated_at`

	var ing domain.Ingredient
	err := r.db.QueryRow(ctx, query, name, quantityUnit, fodmapLevel).
		Scan(&ing.ID, &ing.Name, &ing.QuantityUnit, &ing.FodmapLevel, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("ingredient", fmt.Sprintf("ingredient %q already exists", name), "INGREDIENT_EXISTS")
		}
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}

	return &ing, nil
}

// Update rewrites an ingredient's fields.
func (r *PgIngredientRepository) Update(ctx context.Context, id int64, name string, quantityUnit *string, fodmapLevel *domain.FodmapLevel) (*domain.Ingredient, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if fodmapLevel != nil && !fodmapLevel.Valid() {
		return nil, domain.NewValidationError("fodmap_level", fmt.Sprintf("unknown level %q", string(*fodmapLevel)))
	}

	query := `
		UPDATE ingredients
		SET name = $1, quantity_unit = $2, fodmap_level = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING id, name, quantity_unit, fodmap_level, created_at, updated_at`

	var ing domain.Ingredient
	err := r.db.QueryRow(ctx, query, name, quantityUnit, fodmapLevel, id).
		Scan(&ing.ID, &ing.Name, &ing.QuantityUnit, &ing.FodmapLevel, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("ingredient", strconv.FormatInt(id, 10))
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("ingredient", fmt.Sprintf("ingredient %q already exists", name), "INGREDIENT_EXISTS")
		}
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}

	return &ing, nil
}

// Delete removes an ingredient. The in-use check and the delete run in one
// transaction.
func (r *PgIngredientRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		var inUse int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM recipe_ingredients WHERE ingredient_id = $1`, id).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to check ingredient usage: %w", err)
		}
		if inUse > 0 {
			return domain.NewConflictError("ingredient",
				fmt.Sprintf("ingredient is referenced by %d recipe(s)", inUse), "INGREDIENT_IN_USE")
		}

		tag, err := tx.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return domain.NewConflictError("ingredient", "ingredient is referenced by recipes", "INGREDIENT_IN_USE")
			}
			return fmt.Errorf("failed to delete ingredient: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("ingredient", strconv.FormatInt(id, 10))
		}
		return nil
	})
}
