package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/querybuilder"
)

// Compile-time interface verification.
var _ RecipeRepository = (*PgRecipeRepository)(nil)

// PgRecipeRepository is a PostgreSQL implementation of RecipeRepository.
// Reads go through db (normally the retrying Executor); multi-statement
// mutations run inside transactions obtained from tx.
type PgRecipeRepository struct {
	db DBTX
	tx TxCoordinator
}

// NewPgRecipeRepository creates a new PostgreSQL recipe repository.
func NewPgRecipeRepository(db DBTX, tx TxCoordinator) *PgRecipeRepository {
	return &PgRecipeRepository{db: db, tx: tx}
}

// Create inserts a recipe and its association rows in one transaction.
func (r *PgRecipeRepository) Create(ctx context.Context, input *domain.NewRecipe) (*domain.RecipeDetail, error) {
	if input == nil {
		return nil, domain.NewValidationError("recipe", "recipe payload cannot be nil")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var recipeID int64
	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		id, err := createRecipe(ctx, tx, input)
		if err != nil {
			return err
		}
		recipeID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, recipeID)
}

// createRecipe runs the insert sequence for one recipe on the given
// connection. Shared between Create and BulkCreate.
func createRecipe(ctx context.Context, q DBTX, input *domain.NewRecipe) (int64, error) {
	if err := verifyCategoryExists(ctx, q, input.CategoryID); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO recipes (title, description, preparation_time, serving_size, image_url, category_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`

	var recipeID int64
	err := q.QueryRow(ctx, query,
		input.Title,
		input.Description,
		input.PreparationTime,
		input.ServingSize,
		input.ImageURL,
		input.CategoryID,
		input.CreatedBy,
	).Scan(&recipeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return 0, domain.NewNotFoundError("category", strconv.FormatInt(input.CategoryID, 10))
		}
		return 0, fmt.Errorf("failed to insert recipe: %w", err)
	}

	if len(input.Ingredients) > 0 {
		if err := insertIngredientRows(ctx, q, recipeID, input.Ingredients); err != nil {
			return 0, err
		}
	}
	if len(input.Tags) > 0 {
		if err := insertTagRows(ctx, q, recipeID, input.Tags); err != nil {
			return 0, err
		}
	}

	return recipeID, nil
}

// Update rewrites scalar fields and fully replaces each association set
// present in the payload.
func (r *PgRecipeRepository) Update(ctx context.Context, id int64, input *domain.RecipeUpdate) (*domain.RecipeDetail, error) {
	if input == nil {
		return nil, domain.NewValidationError("recipe", "recipe payload cannot be nil")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Lock the row so concurrent association rewrites serialize.
		var existingID int64
		if err := tx.QueryRow(ctx, `SELECT id FROM recipes WHERE id = $1 FOR UPDATE`, id).Scan(&existingID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewNotFoundError("recipe", strconv.FormatInt(id, 10))
			}
			return fmt.Errorf("failed to lock recipe: %w", err)
		}

		if err := verifyCategoryExists(ctx, tx, input.CategoryID); err != nil {
			return err
		}

		updateQuery := `
			UPDATE recipes
			SET title = $1, description = $2, preparation_time = $3, serving_size = $4,
				image_url = $5, category_id = $6, updated_by = $7, updated_at = CURRENT_TIMESTAMP
			WHERE id = $8`
		if _, err := tx.Exec(ctx, updateQuery,
			input.Title,
			input.Description,
			input.PreparationTime,
			input.ServingSize,
			input.ImageURL,
			input.CategoryID,
			input.UpdatedBy,
			id,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return domain.NewNotFoundError("category", strconv.FormatInt(input.CategoryID, 10))
			}
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		// A present set (even empty) is a full replace; an absent set is untouched.
		if input.Ingredients != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
				return fmt.Errorf("failed to clear recipe ingredients: %w", err)
			}
			if len(*input.Ingredients) > 0 {
				if err := insertIngredientRows(ctx, tx, id, *input.Ingredients); err != nil {
					return err
				}
			}
		}
		if input.Tags != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, id); err != nil {
				return fmt.Errorf("failed to clear recipe tags: %w", err)
			}
			if len(*input.Tags) > 0 {
				if err := insertTagRows(ctx, tx, id, *input.Tags); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the recipe and its association rows, returning the
// pre-deletion snapshot.
func (r *PgRecipeRepository) Delete(ctx context.Context, id int64) (*domain.RecipeRef, error) {
	var ref domain.RecipeRef
	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT id, title FROM recipes WHERE id = $1`, id).Scan(&ref.ID, &ref.Title); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewNotFoundError("recipe", strconv.FormatInt(id, 10))
			}
			return fmt.Errorf("failed to load recipe snapshot: %w", err)
		}

		return deleteRecipeRows(ctx, tx, []int64{id})
	})
	if err != nil {
		return nil, err
	}

	return &ref, nil
}

// BulkCreate attempts each item independently within one transaction. Each
// item runs under a savepoint so a failure aborts only that item; the
// transaction commits whatever succeeded.
func (r *PgRecipeRepository) BulkCreate(ctx context.Context, items []domain.NewRecipe) (*domain.BulkCreateResult, error) {
	result := &domain.BulkCreateResult{
		Created: []domain.BulkCreatedRecipe{},
		Errors:  []domain.BulkCreateError{},
	}
	if len(items) == 0 {
		return result, nil
	}

	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		for i := range items {
			item := &items[i]

			savepoint := fmt.Sprintf("bulk_item_%d", i)
			if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("failed to create savepoint: %w", err)
			}

			var itemErr error
			if itemErr = item.Validate(); itemErr == nil {
				var recipeID int64
				recipeID, itemErr = createRecipe(ctx, tx, item)
				if itemErr == nil {
					if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
						return fmt.Errorf("failed to release savepoint: %w", err)
					}
					result.Created = append(result.Created, domain.BulkCreatedRecipe{
						Index:    i,
						RecipeID: recipeID,
						Title:    item.Title,
					})
					continue
				}
			}

			if _, err := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("failed to rollback savepoint: %w", err)
			}
			result.Errors = append(result.Errors, domain.BulkCreateError{
				Index: i,
				Title: item.Title,
				Error: itemErrorMessage(itemErr),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// BulkDelete resolves the existing ids in one lookup and batch-deletes their
// rows; missing ids become per-id errors.
func (r *PgRecipeRepository) BulkDelete(ctx context.Context, ids []int64) (*domain.BulkDeleteResult, error) {
	result := &domain.BulkDeleteResult{
		Deleted: []domain.RecipeRef{},
		Errors:  []domain.BulkDeleteError{},
	}
	if len(ids) == 0 {
		return result, nil
	}

	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		args := make([]interface{}, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		lookupQuery := fmt.Sprintf(
			`SELECT id, title FROM recipes WHERE id IN (%s) ORDER BY id`,
			querybuilder.Placeholders(1, len(ids)),
		)

		rows, err := tx.Query(ctx, lookupQuery, args...)
		if err != nil {
			return fmt.Errorf("failed to resolve recipe ids: %w", err)
		}
		existing := make(map[int64]struct{}, len(ids))
		for rows.Next() {
			var ref domain.RecipeRef
			if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan recipe snapshot: %w", err)
			}
			existing[ref.ID] = struct{}{}
			result.Deleted = append(result.Deleted, ref)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating recipe snapshots: %w", err)
		}

		for _, id := range ids {
			if _, ok := existing[id]; !ok {
				result.Errors = append(result.Errors, domain.BulkDeleteError{ID: id, Error: "recipe not found"})
			}
		}

		if len(result.Deleted) == 0 {
			return nil
		}

		existingIDs := make([]int64, 0, len(result.Deleted))
		for _, ref := range result.Deleted {
			existingIDs = append(existingIDs, ref.ID)
		}
		return deleteRecipeRows(ctx, tx, existingIDs)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// deleteRecipeRows removes associations then recipes for the given ids in
// three batch statements.
func deleteRecipeRows(ctx context.Context, q DBTX, ids []int64) error {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := querybuilder.Placeholders(1, len(ids))

	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM recipe_ingredients WHERE recipe_id IN (%s)`, placeholders), args...); err != nil {
		return fmt.Errorf("failed to delete recipe ingredients: %w", err)
	}
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM recipe_tags WHERE recipe_id IN (%s)`, placeholders), args...); err != nil {
		return fmt.Errorf("failed to delete recipe tags: %w", err)
	}
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM recipes WHERE id IN (%s)`, placeholders), args...); err != nil {
		return fmt.Errorf("failed to delete recipes: %w", err)
	}
	return nil
}

// List returns a page of recipe summaries matching the filter plus the total
// match count.
func (r *PgRecipeRepository) List(ctx context.Context, filter domain.RecipeFilter, page pagination.Params) ([]*domain.RecipeSummary, int64, error) {
	var categoryID interface{}
	if filter.CategoryID != nil {
		categoryID = *filter.CategoryID
	}
	var maxPrepTime interface{}
	if filter.MaxPreparationTime != nil {
		maxPrepTime = *filter.MaxPreparationTime
	}

	conditions := []querybuilder.Condition{
		querybuilder.Exact{Field: "r.category_id", Value: categoryID},
		querybuilder.Exact{Field: "r.preparation_time", Operator: "<=", Value: maxPrepTime},
	}
	if filter.TagName != "" {
		conditions = append(conditions, querybuilder.Exists{
			Subquery: func(start int) string {
				return fmt.Sprintf(
					"SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE rt.recipe_id = r.id AND t.name = $%d",
					start,
				)
			},
			Params: []interface{}{filter.TagName},
		})
	}

	clause, args, argIndex, err := querybuilder.Build(conditions, 1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build recipe filter: %w", err)
	}

	// Free-text search matches title or description through one shared
	// parameter, composed with the builder's next-index contract.
	if filter.Search != "" {
		group := fmt.Sprintf("(r.title ILIKE $%d OR r.description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+querybuilder.EscapeLike(filter.Search)+"%")
		argIndex++
		if clause != "" {
			clause += " AND " + group
		} else {
			clause = group
		}
	}

	whereClause := ""
	if clause != "" {
		whereClause = "WHERE " + clause
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM recipes r %s`, whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT r.id, r.title, r.description, r.preparation_time, r.serving_size, r.image_url,
			r.category_id, c.name,
			(SELECT COUNT(*) FROM recipe_ingredients ri WHERE ri.recipe_id = r.id),
			(SELECT COUNT(*) FROM recipe_tags rt WHERE rt.recipe_id = r.id),
			r.created_at, r.updated_at
		FROM recipes r
		JOIN categories c ON c.id = r.category_id
		%s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	summaries := make([]*domain.RecipeSummary, 0, page.Limit)
	for rows.Next() {
		var s domain.RecipeSummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.PreparationTime, &s.ServingSize, &s.ImageURL,
			&s.CategoryID, &s.CategoryName, &s.IngredientCount, &s.TagCount,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan recipe summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating recipes: %w", err)
	}

	return summaries, totalCount, nil
}

// recipeDetailQuery hydrates a recipe with its category name and JSON-
// aggregated association sets in a single round trip.
const recipeDetailQuery = `
	WITH ingredient_data AS (
		SELECT ri.recipe_id,
			json_agg(json_build_object(
				'ingredient_id', i.id,
				'name', i.name,
				'quantity_unit', i.quantity_unit,
				'fodmap_level', i.fodmap_level,
				'quantity', ri.quantity
			) ORDER BY i.name) AS ingredients
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		GROUP BY ri.recipe_id
	),
	tag_data AS (
		SELECT rt.recipe_id,
			json_agg(json_build_object('id', t.id, 'name', t.name) ORDER BY t.name) AS tags
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = $1
		GROUP BY rt.recipe_id
	)
	SELECT r.id, r.title, r.description, r.preparation_time, r.serving_size, r.image_url,
		r.category_id, c.name, r.created_by, r.updated_by, r.created_at, r.updated_at,
		COALESCE(idata.ingredients, '[]'::json), COALESCE(tdata.tags, '[]'::json)
	FROM recipes r
	JOIN categories c ON c.id = r.category_id
	LEFT JOIN ingredient_data idata ON idata.recipe_id = r.id
	LEFT JOIN tag_data tdata ON tdata.recipe_id = r.id
	WHERE r.id = $1`

// GetByID returns the fully hydrated recipe.
func (r *PgRecipeRepository) GetByID(ctx context.Context, id int64) (*domain.RecipeDetail, error) {
	row := r.db.QueryRow(ctx, recipeDetailQuery, id)
	detail, err := scanRecipeDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("recipe", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	return detail, nil
}

// ReplaceIngredients swaps the recipe's entire ingredient set in one
// transaction.
func (r *PgRecipeRepository) ReplaceIngredients(ctx context.Context, id int64, ingredients []domain.RecipeIngredient) ([]domain.RecipeIngredientDetail, error) {
	if err := domain.ValidateIngredients(ingredients); err != nil {
		return nil, err
	}

	err := r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		var existingID int64
		if err := tx.QueryRow(ctx, `SELECT id FROM recipes WHERE id = $1 FOR UPDATE`, id).Scan(&existingID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewNotFoundError("recipe", strconv.FormatInt(id, 10))
			}
			return fmt.Errorf("failed to lock recipe: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		if len(ingredients) > 0 {
			if err := insertIngredientRows(ctx, tx, id, ingredients); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE recipes SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to touch recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.name, i.quantity_unit, i.fodmap_level, ri.quantity
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		ORDER BY i.name`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	defer rows.Close()

	details := make([]domain.RecipeIngredientDetail, 0, len(ingredients))
	for rows.Next() {
		var d domain.RecipeIngredientDetail
		if err := rows.Scan(&d.IngredientID, &d.Name, &d.QuantityUnit, &d.FodmapLevel, &d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe ingredients: %w", err)
	}

	return details, nil
}

// verifyCategoryExists rejects references to missing categories before the
// insert, so the caller gets a typed error instead of a bare FK violation.
func verifyCategoryExists(ctx context.Context, q DBTX, categoryID int64) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify category: %w", err)
	}
	if !exists {
		return domain.NewNotFoundError("category", strconv.FormatInt(categoryID, 10))
	}
	return nil
}

// verifyAllExist compares one existence-count query against the submitted
// distinct id count.
func verifyAllExist(ctx context.Context, q DBTX, table, entity string, ids []int64) error {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id IN (%s)`, table, querybuilder.Placeholders(1, len(ids)))

	var count int64
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return fmt.Errorf("failed to verify %ss: %w", entity, err)
	}
	if count != int64(len(ids)) {
		return domain.NewNotFoundError(entity, "one or more referenced ids")
	}
	return nil
}

// insertIngredientRows verifies the referenced ingredients and batch-inserts
// the association rows in a single multi-row INSERT.
func insertIngredientRows(ctx context.Context, q DBTX, recipeID int64, ingredients []domain.RecipeIngredient) error {
	ids := make([]int64, len(ingredients))
	for i, ing := range ingredients {
		ids[i] = ing.IngredientID
	}
	if err := verifyAllExist(ctx, q, "ingredients", "ingredient", ids); err != nil {
		return err
	}

	valueStrings := make([]string, len(ingredients))
	args := make([]interface{}, 0, len(ingredients)*3)
	for i, ing := range ingredients {
		valueStrings[i] = fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, recipeID, ing.IngredientID, ing.Quantity)
	}

	query := fmt.Sprintf(`
		INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity)
		VALUES %s`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgForeignKeyViolation {
				return domain.NewNotFoundError("ingredient", "one or more referenced ids")
			}
			if pgErr.Code == pgUniqueViolation {
				return domain.NewConflictError("recipe_ingredient", "duplicate ingredient for recipe", "DUPLICATE_INGREDIENT")
			}
		}
		return fmt.Errorf("failed to insert recipe ingredients: %w", err)
	}
	return nil
}

// insertTagRows verifies the referenced tags and batch-inserts the
// association rows in a single multi-row INSERT.
func insertTagRows(ctx context.Context, q DBTX, recipeID int64, tagIDs []int64) error {
	if err := verifyAllExist(ctx, q, "tags", "tag", tagIDs); err != nil {
		return err
	}

	valueStrings := make([]string, len(tagIDs))
	args := make([]interface{}, 0, len(tagIDs)*2)
	for i, tagID := range tagIDs {
		valueStrings[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, recipeID, tagID)
	}

	query := fmt.Sprintf(`
		INSERT INTO recipe_tags (recipe_id, tag_id)
		VALUES %s`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgForeignKeyViolation {
				return domain.NewNotFoundError("tag", "one or more referenced ids")
			}
			if pgErr.Code == pgUniqueViolation {
				return domain.NewConflictError("recipe_tag", "duplicate tag for recipe", "DUPLICATE_TAG")
			}
		}
		return fmt.Errorf("failed to insert recipe tags: %w", err)
	}
	return nil
}

// itemErrorMessage renders a per-item bulk error for the response. Domain
// errors carry user-safe text; anything else is reported generically so raw
// driver messages never reach clients.
func itemErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	default:
		return "internal error"
	}
}

// recipeDetailScanDest holds the destination pointers for scanning a recipe
// detail row.
type recipeDetailScanDest struct {
	detail          domain.RecipeDetail
	ingredientsJSON []byte
	tagsJSON        []byte
}

// destinations returns the slice of pointers for Scan operations.
func (d *recipeDetailScanDest) destinations() []interface{} {
	return []interface{}{
		&d.detail.ID, &d.detail.Title, &d.detail.Description, &d.detail.PreparationTime,
		&d.detail.ServingSize, &d.detail.ImageURL, &d.detail.CategoryID, &d.detail.CategoryName,
		&d.detail.CreatedBy, &d.detail.UpdatedBy, &d.detail.CreatedAt, &d.detail.UpdatedAt,
		&d.ingredientsJSON, &d.tagsJSON,
	}
}

// finalize unpacks the JSON-aggregated association sets.
func (d *recipeDetailScanDest) finalize() (*domain.RecipeDetail, error) {
	if err := json.Unmarshal(d.ingredientsJSON, &d.detail.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode recipe ingredients: %w", err)
	}
	if err := json.Unmarshal(d.tagsJSON, &d.detail.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode recipe tags: %w", err)
	}
	return &d.detail, nil
}

// scanRecipeDetail scans a single row into a RecipeDetail.
func scanRecipeDetail(row pgx.Row) (*domain.RecipeDetail, error) {
	var dest recipeDetailScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
