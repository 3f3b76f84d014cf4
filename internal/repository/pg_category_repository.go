package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
)

var _ CategoryRepository = (*PgCategoryRepository)(nil)

// PgCategoryRepository is a PostgreSQL implementation of CategoryRepository.
type PgCategoryRepository struct {
	db DBTX
	tx TxCoordinator
}

// NewPgCategoryRepository creates a new PostgreSQL category repository.
func NewPgCategoryRepository(db DBTX, tx TxCoordinator) *PgCategoryRepository {
	return &PgCategoryRepository{db: db, tx: tx}
}

// List returns all categories ordered by name.
func (r *PgCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetByID returns one category.
func (r *PgCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`

	var c domain.Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("category", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}

	return &c, nil
}

// Create inserts a category.
func (r *PgCategoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at`

	var c domain.Category
	err := r.db.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("category", fmt.Sprintf("category %q already exists", name), "CATEGORY_EXISTS")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &c, nil
}

// Update renames a category.
func (r *PgCategoryRepository) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	query := `
		UPDATE categories
		SET name = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, name, created_at, updated_at`

	var c domain.Category
	err := r.db.QueryRow(ctx, query, name, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("category", strconv.FormatInt(id, 10))
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("category", fmt.Sprintf("category %q already exists", name), "CATEGORY_EXISTS")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return &c, nil
}

// Delete removes a category. The in-use check and the delete run in one
// transaction so a recipe cannot slip in between them.
func (r *PgCategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		var inUse int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM recipes WHERE category_id = $1`, id).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to check category usage: %w", err)
		}
		if inUse > 0 {
			return domain.NewConflictError("category",
				fmt.Sprintf("category is referenced by %d recipe(s)", inUse), "CATEGORY_IN_USE")
		}

		tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return domain.NewConflictError("category", "category is referenced by recipes", "CATEGORY_IN_USE")
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("category", strconv.FormatInt(id, 10))
		}
		return nil
	})
}
