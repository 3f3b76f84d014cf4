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

var _ TagRepository = (*PgTagRepository)(nil)

// PgTagRepository is a PostgreSQL implementation of TagRepository.
type PgTagRepository struct {
	db DBTX
	tx TxCoordinator
}

// NewPgTagRepository creates a new PostgreSQL tag repository.
func NewPgTagRepository(db DBTX, tx TxCoordinator) *PgTagRepository {
	return &PgTagRepository{db: db, tx: tx}
}

// List returns all tags ordered by name.
func (r *PgTagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	query := `SELECT id, name, created_at FROM tags ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// GetByID returns one tag.
func (r *PgTagRepository) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	query := `SELECT id, name, created_at FROM tags WHERE id = $1`

	var t domain.Tag
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("tag", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get tag by ID: %w", err)
	}

	return &t, nil
}

// Create inserts a tag.
func (r *PgTagRepository) Create(ctx context.Context, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	query := `
		INSERT INTO tags (name)
		VALUES ($1)
		RETURNING id, name, created_at`

	var t domain.Tag
	err := r.db.QueryRow(ctx, query, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("tag", fmt.Sprintf("tag %q already exists", name), "TAG_EXISTS")
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return &t, nil
}

// Update renames a tag.
func (r *PgTagRepository) Update(ctx context.Context, id int64, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	query := `
		UPDATE tags
		SET name = $1
		WHERE id = $2
		RETURNING id, name, created_at`

	var t domain.Tag
	err := r.db.QueryRow(ctx, query, name, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("tag", strconv.FormatInt(id, 10))
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("tag", fmt.Sprintf("tag %q already exists", name), "TAG_EXISTS")
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	return &t, nil
}

// Delete removes a tag. The in-use check and the delete run in one
// transaction.
func (r *PgTagRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		var inUse int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM recipe_tags WHERE tag_id = $1`, id).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to check tag usage: %w", err)
		}
		if inUse > 0 {
			return domain.NewConflictError("tag",
				fmt.Sprintf("tag is referenced by %d recipe(s)", inUse), "TAG_IN_USE")
		}

		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return domain.NewConflictError("tag", "tag is referenced by recipes", "TAG_IN_USE")
			}
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("tag", strconv.FormatInt(id, 10))
		}
		return nil
	})
}
