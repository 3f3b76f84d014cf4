package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
)

func newCategoryRepo(t *testing.T) (*PgCategoryRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgCategoryRepository(mock, &testTxCoordinator{pool: mock}), mock
}

func TestPgCategoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, mock := newCategoryRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM categories ORDER BY name").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(int64(2), "Breakfast", now, now).
			AddRow(int64(1), "Dinner", now, now))

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Breakfast", categories[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCategoryRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns category when found", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT id, name, created_at, updated_at FROM categories WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
				AddRow(int64(1), "Dinner", now, now))

		c, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", c.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectQuery(`SELECT id, name, created_at, updated_at FROM categories WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		c, err := repo.GetByID(ctx, 404)
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCategoryRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates category", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)
		now := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("Dessert").
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
				AddRow(int64(5), "Dessert", now, now))

		c, err := repo.Create(ctx, "Dessert")
		require.NoError(t, err)
		assert.Equal(t, int64(5), c.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to conflict", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("Dessert").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_name_key"})

		c, err := repo.Create(ctx, "Dessert")
		assert.Nil(t, c)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "CATEGORY_EXISTS", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo, _ := newCategoryRepo(t)

		c, err := repo.Create(ctx, "")
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgCategoryRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("renames category", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)
		now := time.Now().UTC()

		mock.ExpectQuery("UPDATE categories").
			WithArgs("Brunch", int64(2)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
				AddRow(int64(2), "Brunch", now, now))

		c, err := repo.Update(ctx, 2, "Brunch")
		require.NoError(t, err)
		assert.Equal(t, "Brunch", c.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectQuery("UPDATE categories").
			WithArgs("Brunch", int64(404)).
			WillReturnError(pgx.ErrNoRows)

		c, err := repo.Update(ctx, 404, "Brunch")
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCategoryRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes unreferenced category", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes WHERE category_id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err := repo.Delete(ctx, 2)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocks delete while recipes reference the category", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes WHERE category_id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
		mock.ExpectRollback()

		err := repo.Delete(ctx, 2)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "CATEGORY_IN_USE", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes WHERE category_id = \$1`).
			WithArgs(int64(404)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()

		err := repo.Delete(ctx, 404)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
