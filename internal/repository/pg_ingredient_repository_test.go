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
	"github.com/fodmapkitchen/recipe-catalog-service/internal/pagination"
)

func newIngredientRepo(t *testing.T) (*PgIngredientRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgIngredientRepository(mock, &testTxCoordinator{pool: mock}), mock
}

func ingredientRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "quantity_unit", "fodmap_level", "created_at", "updated_at"})
}

func TestPgIngredientRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("unfiltered listing pages through all ingredients", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)
		now := time.Now().UTC()
		low := domain.FodmapLevelLow

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ingredients`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
		mock.ExpectQuery(`(?s)FROM ingredients.*LIMIT \$1 OFFSET \$2`).
			WithArgs(10, 0).
			WillReturnRows(ingredientRows().
				AddRow(int64(2), "Butter", strPtr("g"), nil, now, now).
				AddRow(int64(1), "Egg", strPtr("piece"), &low, now, now))

		ingredients, total, err := repo.List(ctx, domain.IngredientFilter{}, pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, ingredients, 2)
		assert.Equal(t, "Butter", ingredients[0].Name)
		assert.Nil(t, ingredients[0].FodmapLevel)
		require.NotNil(t, ingredients[1].FodmapLevel)
		assert.Equal(t, domain.FodmapLevelLow, *ingredients[1].FodmapLevel)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search and level filters share the placeholder sequence", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)
		high := domain.FodmapLevelHigh

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ingredients WHERE name ILIKE \$1 AND fodmap_level = \$2`).
			WithArgs("%onion%", "HIGH").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(`(?s)FROM ingredients.*LIMIT \$3 OFFSET \$4`).
			WithArgs("%onion%", "HIGH", 10, 0).
			WillReturnRows(ingredientRows())

		_, total, err := repo.List(ctx, domain.IngredientFilter{Search: "onion", FodmapLevel: &high}, pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgIngredientRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ingredient when found", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)
		now := time.Now().UTC()
		low := domain.FodmapLevelLow

		mock.ExpectQuery(`SELECT id, name, quantity_unit, fodmap_level, created_at, updated_at FROM ingredients WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(ingredientRows().AddRow(int64(1), "Egg", strPtr("piece"), &low, now, now))

		ing, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Egg", ing.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)

		mock.ExpectQuery(`SELECT id, name, quantity_unit, fodmap_level, created_at, updated_at FROM ingredients WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		ing, err := repo.GetByID(ctx, 404)
		assert.Nil(t, ing)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgIngredientRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates ingredient with nullable fields", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)
		now := time.Now().UTC()
		low := domain.FodmapLevelLow

		mock.ExpectQuery("INSERT INTO ingredients").
			WithArgs("Egg", strPtr("piece"), &low).
			WillReturnRows(ingredientRows().AddRow(int64(1), "Egg", strPtr("piece"), &low, now, now))

		ing, err := repo.Create(ctx, "Egg", strPtr("piece"), &low)
		require.NoError(t, err)
		assert.Equal(t, int64(1), ing.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown fodmap level", func(t *testing.T) {
		repo, _ := newIngredientRepo(t)
		bogus := domain.FodmapLevel("EXTREME")

		ing, err := repo.Create(ctx, "Egg", nil, &bogus)
		assert.Nil(t, ing)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("maps unique violation to conflict", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)

		mock.ExpectQuery("INSERT INTO ingredients").
			WithArgs("Egg", (*string)(nil), (*domain.FodmapLevel)(nil)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ingredients_name_key"})

		ing, err := repo.Create(ctx, "Egg", nil, nil)
		assert.Nil(t, ing)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "INGREDIENT_EXISTS", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgIngredientRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites all fields", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)
		now := time.Now().UTC()
		moderate := domain.FodmapLevelModerate

		mock.ExpectQuery("UPDATE ingredients").
			WithArgs("Shallot", strPtr("g"), &moderate, int64(4)).
			WillReturnRows(ingredientRows().AddRow(int64(4), "Shallot", strPtr("g"), &moderate, now, now))

		ing, err := repo.Update(ctx, 4, "Shallot", strPtr("g"), &moderate)
		require.NoError(t, err)
		assert.Equal(t, "Shallot", ing.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)

		mock.ExpectQuery("UPDATE ingredients").
			WithArgs("Shallot", (*string)(nil), (*domain.FodmapLevel)(nil), int64(404)).
			WillReturnError(pgx.ErrNoRows)

		ing, err := repo.Update(ctx, 404, "Shallot", nil, nil)
		assert.Nil(t, ing)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgIngredientRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes unreferenced ingredient", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipe_ingredients WHERE ingredient_id = \$1`).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectExec(`DELETE FROM ingredients WHERE id = \$1`).
			WithArgs(int64(4)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err := repo.Delete(ctx, 4)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocks delete while recipes reference the ingredient", func(t *testing.T) {
		repo, mock := newIngredientRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipe_ingredients WHERE ingredient_id = \$1`).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
		mock.ExpectRollback()

		err := repo.Delete(ctx, 4)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "INGREDIENT_IN_USE", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
