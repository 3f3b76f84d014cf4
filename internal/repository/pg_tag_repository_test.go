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

func newTagRepo(t *testing.T) (*PgTagRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgTagRepository(mock, &testTxCoordinator{pool: mock}), mock
}

func TestPgTagRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, mock := newTagRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, created_at FROM tags ORDER BY name").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(int64(7), "quick", now).
			AddRow(int64(8), "vegan", now))

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "quick", tags[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTagRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tag when found", func(t *testing.T) {
		repo, mock := newTagRepo(t)
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT id, name, created_at FROM tags WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow(int64(7), "quick", now))

		tag, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "quick", tag.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when missing", func(t *testing.T) {
		repo, mock := newTagRepo(t)

		mock.ExpectQuery(`SELECT id, name, created_at FROM tags WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		tag, err := repo.GetByID(ctx, 404)
		assert.Nil(t, tag)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgTagRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tag", func(t *testing.T) {
		repo, mock := newTagRepo(t)
		now := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO tags").
			WithArgs("vegan").
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow(int64(8), "vegan", now))

		tag, err := repo.Create(ctx, "vegan")
		require.NoError(t, err)
		assert.Equal(t, int64(8), tag.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to conflict", func(t *testing.T) {
		repo, mock := newTagRepo(t)

		mock.ExpectQuery("INSERT INTO tags").
			WithArgs("vegan").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "tags_name_key"})

		tag, err := repo.Create(ctx, "vegan")
		assert.Nil(t, tag)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "TAG_EXISTS", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgTagRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes unreferenced tag", func(t *testing.T) {
		repo, mock := newTagRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipe_tags WHERE tag_id = \$1`).
			WithArgs(int64(8)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectExec(`DELETE FROM tags WHERE id = \$1`).
			WithArgs(int64(8)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err := repo.Delete(ctx, 8)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocks delete while recipes reference the tag", func(t *testing.T) {
		repo, mock := newTagRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipe_tags WHERE tag_id = \$1`).
			WithArgs(int64(8)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))
		mock.ExpectRollback()

		err := repo.Delete(ctx, 8)
		var conflictErr *domain.ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.Equal(t, "TAG_IN_USE", conflictErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
