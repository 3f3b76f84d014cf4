package database

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
)

func newTestExecutor(t *testing.T, cfg ExecutorConfig) (*Executor, pgxmock.PgxPoolIface, *[]time.Duration) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	exec := NewExecutor(mock, cfg, zerolog.New(io.Discard), nil)
	var delays []time.Duration
	exec.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return exec, mock, &delays
}

func TestExecutorRetriesTransientThenSucceeds(t *testing.T) {
	exec, mock, delays := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})

	transient := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	mock.ExpectExec("UPDATE recipes").WithArgs("Omelette", int64(1)).WillReturnError(transient)
	mock.ExpectExec("UPDATE recipes").WithArgs("Omelette", int64(1)).WillReturnError(transient)
	mock.ExpectExec("UPDATE recipes").WithArgs("Omelette", int64(1)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tag, err := exec.Exec(context.Background(), "UPDATE recipes SET title = $1 WHERE id = $2", "Omelette", int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.RowsAffected())

	// Exactly two backoff delays, doubling from the base.
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutorDoesNotRetryPermanentErrors(t *testing.T) {
	exec, mock, delays := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})

	// Unique violation is permanent for the given input.
	mock.ExpectExec("INSERT INTO tags").
		WithArgs("vegan").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	_, err := exec.Exec(context.Background(), "INSERT INTO tags (name) VALUES ($1)", "vegan")
	require.Error(t, err)
	assert.Empty(t, *delays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutorExhaustsRetries(t *testing.T) {
	exec, mock, delays := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})

	transient := &pgconn.PgError{Code: "57P03", Message: "cannot connect now"}
	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT id, name FROM categories").WillReturnError(transient)
	}

	_, err := exec.Query(context.Background(), "SELECT id, name FROM categories ORDER BY name")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	// The driver error stays reachable through the wrapper.
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "57P03", pgErr.Code)
	assert.Len(t, *delays, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutorStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	exec, mock, _ := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})
	exec.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	transient := &pgconn.PgError{Code: "08003"}
	mock.ExpectExec("DELETE FROM recipes").WithArgs(int64(9)).WillReturnError(transient)

	_, err := exec.Exec(context.Background(), "DELETE FROM recipes WHERE id = $1", int64(9))
	require.Error(t, err)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutorQuerySuccess(t *testing.T) {
	exec, mock, delays := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})

	rows := pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Breakfast")
	mock.ExpectQuery("SELECT id, name FROM categories").WillReturnRows(rows)

	got, err := exec.Query(context.Background(), "SELECT id, name FROM categories")
	require.NoError(t, err)
	defer got.Close()

	require.True(t, got.Next())
	var id int64
	var name string
	require.NoError(t, got.Scan(&id, &name))
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Breakfast", name)
	assert.Empty(t, *delays)
}

func TestExecutorQueryRowPassesThrough(t *testing.T) {
	exec, mock, _ := newTestExecutor(t, ExecutorConfig{MaxRetries: 3, BaseDelay: time.Second})

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	var count int64
	err := exec.QueryRow(context.Background(), "SELECT COUNT(*) FROM recipes").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception", &pgconn.PgError{Code: "08000"}, true},
		{"connection does not exist", &pgconn.PgError{Code: "08003"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"crash shutdown", &pgconn.PgError{Code: "57P02"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"net timeout", &net.DNSError{IsTimeout: true}, true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestDefaultExecutorConfig(t *testing.T) {
	cfg := DefaultExecutorConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold)
}
