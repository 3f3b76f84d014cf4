package database

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/domain"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/observability"
)

// Transient PostgreSQL error codes eligible for retry (connection class and
// operator-intervention shutdowns).
var transientPgCodes = map[string]struct{}{
	"08000": {}, // connection_exception
	"08003": {}, // connection_does_not_exist
	"08006": {}, // connection_failure
	"57P01": {}, // admin_shutdown
	"57P02": {}, // crash_shutdown
	"57P03": {}, // cannot_connect_now
}

// IsTransient reports whether err is a connection-level failure expected to
// resolve shortly. Constraint, syntax, and type errors are permanent for the
// given statement and are never retried. Context cancellation is not
// transient: the caller has given up.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := transientPgCodes[pgErr.Code]
		return ok
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}

// ExecutorConfig holds retry and telemetry settings for an Executor.
type ExecutorConfig struct {
	// MaxRetries is the total number of attempts, including the first (minimum 1).
	MaxRetries int
	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration
	// SlowQueryThreshold marks statements slower than this for logging.
	// Zero disables slow-query logging.
	SlowQueryThreshold time.Duration
}

// DefaultExecutorConfig returns the standard retry policy: 3 attempts with
// exponential backoff starting at 1s.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxRetries:         3,
		BaseDelay:          time.Second,
		SlowQueryThreshold: 500 * time.Millisecond,
	}
}

// Executor wraps a DBTX with bounded retry for transient connection errors
// and per-statement telemetry. Statements must be safe to re-issue verbatim,
// which holds for the simple parameterized statements the repositories use.
//
// Only Exec and Query are retried: their errors surface eagerly. QueryRow
// defers errors to Scan and SendBatch to result reads, so both pass through.
type Executor struct {
	inner   DBTX
	cfg     ExecutorConfig
	logger  zerolog.Logger
	metrics *observability.Metrics

	// sleep is replaceable in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Compile-time check that *Executor implements DBTX.
var _ DBTX = (*Executor)(nil)

// NewExecutor wraps inner with the given retry policy. Metrics may be nil.
func NewExecutor(inner DBTX, cfg ExecutorConfig, logger zerolog.Logger, metrics *observability.Metrics) *Executor {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	return &Executor{
		inner:   inner,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Exec executes a statement, retrying transient failures.
func (e *Executor) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := e.withRetry(ctx, "exec", sql, func() error {
		var execErr error
		tag, execErr = e.inner.Exec(ctx, sql, args...)
		return execErr
	})
	return tag, err
}

// Query executes a query, retrying transient failures.
func (e *Executor) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	var rows pgx.Rows
	err := e.withRetry(ctx, "query", sql, func() error {
		var queryErr error
		rows, queryErr = e.inner.Query(ctx, sql, args...)
		return queryErr
	})
	return rows, err
}

// QueryRow executes a single-row query. Errors surface at Scan, so the call
// is timed but not retried.
func (e *Executor) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	start := time.Now()
	row := e.inner.QueryRow(ctx, sql, args...)
	e.observe("query_row", sql, time.Since(start), nil)
	return row
}

// SendBatch forwards a batch to the inner DBTX. Batch errors surface when
// results are read, so there is no retry.
func (e *Executor) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return e.inner.SendBatch(ctx, b)
}

// withRetry runs fn up to MaxRetries times, backing off exponentially after
// transient failures. An exhausted transient error is returned wrapped as
// domain.UnavailableError; permanent errors pass through unchanged.
func (e *Executor) withRetry(ctx context.Context, op, sql string, fn func() error) error {
	delay := e.cfg.BaseDelay
	var err error

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err = fn()
		e.observe(op, sql, time.Since(start), err)

		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt >= e.cfg.MaxRetries {
			return domain.NewUnavailableError(op, err)
		}

		if e.metrics != nil {
			e.metrics.RecordQueryRetry()
		}
		e.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("transient database error, retrying")

		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return err
		}
		delay *= 2
	}
}

// observe records duration/outcome telemetry and flags slow statements.
func (e *Executor) observe(op, sql string, elapsed time.Duration, err error) {
	if e.metrics != nil {
		e.metrics.RecordQuery(op, elapsed.Seconds())
		if err != nil {
			e.metrics.RecordQueryFailed(op)
		}
	}
	if e.cfg.SlowQueryThreshold > 0 && elapsed >= e.cfg.SlowQueryThreshold {
		if e.metrics != nil {
			e.metrics.RecordSlowQuery()
		}
		e.logger.Warn().
			Str("operation", op).
			Str("sql", sql).
			Dur("elapsed", elapsed).
			Msg("slow query")
	}
}
