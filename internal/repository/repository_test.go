package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

// testTxCoordinator drives transactions against a pgxmock pool so tests can
// assert Begin/Commit/Rollback alongside the statements issued inside.
type testTxCoordinator struct {
	pool pgxmock.PgxPoolIface
}

func (c *testTxCoordinator) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// strPtr and friends keep fixture construction terse.
func strPtr(s string) *string { return &s }

func int32Ptr(i int32) *int32 { return &i }

func int64Ptr(i int64) *int64 { return &i }
