// Package repository provides data access interfaces and implementations
// for the recipe catalog service.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL implementations
// following the repository pattern to abstract data persistence from business logic.
//
// # Repository Interfaces
//
// The package provides the following repository interfaces:
//
//   - RecipeRepository: Manages recipes together with their ingredient and tag associations
//   - CategoryRepository: Manages the category reference data
//   - IngredientRepository: Manages the ingredient reference data
//   - TagRepository: Manages the tag reference data
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple goroutines.
// The underlying pgxpool handles connection pooling and synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Wrap database errors with context using fmt.Errorf with %w verb.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrConflict: Unique constraint violation or delete blocked by references
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Read paths go through the injected DBTX (normally the retrying Executor).
// Multi-statement mutations run inside a transaction obtained from the
// injected TxCoordinator; every statement of the unit of work is issued
// through the transaction's connection.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// This allows repositories to work with direct pool connections, the retrying
// Executor, and transactions.
type DBTX = database.DBTX

// TxCoordinator runs a unit of work inside one database transaction,
// committing on success and rolling back on error or panic. *database.DB
// satisfies it.
type TxCoordinator interface {
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
)
