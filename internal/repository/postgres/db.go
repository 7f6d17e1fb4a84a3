package postgres

import (
	"context"
	"database/sql"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// notDeleted is the soft-delete predicate. It is spelled out in every
// query that touches a soft-deletable table, rather than hidden behind
// an ambient hook, so the filtering stays visible and testable.
const notDeleted = "is_deleted = FALSE"

// uniqueViolation is the Postgres error code for unique constraint
// violations (pq.Error.Code).
const uniqueViolation = "23505"
