package store

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql the stores actually query through.
// Both *sql.DB and *sql.Tx satisfy it, so a store can be built over a plain
// connection pool or over an open transaction without changing any query
// code.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
