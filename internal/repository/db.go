// Package repository is the database access layer. Queries wraps a
// database/sql handle (the pgx stdlib driver) and exposes one method per
// query, with param and row structs per query. Services convert rows to
// domain types; nothing above this package writes SQL.
package repository

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries can run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New creates a Queries bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the database handle all query methods run against.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
