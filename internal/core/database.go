package core

import "context"

// Database defines the interface for the persistent relational engine.
// Implementations wrap database/sql so the catalog and the import
// drainer never depend on a concrete driver.
type Database interface {
	// Query executes a SELECT statement and returns rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// Exec executes a non-query statement and returns a result.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// BeginTx starts a new transaction.
	BeginTx(ctx context.Context) (Transaction, error)

	// Close closes the underlying connection pool.
	Close() error
}

// Rows is the subset of sql.Rows the store needs.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Result is the subset of sql.Result the store needs.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Transaction wraps a database transaction. Batch imports execute all
// inserts of a batch inside one transaction.
type Transaction interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}
