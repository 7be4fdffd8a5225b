// Package database provides the MySQL implementation of core.Database
// and translates engine constraint violations into the catalog's
// sentinel errors.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/hallimar/bookvault/internal/core"
)

// MySQLDatabase implements the core.Database interface using MySQL.
type MySQLDatabase struct {
	db     *sql.DB
	closed atomic.Bool
}

// Config holds the connection settings for NewMySQLDatabase.
type Config struct {
	Host              string
	Port              int
	Database          string
	Username          string
	Password          string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	ConnectionTimeout time.Duration
}

// NewMySQLDatabase opens a MySQL connection pool and verifies it with a
// ping before returning.
func NewMySQLDatabase(cfg Config) (*MySQLDatabase, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectionTimeout)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLDatabase{db: db}, nil
}

// Query executes a SELECT statement and returns rows.
func (m *MySQLDatabase) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	if m.closed.Load() {
		return nil, core.ErrClosed
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("[MYSQL] query failed: %v", err)
		return nil, fmt.Errorf("failed to execute query: %w", TranslateError(err))
	}
	return &mysqlRows{rows: rows}, nil
}

// Exec executes a non-query statement and returns a result.
func (m *MySQLDatabase) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	if m.closed.Load() {
		return nil, core.ErrClosed
	}
	result, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("[MYSQL] exec failed: %v", err)
		return nil, fmt.Errorf("failed to execute statement: %w", TranslateError(err))
	}
	return &mysqlResult{result: result}, nil
}

// BeginTx starts a new transaction.
func (m *MySQLDatabase) BeginTx(ctx context.Context) (core.Transaction, error) {
	if m.closed.Load() {
		return nil, core.ErrClosed
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &mysqlTransaction{tx: tx}, nil
}

// Close closes the connection pool.
func (m *MySQLDatabase) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.db.Close()
}

// mysqlRows wraps sql.Rows to implement core.Rows.
type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool {
	return r.rows.Next()
}

func (r *mysqlRows) Scan(dest ...interface{}) error {
	return r.rows.Scan(dest...)
}

func (r *mysqlRows) Close() error {
	return r.rows.Close()
}

func (r *mysqlRows) Err() error {
	return r.rows.Err()
}

// mysqlResult wraps sql.Result to implement core.Result.
type mysqlResult struct {
	result sql.Result
}

func (r *mysqlResult) LastInsertId() (int64, error) {
	return r.result.LastInsertId()
}

func (r *mysqlResult) RowsAffected() (int64, error) {
	return r.result.RowsAffected()
}

// mysqlTransaction wraps sql.Tx to implement core.Transaction.
type mysqlTransaction struct {
	tx *sql.Tx
}

func (t *mysqlTransaction) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, TranslateError(err)
	}
	return &mysqlRows{rows: rows}, nil
}

func (t *mysqlTransaction) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, TranslateError(err)
	}
	return &mysqlResult{result: result}, nil
}

func (t *mysqlTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *mysqlTransaction) Rollback() error {
	return t.tx.Rollback()
}
