package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/schema"
)

// EnsureSchema applies the book DDL: the table with its three NOT NULL
// text columns and the unique index on isbn. Running it against an
// existing schema is a no-op; "already exists" errors from either
// statement are swallowed.
//
// The table intentionally declares no primary key. Row identity is the
// unique isbn index.
func EnsureSchema(ctx context.Context, db core.Database) error {
	s := schema.Book()

	if _, err := db.Exec(ctx, createTableStatement(s)); err != nil {
		if !isBenignDDLError(err) {
			return fmt.Errorf("failed to create table %s: %w", s.Table, err)
		}
	}

	for _, idx := range s.Indexes {
		if _, err := db.Exec(ctx, createIndexStatement(s, idx)); err != nil {
			if !isBenignDDLError(err) {
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
		}
	}

	log.Printf("[MIGRATE] schema ensured for table %s", s.Table)
	return nil
}

// EnsureSchemaStatements returns the DDL EnsureSchema executes, in
// order. Used by the import CLI's -print-ddl flag.
func EnsureSchemaStatements() []string {
	s := schema.Book()
	statements := []string{createTableStatement(s)}
	for _, idx := range s.Indexes {
		statements = append(statements, createIndexStatement(s, idx))
	}
	return statements
}

// createTableStatement renders the CREATE TABLE DDL from the schema.
func createTableStatement(s *schema.Schema) string {
	defs := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		def := fmt.Sprintf("%s %s", col.Name, col.Type)
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table, strings.Join(defs, ", "))
}

// createIndexStatement renders the CREATE INDEX DDL for one index.
// MySQL has no CREATE INDEX IF NOT EXISTS; the caller tolerates the
// duplicate-key-name error instead.
func createIndexStatement(s *schema.Schema, idx schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, idx.Name, s.Table, strings.Join(idx.Columns, ", "))
}
