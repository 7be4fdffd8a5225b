package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/hallimar/bookvault/internal/core"
)

// MySQL server error numbers the catalog cares about.
const (
	// mysqlErrDuplicateEntry is raised when an insert or update violates
	// a unique index (here: book_isbn_idx).
	mysqlErrDuplicateEntry = 1062

	// mysqlErrColumnCannotBeNull is raised when a NOT NULL column
	// receives NULL.
	mysqlErrColumnCannotBeNull = 1048

	// mysqlErrNoDefaultForField is raised when an insert omits a column
	// that has no default value.
	mysqlErrNoDefaultForField = 1364

	// mysqlErrDuplicateKeyName is raised by CREATE INDEX when the index
	// already exists. Treated as success by the migrator.
	mysqlErrDuplicateKeyName = 1061

	// mysqlErrTableExists is raised by CREATE TABLE when the table
	// already exists.
	mysqlErrTableExists = 1050
)

// TranslateError maps MySQL constraint violations onto the catalog's
// sentinel errors so callers can use errors.Is without importing the
// driver. Errors that do not correspond to a sentinel pass through
// unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return err
	}

	switch mysqlErr.Number {
	case mysqlErrDuplicateEntry:
		return fmt.Errorf("%w: %s", core.ErrDuplicateISBN, mysqlErr.Message)
	case mysqlErrColumnCannotBeNull, mysqlErrNoDefaultForField:
		return fmt.Errorf("%w: %s", core.ErrMissingColumn, mysqlErr.Message)
	default:
		return err
	}
}

// isBenignDDLError reports whether a DDL statement failed only because
// the object it creates already exists.
func isBenignDDLError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == mysqlErrDuplicateKeyName || mysqlErr.Number == mysqlErrTableExists
}
