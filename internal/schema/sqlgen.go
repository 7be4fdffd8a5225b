package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hallimar/bookvault/internal/core"
)

// BuildInsert builds a parameterized INSERT statement for a book.
// The book is validated first; a book with any empty column is
// rejected before touching the database.
func BuildInsert(book core.Book) (string, []interface{}, error) {
	if err := Validate(book); err != nil {
		return "", nil, err
	}

	s := Book()
	columns := s.ColumnNames()
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, name := range columns {
		placeholders[i] = "?"
		value, _ := book.Field(name)
		args[i] = value
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

// BuildUpdate builds a parameterized UPDATE statement applying the
// given column updates to the row with the given isbn. The SET clause
// lists columns in a stable order so generated statements are
// deterministic.
func BuildUpdate(isbn string, updates map[string]string) (string, []interface{}, error) {
	if isbn == "" {
		return "", nil, core.MissingColumnError(core.ColumnISBN)
	}
	if err := ValidateUpdates(updates); err != nil {
		return "", nil, err
	}

	columns := make([]string, 0, len(updates))
	for name := range updates {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	setParts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, name := range columns {
		setParts = append(setParts, name+" = ?")
		args = append(args, updates[name])
	}
	args = append(args, isbn)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		core.TableName,
		strings.Join(setParts, ", "),
		core.ColumnISBN,
	)
	return query, args, nil
}

// BuildSelect builds a parameterized SELECT of all book columns
// filtered by column = value.
func BuildSelect(column, value string) (string, []interface{}, error) {
	s := Book()
	if !s.HasColumn(column) {
		return "", nil, core.UnknownColumnError(column)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?",
		strings.Join(s.ColumnNames(), ", "),
		s.Table,
		column,
	)
	return query, []interface{}{value}, nil
}

// BuildDelete builds a parameterized DELETE by isbn.
func BuildDelete(isbn string) (string, []interface{}, error) {
	if isbn == "" {
		return "", nil, core.MissingColumnError(core.ColumnISBN)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", core.TableName, core.ColumnISBN)
	return query, []interface{}{isbn}, nil
}
