// Package schema defines the book table shape, its DDL, client-side
// validation of the NOT NULL constraints, and parameterized query
// construction for the catalog and the import pipeline.
package schema

import (
	"github.com/hallimar/bookvault/internal/core"
)

// Column describes a single column of the book table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the database type.
	Type string

	// Nullable indicates whether the column accepts NULL. All book
	// columns are NOT NULL.
	Nullable bool
}

// Index describes an index on the book table.
type Index struct {
	// Name is the index name.
	Name string

	// Columns are the indexed column names.
	Columns []string

	// Unique indicates whether the index enforces uniqueness.
	Unique bool
}

// Schema describes the book table.
type Schema struct {
	// Table is the table name.
	Table string

	// Columns are the column definitions in table order.
	Columns []Column

	// Indexes are the index definitions.
	Indexes []Index
}

// UniqueIndexName is the name of the unique index on isbn.
const UniqueIndexName = "book_isbn_idx"

// Book returns the static schema of the book table: three required text
// columns and a unique index on isbn. The table declares no primary
// key; rows are addressed through the unique isbn index.
func Book() *Schema {
	return &Schema{
		Table: core.TableName,
		Columns: []Column{
			{Name: core.ColumnTitle, Type: "VARCHAR(512)"},
			{Name: core.ColumnAuthor, Type: "VARCHAR(255)"},
			{Name: core.ColumnISBN, Type: "VARCHAR(32)"},
		},
		Indexes: []Index{
			{Name: UniqueIndexName, Columns: []string{core.ColumnISBN}, Unique: true},
		},
	}
}

// HasColumn reports whether the schema contains the named column.
func (s *Schema) HasColumn(name string) bool {
	for _, col := range s.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in table order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}
