package core

// TableName is the name of the catalog's backing table.
const TableName = "book"

// Column names of the book table.
const (
	ColumnTitle  = "title"
	ColumnAuthor = "author"
	ColumnISBN   = "isbn"
)

// Book is a single catalog entry. All three fields are required; the
// database enforces NOT NULL on each column and uniqueness of ISBN
// through the book_isbn_idx index.
type Book struct {
	// Title is the book title.
	Title string `json:"title" yaml:"title"`

	// Author is the book author.
	Author string `json:"author" yaml:"author"`

	// ISBN identifies the book. No two rows may share an ISBN.
	ISBN string `json:"isbn" yaml:"isbn"`
}

// Columns returns the book column names in table order.
func Columns() []string {
	return []string{ColumnTitle, ColumnAuthor, ColumnISBN}
}

// Field returns the value of the named column, and whether the name is
// a known book column.
func (b Book) Field(column string) (string, bool) {
	switch column {
	case ColumnTitle:
		return b.Title, true
	case ColumnAuthor:
		return b.Author, true
	case ColumnISBN:
		return b.ISBN, true
	default:
		return "", false
	}
}
