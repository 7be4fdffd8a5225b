package bookvault

import (
	"context"

	"github.com/hallimar/bookvault/internal/catalog"
	"github.com/hallimar/bookvault/internal/core"
)

// Book is a single catalog entry. All three fields are required; the
// database enforces NOT NULL on each column and ISBN uniqueness.
type Book struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	ISBN   string `json:"isbn" yaml:"isbn"`
}

// Column names accepted by FindByField and Update.
const (
	ColumnTitle  = core.ColumnTitle
	ColumnAuthor = core.ColumnAuthor
	ColumnISBN   = core.ColumnISBN
)

// Sentinel errors. Compare with errors.Is.
var (
	// ErrBookNotFound is returned when no row matches the requested key.
	ErrBookNotFound = core.ErrBookNotFound

	// ErrDuplicateISBN is returned when an insert or update would
	// violate ISBN uniqueness.
	ErrDuplicateISBN = core.ErrDuplicateISBN

	// ErrMissingColumn is returned when a required column is empty.
	ErrMissingColumn = core.ErrMissingColumn

	// ErrUnknownColumn is returned for column names outside the book
	// table.
	ErrUnknownColumn = core.ErrUnknownColumn

	// ErrClosed is returned by operations on a closed client.
	ErrClosed = core.ErrClosed
)

// Catalog provides typed access to the book table: validated writes
// and cache-first reads.
type Catalog struct {
	store *catalog.Store
}

// Add inserts a new book.
func (c *Catalog) Add(ctx context.Context, book Book) error {
	return c.store.Add(ctx, toCore(book))
}

// GetByISBN retrieves a book by ISBN.
func (c *Catalog) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	book, err := c.store.GetByISBN(ctx, isbn)
	return fromCore(book), err
}

// FindByField retrieves the first book where column = value.
func (c *Catalog) FindByField(ctx context.Context, column, value string) (Book, error) {
	book, err := c.store.FindByField(ctx, column, value)
	return fromCore(book), err
}

// ListByAuthor returns every book by the given author.
func (c *Catalog) ListByAuthor(ctx context.Context, author string) ([]Book, error) {
	coreBooks, err := c.store.ListByAuthor(ctx, author)
	if err != nil {
		return nil, err
	}
	books := make([]Book, len(coreBooks))
	for i, b := range coreBooks {
		books[i] = fromCore(b)
	}
	return books, nil
}

// Update applies a partial update to the book with the given ISBN. The
// updates map contains column name to new value.
func (c *Catalog) Update(ctx context.Context, isbn string, updates map[string]string) error {
	return c.store.Update(ctx, isbn, updates)
}

// Remove deletes the book with the given ISBN.
func (c *Catalog) Remove(ctx context.Context, isbn string) error {
	return c.store.Remove(ctx, isbn)
}

func toCore(b Book) core.Book {
	return core.Book{Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}

func fromCore(b core.Book) Book {
	return Book{Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}
