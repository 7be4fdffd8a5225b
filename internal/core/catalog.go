package core

import "context"

// Catalog defines the interface for book storage operations.
// Reads are cache-first with database fallback; writes go to the
// database and keep the cache coherent.
type Catalog interface {
	// Add inserts a new book. The book must have all three columns set
	// and an ISBN not already present in the table.
	Add(ctx context.Context, book Book) error

	// GetByISBN retrieves a book by its ISBN.
	// Checks the cache first, then falls back to the database and
	// populates the cache on a hit.
	GetByISBN(ctx context.Context, isbn string) (Book, error)

	// FindByField retrieves the first book matching column = value.
	// The column must be one of title, author, isbn.
	FindByField(ctx context.Context, column, value string) (Book, error)

	// ListByAuthor returns all books by the given author.
	// Duplicate title/author pairs are allowed by the schema and are
	// returned as distinct entries.
	ListByAuthor(ctx context.Context, author string) ([]Book, error)

	// Update applies a partial update to the book with the given ISBN.
	// The updates map contains column name to new value; values must be
	// non-empty and columns must exist.
	Update(ctx context.Context, isbn string, updates map[string]string) error

	// Remove deletes the book with the given ISBN.
	Remove(ctx context.Context, isbn string) error
}
