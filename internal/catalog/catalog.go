// Package catalog implements the book store: validated writes to the
// database and cache-first reads with database fallback.
package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/schema"
)

// Store implements core.Catalog over a database and an optional read
// cache. A nil cache disables caching; every read then goes to the
// database.
type Store struct {
	db    core.Database
	cache *CacheHandler
}

// NewStore creates a catalog store. cache may be nil.
func NewStore(db core.Database, cache *CacheHandler) *Store {
	return &Store{db: db, cache: cache}
}

// Add inserts a new book. The unique index on isbn rejects duplicates;
// the database layer surfaces that as core.ErrDuplicateISBN.
func (s *Store) Add(ctx context.Context, book core.Book) error {
	query, args, err := schema.BuildInsert(book)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert book %s: %w", book.ISBN, err)
	}

	if s.cache != nil {
		go func() {
			if err := s.cache.Put(context.Background(), book); err != nil {
				log.Printf("[CATALOG] cache populate for %s failed: %v", book.ISBN, err)
			}
		}()
	}
	return nil
}

// GetByISBN retrieves a book by ISBN, cache first.
func (s *Store) GetByISBN(ctx context.Context, isbn string) (core.Book, error) {
	if s.cache != nil {
		if book, err := s.cache.Get(ctx, isbn); err == nil {
			return book, nil
		}
	}

	book, err := s.queryOne(ctx, core.ColumnISBN, isbn)
	if err != nil {
		return core.Book{}, err
	}

	if s.cache != nil {
		go func() {
			if err := s.cache.Put(context.Background(), book); err != nil {
				log.Printf("[CATALOG] cache populate for %s failed: %v", book.ISBN, err)
			}
		}()
	}
	return book, nil
}

// FindByField retrieves the first book where column = value. Reads go
// straight to the database; only ISBN lookups are cacheable.
func (s *Store) FindByField(ctx context.Context, column, value string) (core.Book, error) {
	return s.queryOne(ctx, column, value)
}

// ListByAuthor returns every book by the given author. The schema does
// not deduplicate title/author pairs, so repeated entries come back as
// distinct books.
func (s *Store) ListByAuthor(ctx context.Context, author string) ([]core.Book, error) {
	query, args, err := schema.BuildSelect(core.ColumnAuthor, author)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books by author: %w", err)
	}
	defer rows.Close()

	var books []core.Book
	for rows.Next() {
		book, err := schema.ScanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return books, nil
}

// Update applies a partial update to the book with the given ISBN. The
// cached entry for the old ISBN is invalidated, and for an ISBN change
// the new key as well in case a stale value is present.
func (s *Store) Update(ctx context.Context, isbn string, updates map[string]string) error {
	query, args, err := schema.BuildUpdate(isbn, updates)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update book %s: %w", isbn, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrBookNotFound, isbn)
	}

	s.invalidate(ctx, isbn)
	if newISBN, ok := updates[core.ColumnISBN]; ok && newISBN != isbn {
		s.invalidate(ctx, newISBN)
	}
	return nil
}

// Remove deletes the book with the given ISBN.
func (s *Store) Remove(ctx context.Context, isbn string) error {
	query, args, err := schema.BuildDelete(isbn)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete book %s: %w", isbn, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrBookNotFound, isbn)
	}

	s.invalidate(ctx, isbn)
	return nil
}

// queryOne runs a single-row select and maps an empty result onto
// core.ErrBookNotFound.
func (s *Store) queryOne(ctx context.Context, column, value string) (core.Book, error) {
	query, args, err := schema.BuildSelect(column, value)
	if err != nil {
		return core.Book{}, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return core.Book{}, fmt.Errorf("failed to query book: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Book{}, fmt.Errorf("row iteration error: %w", err)
		}
		return core.Book{}, fmt.Errorf("%w: %s=%s", core.ErrBookNotFound, column, value)
	}

	book, err := schema.ScanBook(rows)
	if err != nil {
		return core.Book{}, fmt.Errorf("failed to scan row: %w", err)
	}
	return book, nil
}

func (s *Store) invalidate(ctx context.Context, isbn string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, isbn); err != nil {
		log.Printf("[CATALOG] cache invalidate for %s failed: %v", isbn, err)
	}
}
