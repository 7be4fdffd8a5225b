package schema

import (
	"encoding/json"
	"fmt"

	"github.com/hallimar/bookvault/internal/core"
)

// EncodeCacheValue serializes a book for storage in the cache backend.
// The value is JSON so cached entries stay inspectable with redis-cli.
func EncodeCacheValue(book core.Book) ([]byte, error) {
	if err := Validate(book); err != nil {
		return nil, err
	}
	value, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal book: %w", err)
	}
	return value, nil
}

// DecodeCacheValue deserializes a cached book value.
func DecodeCacheValue(value []byte) (core.Book, error) {
	var book core.Book
	if err := json.Unmarshal(value, &book); err != nil {
		return core.Book{}, fmt.Errorf("failed to unmarshal cached book: %w", err)
	}
	return book, nil
}

// ScanBook scans the current row of a result set into a Book.
// The query must select the book columns in table order
// (title, author, isbn), as BuildSelect does.
func ScanBook(rows core.Rows) (core.Book, error) {
	var book core.Book
	if err := rows.Scan(&book.Title, &book.Author, &book.ISBN); err != nil {
		return core.Book{}, fmt.Errorf("failed to scan book row: %w", err)
	}
	return book, nil
}
