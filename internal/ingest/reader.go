package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hallimar/bookvault/internal/core"
)

// ReadCatalogFile parses a delimited book file. The first non-blank
// line is a header naming the columns; every following non-blank line
// is one book. Columns may appear in any order but all three must be
// present. Line numbers in errors are 1-based.
func ReadCatalogFile(path, separator string) ([]core.Book, error) {
	if separator == "" {
		separator = ";"
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	var columns []string
	var books []core.Book
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := splitFields(text, separator)

		if columns == nil {
			header, err := parseHeader(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			columns = header
			continue
		}

		if len(fields) != len(columns) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(columns), len(fields))
		}

		var book core.Book
		for i, col := range columns {
			value := fields[i]
			if value == "" {
				return nil, fmt.Errorf("line %d: %w", line, core.MissingColumnError(col))
			}
			switch col {
			case core.ColumnTitle:
				book.Title = value
			case core.ColumnAuthor:
				book.Author = value
			case core.ColumnISBN:
				book.ISBN = value
			}
		}
		books = append(books, book)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if columns == nil {
		return nil, fmt.Errorf("catalog file has no header line")
	}
	return books, nil
}

// parseHeader validates the header names exactly the book columns, in
// any order.
func parseHeader(fields []string) ([]string, error) {
	if len(fields) != len(core.Columns()) {
		return nil, fmt.Errorf("header must name %d columns, got %d", len(core.Columns()), len(fields))
	}

	seen := make(map[string]bool, len(fields))
	for _, name := range fields {
		switch name {
		case core.ColumnTitle, core.ColumnAuthor, core.ColumnISBN:
		default:
			return nil, core.UnknownColumnError(name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate header column: %s", name)
		}
		seen[name] = true
	}
	return fields, nil
}

func splitFields(text, separator string) []string {
	parts := strings.Split(text, separator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
