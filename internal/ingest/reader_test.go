package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hallimar/bookvault/internal/core"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCatalogFile(t *testing.T) {
	path := writeCatalogFile(t, `title;author;isbn
The Last Wish;Andrzej Sapkowski;978-0316029186
Sword of Destiny;Andrzej Sapkowski;978-0316389709
`)

	books, err := ReadCatalogFile(path, ";")
	if err != nil {
		t.Fatalf("ReadCatalogFile failed: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}

	want := core.Book{Title: "The Last Wish", Author: "Andrzej Sapkowski", ISBN: "978-0316029186"}
	if books[0] != want {
		t.Errorf("expected %+v, got %+v", want, books[0])
	}
}

func TestReadCatalogFileHeaderOrder(t *testing.T) {
	path := writeCatalogFile(t, `isbn;title;author
978-0316029186;The Last Wish;Andrzej Sapkowski
`)

	books, err := ReadCatalogFile(path, ";")
	if err != nil {
		t.Fatalf("ReadCatalogFile failed: %v", err)
	}
	if books[0].Title != "The Last Wish" || books[0].ISBN != "978-0316029186" {
		t.Errorf("columns not mapped by header: %+v", books[0])
	}
}

func TestReadCatalogFileSkipsBlankLines(t *testing.T) {
	path := writeCatalogFile(t, `title;author;isbn

The Last Wish;Andrzej Sapkowski;978-0316029186

`)

	books, err := ReadCatalogFile(path, ";")
	if err != nil {
		t.Fatalf("ReadCatalogFile failed: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}
}

func TestReadCatalogFileCustomSeparator(t *testing.T) {
	path := writeCatalogFile(t, "title|author|isbn\nThe Last Wish|Andrzej Sapkowski|978-0316029186\n")

	books, err := ReadCatalogFile(path, "|")
	if err != nil {
		t.Fatalf("ReadCatalogFile failed: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}
}

func TestReadCatalogFileRejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "short row",
			content: "title;author;isbn\nThe Last Wish;Andrzej Sapkowski\n",
			wantMsg: "expected 3 fields",
		},
		{
			name:    "empty field",
			content: "title;author;isbn\nThe Last Wish;;978-0316029186\n",
			wantMsg: "missing required column: author",
		},
		{
			name:    "unknown header column",
			content: "title;publisher;isbn\nx;y;z\n",
			wantMsg: "unknown column: publisher",
		},
		{
			name:    "duplicate header column",
			content: "title;title;isbn\nx;y;z\n",
			wantMsg: "duplicate header column",
		},
		{
			name:    "empty file",
			content: "",
			wantMsg: "no header line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalogFile(t, tt.content)
			_, err := ReadCatalogFile(path, ";")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestReadCatalogFileErrorsReportLineNumbers(t *testing.T) {
	path := writeCatalogFile(t, "title;author;isbn\nok;ok;1\nbad;row\n")

	_, err := ReadCatalogFile(path, ";")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error naming line 3, got %v", err)
	}
}

func TestReadCatalogFileMissingFile(t *testing.T) {
	_, err := ReadCatalogFile(filepath.Join(t.TempDir(), "absent.txt"), ";")
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
