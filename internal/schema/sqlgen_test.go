package schema_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/schema"
)

func TestBuildInsert(t *testing.T) {
	book := core.Book{Title: "Witcher", Author: "Andrzej Sapkowski", ISBN: "978-0316029186"}

	query, args, err := schema.BuildInsert(book)
	if err != nil {
		t.Fatalf("BuildInsert failed: %v", err)
	}

	wantQuery := "INSERT INTO book (title, author, isbn) VALUES (?, ?, ?)"
	if query != wantQuery {
		t.Errorf("expected query %q, got %q", wantQuery, query)
	}

	wantArgs := []interface{}{"Witcher", "Andrzej Sapkowski", "978-0316029186"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("expected args %v, got %v", wantArgs, args)
	}
}

func TestBuildInsertRejectsEmptyColumns(t *testing.T) {
	tests := []struct {
		name string
		book core.Book
	}{
		{"empty title", core.Book{Author: "A", ISBN: "1"}},
		{"empty author", core.Book{Title: "T", ISBN: "1"}},
		{"empty isbn", core.Book{Title: "T", Author: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := schema.BuildInsert(tt.book)
			if !errors.Is(err, core.ErrMissingColumn) {
				t.Fatalf("expected ErrMissingColumn, got %v", err)
			}
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	updates := map[string]string{
		"title":  "Witcher",
		"author": "Andy Sappy",
	}

	query, args, err := schema.BuildUpdate("978-0316029186", updates)
	if err != nil {
		t.Fatalf("BuildUpdate failed: %v", err)
	}

	// SET columns are sorted for deterministic output.
	wantQuery := "UPDATE book SET author = ?, title = ? WHERE isbn = ?"
	if query != wantQuery {
		t.Errorf("expected query %q, got %q", wantQuery, query)
	}

	wantArgs := []interface{}{"Andy Sappy", "Witcher", "978-0316029186"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("expected args %v, got %v", wantArgs, args)
	}
}

func TestBuildUpdateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		isbn    string
		updates map[string]string
		wantErr error
	}{
		{"empty isbn", "", map[string]string{"title": "T"}, core.ErrMissingColumn},
		{"empty updates", "1", nil, core.ErrMissingColumn},
		{"unknown column", "1", map[string]string{"publisher": "P"}, core.ErrUnknownColumn},
		{"blanking required column", "1", map[string]string{"title": ""}, core.ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := schema.BuildUpdate(tt.isbn, tt.updates)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildSelect(t *testing.T) {
	query, args, err := schema.BuildSelect("title", "Witcher")
	if err != nil {
		t.Fatalf("BuildSelect failed: %v", err)
	}

	wantQuery := "SELECT title, author, isbn FROM book WHERE title = ?"
	if query != wantQuery {
		t.Errorf("expected query %q, got %q", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "Witcher" {
		t.Errorf("expected args [Witcher], got %v", args)
	}
}

func TestBuildSelectRejectsUnknownColumn(t *testing.T) {
	_, _, err := schema.BuildSelect("publisher", "x")
	if !errors.Is(err, core.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestBuildDelete(t *testing.T) {
	query, args, err := schema.BuildDelete("978-0316029186")
	if err != nil {
		t.Fatalf("BuildDelete failed: %v", err)
	}

	wantQuery := "DELETE FROM book WHERE isbn = ?"
	if query != wantQuery {
		t.Errorf("expected query %q, got %q", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "978-0316029186" {
		t.Errorf("expected args [978-0316029186], got %v", args)
	}
}
