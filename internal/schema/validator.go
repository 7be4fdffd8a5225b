package schema

import (
	"github.com/hallimar/bookvault/internal/core"
)

// Validate checks a book against the schema's NOT NULL constraints.
// It is a client-side mirror of the database constraints so malformed
// rows fail before reaching the engine; the database remains the
// authority.
func Validate(book core.Book) error {
	s := Book()
	for _, col := range s.Columns {
		value, _ := book.Field(col.Name)
		if value == "" && !col.Nullable {
			return core.MissingColumnError(col.Name)
		}
	}
	return nil
}

// ValidateUpdates checks a partial update map. Every referenced column
// must exist in the schema and every value must be non-empty, since all
// book columns are NOT NULL. Changing the isbn itself is allowed; a
// collision with another row surfaces as a unique-constraint violation
// from the database.
func ValidateUpdates(updates map[string]string) error {
	if len(updates) == 0 {
		return core.MissingColumnError("updates")
	}

	s := Book()
	for name, value := range updates {
		if !s.HasColumn(name) {
			return core.UnknownColumnError(name)
		}
		if value == "" {
			return core.MissingColumnError(name)
		}
	}
	return nil
}
