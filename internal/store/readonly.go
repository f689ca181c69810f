package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReadOnly is returned for statements that are not a single read-only
// query. Prompt instructions already steer the generator toward SELECT, but
// the executor enforces it mechanically as well.
var ErrNotReadOnly = errors.New("statement must be a single read-only query")

// CheckReadOnly rejects anything that is not one bare SELECT (or WITH ...
// SELECT) statement.
func CheckReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("empty statement: %w", ErrNotReadOnly)
	}

	// A single trailing semicolon is tolerated; any other semicolon could
	// smuggle a second statement.
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple statements: %w", ErrNotReadOnly)
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return fmt.Errorf("empty statement: %w", ErrNotReadOnly)
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return nil
	}
	return fmt.Errorf("statement kind %q not allowed: %w", fields[0], ErrNotReadOnly)
}
