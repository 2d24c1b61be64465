package db

import "strings"

// IsUniqueViolation reports whether err is a unique constraint violation from
// either supported dialect. Postgres mentions the constraint name, sqlite the
// table.column pair, so constraintName matches a substring of either form.
// An empty constraintName accepts any unique violation.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
