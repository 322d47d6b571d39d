package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can match either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-index violation.
var ErrDuplicate = errors.New("duplicate")

// ErrLimitReached is returned by ReserveUsage when the counter is already at
// its quota or the record is retired.
var ErrLimitReached = errors.New("usage limit reached")

// isUniqueViolation recognizes unique-key errors across dialects. The pure-Go
// SQLite driver reports them as plain text; Postgres uses SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value") ||
		strings.Contains(low, "sqlstate 23505")
}
