package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskstream/taskstream-api/internal/store"
)

// PostgreSQL error code for unique constraint violations.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}

// MapError translates a low-level database error into a store error,
// preserving the original error for unwrapping.
func MapError(entity, operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return store.NewStoreError(entity, operation, "unique constraint violation",
			fmt.Errorf("%w: %v", store.ErrDuplicate, err))
	}
	return store.NewStoreError(entity, operation, "database error", err)
}
