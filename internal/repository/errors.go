package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgreSQL error codes the repositories classify.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqUndefinedTable      = "42P01"
)

var (
	// ErrUniqueViolation marks a write rejected by a unique index.
	ErrUniqueViolation = errors.New("unique constraint violated")
	// ErrStoreUnavailable marks a write against storage that does not exist.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrReferenceMissing marks a write pointing at a row that does not exist.
	ErrReferenceMissing = errors.New("referenced row missing")
)

// IsUniqueViolation reports whether err was caused by a unique index.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsStoreUnavailable reports whether err was caused by missing storage.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrUniqueViolation, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrReferenceMissing, pqErr.Constraint)
		case pqUndefinedTable:
			return fmt.Errorf("%s: %w (%s)", op, ErrStoreUnavailable, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
