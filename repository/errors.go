package repository

import (
	"errors"
	"fmt"
	"strings"

	"tapcoin/models"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

// isUniqueViolation reports whether err is a Postgres unique violation,
// optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// mapStoreError translates low-level Postgres failures into the domain error
// kinds callers are expected to match on. Contention aborts become
// ErrStoreConflict (retryable by the caller), connection-class failures become
// ErrStoreUnavailable. Anything else passes through untouched.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected:
			return fmt.Errorf("%w: %s", models.ErrStoreConflict, pgErr.Message)
		}
		// Class 08 covers connection exceptions
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %s", models.ErrStoreUnavailable, pgErr.Message)
		}
		return err
	}

	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	return err
}
