package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeNumericOutOfRange    = "22003"
)

// pgCode extracts the SQLSTATE from either driver's error type.
func pgCode(err error) (code, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// retryable wraps serialization failures and deadlocks with repository.ErrSerialization.
func retryable(err error) error {
	code, _, ok := pgCode(err)
	if ok && (code == codeSerializationFailure || code == codeDeadlockDetected) {
		return fmt.Errorf("%w: %w", repository.ErrSerialization, err)
	}
	return err
}

func isCode(err error, want string) bool {
	code, _, ok := pgCode(err)
	return ok && code == want
}
