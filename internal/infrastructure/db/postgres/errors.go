package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"secure-share-api/internal/domain/errs"
)

func pgCode(err error) (string, string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

func IsPgUniqueViolation(err error) bool {
	code, _, ok := pgCode(err)
	return ok && code == pgerrcode.UniqueViolation
}

func IsPgForeignKeyViolation(err error) bool {
	code, _, ok := pgCode(err)
	return ok && code == pgerrcode.ForeignKeyViolation
}

// ConstraintName returns the violated constraint, or "" when err is not a postgres error.
func ConstraintName(err error) string {
	_, name, _ := pgCode(err)
	return name
}

// UniqueViolation maps a unique violation to the error registered for its
// constraint. Constraints missing from known become errs.ErrConflict.
func UniqueViolation(err error, known map[string]error) error {
	name := ConstraintName(err)
	if mapped, ok := known[name]; ok {
		return mapped
	}
	return fmt.Errorf("%w: %s", errs.ErrConflict, name)
}
