package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odonto/odonto/internal/platform/apperr"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Translate maps pgx errors onto the apperr taxonomy: no rows becomes
// not-found for what, constraint violations become conflict or validation
// errors. Other errors are returned unchanged.
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Conflict(what + " already exists")
		case pgForeignKeyViolation:
			return apperr.Validation("%s references a missing record", what)
		case pgCheckViolation:
			return apperr.Validation("%s has an invalid value", what)
		}
	}
	return err
}

// Affected returns a not-found error for what when the command touched no rows.
func Affected(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return Translate(err, what)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(what)
	}
	return nil
}
