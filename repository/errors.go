package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/bytebard/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const TextCodeConflict = "CONFLICT"

// pgUniqueViolation is the postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// IsConflict reports whether err was raised for a duplicate record.
func IsConflict(err error) bool {
	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeConflict
}

func mapError(err error, msg string, meta map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return auth.ErrNotFound.Clone().WithMetadata(meta)
	case isUniqueViolation(err):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "record already exists").
			WithTextCode(TextCodeConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(meta)
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
			WithCode(goerrors.CodeInternal).
			WithMetadata(meta)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
