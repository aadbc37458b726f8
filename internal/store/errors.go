package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNoSourceFile indicates that no source file entry matched the query.
	ErrNoSourceFile = errors.New("no source file recorded")

	// ErrDuplicateRecord indicates that a call record insert was rejected by
	// the unique constraint on natural_key. This is the backstop for the
	// pre-insert duplicate check and the expected outcome of a race between
	// two writers.
	ErrDuplicateRecord = errors.New("call record already exists")

	// ErrProgressNotSaved indicates that a call record insert succeeded but
	// the progress update could not be committed with it. The transaction is
	// rolled back, so nothing was persisted; callers must treat this as
	// fatal because the resume guarantee cannot be upheld if progress writes
	// are failing.
	ErrProgressNotSaved = errors.New("ingestion progress not saved")
)

// uniqueViolationCode is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
