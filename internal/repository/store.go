package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound reports that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a uniqueness violation.
	ErrConflict = errors.New("record conflict")
	// ErrStoreUnavailable wraps infrastructure failures; callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// DBTX is the subset of pgx used by the repositories. *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// storeError maps driver errors onto the repository error set.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case invalidTextRepresentation:
			// a malformed uuid can never match a row
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// HashToken computes the SHA-256 digest under which a token is registered.
// Raw tokens are never stored.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
