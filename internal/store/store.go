package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"gigjournal/internal/apperr"
)

var (
	// ErrGenreNotFound indicates the requested genre does not exist.
	ErrGenreNotFound = fmt.Errorf("genre %w", apperr.ErrNotFound)
	// ErrGenreExists signals a case-insensitive name clash.
	ErrGenreExists = fmt.Errorf("genre with this name already exists: %w", apperr.ErrConflict)
	// ErrGenreInUse blocks deleting a genre that artists still reference.
	ErrGenreInUse = fmt.Errorf("genre is associated with artists: %w", apperr.ErrConflict)

	// ErrArtistNotFound indicates the requested artist does not exist.
	ErrArtistNotFound = fmt.Errorf("artist %w", apperr.ErrNotFound)
	// ErrArtistExists signals the Spotify id is already stored.
	ErrArtistExists = fmt.Errorf("artist already exists: %w", apperr.ErrConflict)
	// ErrArtistInUse blocks deleting an artist linked to concerts.
	ErrArtistInUse = fmt.Errorf("artist is linked to concerts: %w", apperr.ErrConflict)

	// ErrConcertNotFound indicates the requested concert does not exist.
	ErrConcertNotFound = fmt.Errorf("concert %w", apperr.ErrNotFound)

	// ErrUserNotFound indicates no profile matched.
	ErrUserNotFound = fmt.Errorf("user profile %w", apperr.ErrNotFound)
	// ErrEmailTaken signals the email is already registered.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	// ErrSessionNotFound indicates the session was revoked or never existed.
	ErrSessionNotFound = fmt.Errorf("session %w", apperr.ErrNotFound)

	// ErrTokenNotFound means no Spotify token has been cached yet.
	ErrTokenNotFound = fmt.Errorf("spotify token %w", apperr.ErrNotFound)
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
