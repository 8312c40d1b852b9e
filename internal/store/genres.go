package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gigjournal/internal/models"
)

// ListGenres returns every genre ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM genres
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select genres: %w", err)
	}
	defer rows.Close()

	genres := []models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return genres, nil
}

// GetGenre loads a genre together with the artists tagged with it.
func (s *Store) GetGenre(ctx context.Context, id int64) (models.GenreDetail, error) {
	var detail models.GenreDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM genres
		WHERE id = $1
	`, id).Scan(&detail.ID, &detail.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GenreDetail{}, ErrGenreNotFound
		}
		return models.GenreDetail{}, fmt.Errorf("select genre: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name
		FROM artist_genres ag
		INNER JOIN artists a ON a.id = ag.artist_id
		WHERE ag.genre_id = $1
		ORDER BY a.name ASC
	`, id)
	if err != nil {
		return models.GenreDetail{}, fmt.Errorf("select genre artists: %w", err)
	}
	defer rows.Close()

	detail.Artists = []models.ArtistRef{}
	for rows.Next() {
		var ref models.ArtistRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return models.GenreDetail{}, fmt.Errorf("scan genre artist: %w", err)
		}
		detail.Artists = append(detail.Artists, ref)
	}
	if err := rows.Err(); err != nil {
		return models.GenreDetail{}, fmt.Errorf("iterate genre artists: %w", err)
	}
	return detail, nil
}

// FindGenreByName matches a genre name case-insensitively.
func (s *Store) FindGenreByName(ctx context.Context, name string) (models.Genre, error) {
	var g models.Genre
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM genres
		WHERE LOWER(name) = LOWER($1)
		LIMIT 1
	`, name).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Genre{}, ErrGenreNotFound
		}
		return models.Genre{}, fmt.Errorf("find genre: %w", err)
	}
	return g, nil
}

// CreateGenre inserts a genre, storing its name lowercase.
func (s *Store) CreateGenre(ctx context.Context, name string) (models.Genre, error) {
	var g models.Genre
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO genres (name)
		VALUES (LOWER($1))
		RETURNING id, name
	`, name).Scan(&g.ID, &g.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Genre{}, ErrGenreExists
		}
		return models.Genre{}, fmt.Errorf("insert genre: %w", err)
	}
	return g, nil
}

// RenameGenre replaces a genre's name.
func (s *Store) RenameGenre(ctx context.Context, id int64, name string) (models.Genre, error) {
	var g models.Genre
	err := s.db.QueryRowContext(ctx, `
		UPDATE genres
		SET name = LOWER($1)
		WHERE id = $2
		RETURNING id, name
	`, name, id).Scan(&g.ID, &g.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Genre{}, ErrGenreNotFound
		case isUniqueViolation(err):
			return models.Genre{}, ErrGenreExists
		}
		return models.Genre{}, fmt.Errorf("update genre: %w", err)
	}
	return g, nil
}

// DeleteGenre removes a genre that no artist references.
func (s *Store) DeleteGenre(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `
			SELECT id
			FROM genres
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrGenreNotFound
			}
			return fmt.Errorf("lock genre: %w", err)
		}

		var links int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM artist_genres
			WHERE genre_id = $1
		`, id).Scan(&links); err != nil {
			return fmt.Errorf("count genre links: %w", err)
		}
		if links > 0 {
			return ErrGenreInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete genre: %w", err)
		}
		return nil
	})
}

// ArtistGenreExists reports whether the artist is already tagged with the genre.
func (s *Store) ArtistGenreExists(ctx context.Context, artistID string, genreID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM artist_genres
			WHERE artist_id = $1 AND genre_id = $2
		)
	`, artistID, genreID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check artist genre: %w", err)
	}
	return exists, nil
}

// LinkArtistGenre tags an artist with a genre. It reports false when the
// link was already present.
func (s *Store) LinkArtistGenre(ctx context.Context, artistID string, genreID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO artist_genres (artist_id, genre_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, artistID, genreID)
	if err != nil {
		return false, fmt.Errorf("insert artist genre: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("artist genre rows affected: %w", err)
	}
	return n == 1, nil
}
