package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gigjournal/internal/models"
)

// ListArtists returns every artist with its genres, ordered by name.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_url
		FROM artists
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select artists: %w", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}

	if err := attachGenres(ctx, s.db, artists); err != nil {
		return nil, err
	}
	return artists, nil
}

// GetArtist loads an artist by its Spotify id.
func (s *Store) GetArtist(ctx context.Context, id string) (models.Artist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_url
		FROM artists
		WHERE id = $1
	`, id)
	return s.loadArtist(ctx, row)
}

// FindArtistByName returns the first artist whose name contains name,
// ignoring case.
func (s *Store) FindArtistByName(ctx context.Context, name string) (models.Artist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_url
		FROM artists
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY name ASC, id ASC
		LIMIT 1
	`, escapeLike(name))
	return s.loadArtist(ctx, row)
}

func (s *Store) loadArtist(ctx context.Context, row *sql.Row) (models.Artist, error) {
	a, err := scanArtist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Artist{}, ErrArtistNotFound
		}
		return models.Artist{}, err
	}

	artists := []models.Artist{a}
	if err := attachGenres(ctx, s.db, artists); err != nil {
		return models.Artist{}, err
	}
	return artists[0], nil
}

// CreateArtist inserts an artist keyed by its Spotify id.
func (s *Store) CreateArtist(ctx context.Context, artist models.Artist) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (id, name, image_url)
		VALUES ($1, $2, $3)
	`, artist.ID, artist.Name, nullString(artist.ImageURL))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrArtistExists
		}
		return fmt.Errorf("insert artist: %w", err)
	}
	return nil
}

// DeleteArtist removes an artist that no concert references, along with
// its genre links.
func (s *Store) DeleteArtist(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx, `
			SELECT id
			FROM artists
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArtistNotFound
			}
			return fmt.Errorf("lock artist: %w", err)
		}

		var links int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM concert_artists
			WHERE artist_id = $1
		`, id).Scan(&links); err != nil {
			return fmt.Errorf("count concert links: %w", err)
		}
		if links > 0 {
			return ErrArtistInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM artist_genres WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("delete artist genres: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete artist: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(row rowScanner) (models.Artist, error) {
	var (
		a        models.Artist
		imageURL sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Name, &imageURL); err != nil {
		return models.Artist{}, fmt.Errorf("scan artist: %w", err)
	}
	a.ImageURL = stringPtr(imageURL)
	return a, nil
}

// attachGenres fills Genres on each artist with a single batched query.
func attachGenres(ctx context.Context, q querier, artists []models.Artist) error {
	if len(artists) == 0 {
		return nil
	}

	ids := make([]string, len(artists))
	index := make(map[string][]int, len(artists))
	for i := range artists {
		artists[i].Genres = []models.Genre{}
		ids[i] = artists[i].ID
		index[artists[i].ID] = append(index[artists[i].ID], i)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ag.artist_id, g.id, g.name
		FROM artist_genres ag
		INNER JOIN genres g ON g.id = ag.genre_id
		WHERE ag.artist_id = ANY($1)
		ORDER BY g.name ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("select artist genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			artistID string
			g        models.Genre
		)
		if err := rows.Scan(&artistID, &g.ID, &g.Name); err != nil {
			return fmt.Errorf("scan artist genre: %w", err)
		}
		for _, i := range index[artistID] {
			artists[i].Genres = append(artists[i].Genres, g)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate artist genres: %w", err)
	}
	return nil
}
