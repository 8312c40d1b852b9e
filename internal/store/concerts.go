package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gigjournal/internal/models"
)

const concertSelect = `
	SELECT
		c.id, c.date, c.venue, c.city, c.rating, c.notes,
		c.user_profile_id, c.created_at, c.updated_at,
		u.id, u.email, u.display_name, u.created_at
	FROM concerts c
	INNER JOIN user_profiles u ON u.id = c.user_profile_id
`

// ListConcerts returns concerts newest first, each with its owner and artists.
func (s *Store) ListConcerts(ctx context.Context, filter models.ConcertFilter) ([]models.Concert, error) {
	query := concertSelect
	var args []any
	if filter.UserProfileID != "" {
		query += ` WHERE c.user_profile_id = $1`
		args = append(args, filter.UserProfileID)
	}
	query += ` ORDER BY c.date DESC, c.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select concerts: %w", err)
	}
	defer rows.Close()

	concerts := []models.Concert{}
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, err
		}
		concerts = append(concerts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concerts: %w", err)
	}

	if err := attachConcertArtists(ctx, s.db, concerts); err != nil {
		return nil, err
	}
	return concerts, nil
}

// GetConcert loads a single concert with its owner and artists.
func (s *Store) GetConcert(ctx context.Context, id int64) (models.Concert, error) {
	row := s.db.QueryRowContext(ctx, concertSelect+` WHERE c.id = $1`, id)
	c, err := scanConcert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Concert{}, ErrConcertNotFound
		}
		return models.Concert{}, err
	}

	concerts := []models.Concert{c}
	if err := attachConcertArtists(ctx, s.db, concerts); err != nil {
		return models.Concert{}, err
	}
	return concerts[0], nil
}

// CreateConcert inserts a concert and its artist links atomically.
func (s *Store) CreateConcert(ctx context.Context, concert models.Concert, links []models.ConcertArtist) (models.Concert, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO concerts (date, venue, city, rating, notes, user_profile_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, concert.Date, concert.Venue, concert.City, nullInt(concert.Rating), nullString(concert.Notes),
			concert.UserProfileID).Scan(&id); err != nil {
			return fmt.Errorf("insert concert: %w", err)
		}
		return insertConcertArtists(ctx, tx, id, links)
	})
	if err != nil {
		return models.Concert{}, err
	}
	return s.GetConcert(ctx, id)
}

// UpdateConcert rewrites a concert's fields. When replaceArtists is set the
// existing artist links are deleted and links inserted in the same transaction.
func (s *Store) UpdateConcert(ctx context.Context, concert models.Concert, links []models.ConcertArtist, replaceArtists bool) (models.Concert, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			UPDATE concerts
			SET date = $1, venue = $2, city = $3, rating = $4, notes = $5,
			    updated_at = NOW()
			WHERE id = $6
			RETURNING id
		`, concert.Date, concert.Venue, concert.City, nullInt(concert.Rating), nullString(concert.Notes),
			concert.ID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrConcertNotFound
			}
			return fmt.Errorf("update concert: %w", err)
		}

		if !replaceArtists {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM concert_artists WHERE concert_id = $1`, id); err != nil {
			return fmt.Errorf("delete concert artists: %w", err)
		}
		return insertConcertArtists(ctx, tx, id, links)
	})
	if err != nil {
		return models.Concert{}, err
	}
	return s.GetConcert(ctx, concert.ID)
}

// DeleteConcert removes a concert and its artist links. Artists are kept.
func (s *Store) DeleteConcert(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM concert_artists WHERE concert_id = $1`, id); err != nil {
			return fmt.Errorf("delete concert artists: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM concerts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete concert: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("concert rows affected: %w", err)
		}
		if n == 0 {
			return ErrConcertNotFound
		}
		return nil
	})
}

func insertConcertArtists(ctx context.Context, tx *sql.Tx, concertID int64, links []models.ConcertArtist) error {
	for i, link := range links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO concert_artists (concert_id, artist_id, role, position)
			VALUES ($1, $2, $3, $4)
		`, concertID, link.ArtistID, link.Role, i); err != nil {
			return fmt.Errorf("insert concert artist %s: %w", link.ArtistID, err)
		}
	}
	return nil
}

func scanConcert(row rowScanner) (models.Concert, error) {
	var (
		c      models.Concert
		u      models.UserProfile
		rating sql.NullInt64
		notes  sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.Date, &c.Venue, &c.City, &rating, &notes,
		&c.UserProfileID, &c.CreatedAt, &c.UpdatedAt,
		&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt,
	); err != nil {
		return models.Concert{}, fmt.Errorf("scan concert: %w", err)
	}
	c.Rating = intPtr(rating)
	c.Notes = stringPtr(notes)
	c.UserProfile = &u
	c.Artists = []models.ConcertArtist{}
	return c, nil
}

// attachConcertArtists loads the artist links for every concert in two
// batched queries: links with artists, then the artists' genres.
func attachConcertArtists(ctx context.Context, q querier, concerts []models.Concert) error {
	if len(concerts) == 0 {
		return nil
	}

	ids := make([]int64, len(concerts))
	index := make(map[int64]int, len(concerts))
	for i := range concerts {
		ids[i] = concerts[i].ID
		index[concerts[i].ID] = i
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ca.concert_id, ca.artist_id, ca.role, a.name, a.image_url
		FROM concert_artists ca
		INNER JOIN artists a ON a.id = ca.artist_id
		WHERE ca.concert_id = ANY($1)
		ORDER BY ca.concert_id, ca.position ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("select concert artists: %w", err)
	}
	defer rows.Close()

	var (
		artists []models.Artist
		owners  []int64
	)
	for rows.Next() {
		var (
			concertID int64
			a         models.Artist
			role      string
			imageURL  sql.NullString
		)
		if err := rows.Scan(&concertID, &a.ID, &role, &a.Name, &imageURL); err != nil {
			return fmt.Errorf("scan concert artist: %w", err)
		}
		a.ImageURL = stringPtr(imageURL)
		artists = append(artists, a)
		owners = append(owners, concertID)

		i := index[concertID]
		concerts[i].Artists = append(concerts[i].Artists, models.ConcertArtist{
			ConcertID: concertID,
			ArtistID:  a.ID,
			Role:      role,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate concert artists: %w", err)
	}
	rows.Close()

	if err := attachGenres(ctx, q, artists); err != nil {
		return err
	}

	// Links were appended in row order, so walk them again in the same order.
	next := make(map[int64]int, len(concerts))
	for k, concertID := range owners {
		i := index[concertID]
		artist := artists[k]
		concerts[i].Artists[next[concertID]].Artist = &artist
		next[concertID]++
	}
	return nil
}
