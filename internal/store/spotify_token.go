package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gigjournal/internal/models"
)

// LoadSpotifyToken reads the cached client-credentials token.
func (s *Store) LoadSpotifyToken(ctx context.Context) (models.SpotifyToken, error) {
	var tok models.SpotifyToken
	err := s.db.QueryRowContext(ctx, `
		SELECT id, access_token, expires_at, requested_at
		FROM spotify_tokens
		WHERE id = $1
	`, models.SpotifyTokenID).Scan(&tok.ID, &tok.AccessToken, &tok.ExpiresAt, &tok.RequestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SpotifyToken{}, ErrTokenNotFound
		}
		return models.SpotifyToken{}, fmt.Errorf("select spotify token: %w", err)
	}
	return tok, nil
}

// SaveSpotifyToken upserts the singleton token row. Concurrent writers
// simply overwrite each other.
func (s *Store) SaveSpotifyToken(ctx context.Context, tok models.SpotifyToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spotify_tokens (id, access_token, expires_at, requested_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    expires_at = EXCLUDED.expires_at,
		    requested_at = EXCLUDED.requested_at
	`, models.SpotifyTokenID, tok.AccessToken, tok.ExpiresAt, tok.RequestedAt)
	if err != nil {
		return fmt.Errorf("upsert spotify token: %w", err)
	}
	return nil
}
