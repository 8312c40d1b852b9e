package models

import "time"

// SpotifyTokenID is the key of the single cached token row.
const SpotifyTokenID = "main"

// SpotifyToken is the cached client-credentials access token.
type SpotifyToken struct {
	ID          string
	AccessToken string
	ExpiresAt   time.Time
	RequestedAt time.Time
}
