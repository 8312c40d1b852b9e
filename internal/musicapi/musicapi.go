// Package musicapi talks to the Spotify Web API: a database-backed
// client-credentials token cache and a single-artist search.
package musicapi

import (
	"context"
	"fmt"
	"time"

	"gigjournal/internal/apperr"
)

// Artist is the top search hit as returned by Spotify.
type Artist struct {
	ExternalID string
	Name       string
	ImageURL   string
	Genres     []string
}

var (
	// ErrNotFound means the search returned no artists.
	ErrNotFound = fmt.Errorf("no artist found on spotify: %w", apperr.ErrNotFound)
	// ErrTokenRefresh means a new access token could not be obtained.
	ErrTokenRefresh = fmt.Errorf("spotify token refresh failed: %w", apperr.ErrUpstreamUnavailable)
)

// StatusError reports an unexpected HTTP status from Spotify.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("spotify %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return apperr.ErrUpstreamUnavailable
}

// TokenSource hands out bearer tokens for API calls.
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Config holds the Spotify endpoints and credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	Timeout      time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

// transportError marks a failed or unreadable exchange with Spotify.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "spotify request failed: " + e.err.Error()
}

func (e *transportError) Unwrap() []error {
	return []error{e.err, apperr.ErrUpstreamUnavailable}
}
