package musicapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
)

// refreshWindow is how close to expiry a cached token is still handed out.
const refreshWindow = 5 * time.Minute

// TokenStore persists the single cached token row.
type TokenStore interface {
	LoadSpotifyToken(ctx context.Context) (models.SpotifyToken, error)
	SaveSpotifyToken(ctx context.Context, tok models.SpotifyToken) error
}

// TokenCache keeps a client-credentials token in the database so every
// process shares it. There is no lock: concurrent refreshes each write
// their own token and the last upsert wins.
type TokenCache struct {
	store        TokenStore
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time
}

// NewTokenCache creates a TokenCache backed by store.
func NewTokenCache(store TokenStore, cfg Config) *TokenCache {
	return &TokenCache{
		store:        store,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		httpClient:   &http.Client{Timeout: cfg.timeout()},
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetValidToken returns the cached token unless it is missing or expires
// within five minutes, in which case a new one is requested.
func (c *TokenCache) GetValidToken(ctx context.Context) (string, error) {
	tok, err := c.store.LoadSpotifyToken(ctx)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			logging.WithContext(ctx).Warn().Err(err).Msg("Failed to load cached spotify token, refreshing")
		}
		return c.Refresh(ctx)
	}

	if tok.AccessToken == "" || !tok.ExpiresAt.After(c.now().Add(refreshWindow)) {
		return c.Refresh(ctx)
	}
	return tok.AccessToken, nil
}

// Refresh requests a new token from the accounts service and stores it.
func (c *TokenCache) Refresh(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("%w: client credentials not configured", ErrTokenRefresh)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrTokenRefresh, err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	requestedAt := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %w", ErrTokenRefresh, &StatusError{
			Op:         "token",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrTokenRefresh, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenRefresh)
	}

	tok := models.SpotifyToken{
		ID:          models.SpotifyTokenID,
		AccessToken: tr.AccessToken,
		ExpiresAt:   requestedAt.Add(time.Duration(tr.ExpiresIn) * time.Second),
		RequestedAt: requestedAt,
	}
	if err := c.store.SaveSpotifyToken(ctx, tok); err != nil {
		// The token is still good for this process.
		logging.WithContext(ctx).Error().Err(err).Msg("Failed to persist spotify token")
	}

	logging.WithContext(ctx).Debug().
		Time("expires_at", tok.ExpiresAt).
		Msg("Refreshed spotify token")
	return tok.AccessToken, nil
}
