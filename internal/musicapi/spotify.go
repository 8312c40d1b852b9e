package musicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gigjournal/internal/logging"
)

// SpotifyClient searches the Spotify catalogue for artists.
type SpotifyClient struct {
	tokens     TokenSource
	apiURL     string
	httpClient *http.Client
}

// NewSpotifyClient creates a search client that authenticates through tokens.
func NewSpotifyClient(tokens TokenSource, cfg Config) *SpotifyClient {
	return &SpotifyClient{
		tokens:     tokens,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
}

type spotifySearchResponse struct {
	Artists *spotifyArtistsPage `json:"artists,omitempty"`
}

type spotifyArtistsPage struct {
	Items []spotifyArtist `json:"items"`
}

type spotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SearchArtist returns the best match for query. A 401 refreshes the token
// and retries once.
func (c *SpotifyClient) SearchArtist(ctx context.Context, query string) (Artist, error) {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return Artist{}, err
	}

	artist, status, err := c.searchOnce(ctx, token, query)
	if status != http.StatusUnauthorized {
		return artist, err
	}

	logging.WithContext(ctx).Info().Msg("Spotify rejected access token, refreshing")
	token, err = c.tokens.Refresh(ctx)
	if err != nil {
		return Artist{}, err
	}
	artist, _, err = c.searchOnce(ctx, token, query)
	return artist, err
}

// searchOnce performs one search call and reports the HTTP status seen.
func (c *SpotifyClient) searchOnce(ctx context.Context, token, query string) (Artist, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Artist{}, 0, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Artist{}, 0, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Artist{}, resp.StatusCode, &StatusError{
			Op:         "search",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Artist{}, resp.StatusCode, &transportError{err: fmt.Errorf("decode search response: %w", err)}
	}
	if result.Artists == nil || len(result.Artists.Items) == 0 {
		return Artist{}, resp.StatusCode, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	// A hit without an id cannot be stored.
	if strings.TrimSpace(result.Artists.Items[0].ID) == "" {
		return Artist{}, resp.StatusCode, fmt.Errorf("%w: %q returned an artist without an id", ErrNotFound, query)
	}
	return convertArtist(result.Artists.Items[0]), resp.StatusCode, nil
}

func convertArtist(sa spotifyArtist) Artist {
	imageURL := ""
	if len(sa.Images) > 0 {
		imageURL = sa.Images[0].URL
	}

	genres := sa.Genres
	if genres == nil {
		genres = []string{}
	}

	return Artist{
		ExternalID: sa.ID,
		Name:       sa.Name,
		ImageURL:   imageURL,
		Genres:     genres,
	}
}
