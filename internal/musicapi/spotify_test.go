package musicapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gigjournal/internal/apperr"
)

type stubTokens struct {
	token     string
	refreshed string
	refreshes int
	err       error
}

func (s *stubTokens) GetValidToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func (s *stubTokens) Refresh(ctx context.Context) (string, error) {
	s.refreshes++
	return s.refreshed, s.err
}

const queenResponse = `{
	"artists": {
		"items": [{
			"id": "1dfeR4HaWDbWqFHLkxsg1d",
			"name": "Queen",
			"genres": ["classic rock", "glam rock", "rock"],
			"popularity": 83,
			"images": [{"url": "https://i.scdn.co/queen-640.jpg", "height": 640, "width": 640}],
			"external_urls": {"spotify": "https://open.spotify.com/artist/1dfeR4HaWDbWqFHLkxsg1d"}
		}]
	}
}`

func newSearchServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchArtist(t *testing.T) {
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Queen" || q.Get("type") != "artist" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(queenResponse))
	})

	client := NewSpotifyClient(&stubTokens{token: "tok"}, Config{APIURL: srv.URL + "/v1/"})
	artist, err := client.SearchArtist(context.Background(), "Queen")
	if err != nil {
		t.Fatalf("SearchArtist error: %v", err)
	}
	if artist.ExternalID != "1dfeR4HaWDbWqFHLkxsg1d" || artist.Name != "Queen" {
		t.Fatalf("unexpected artist: %#v", artist)
	}
	if artist.ImageURL != "https://i.scdn.co/queen-640.jpg" {
		t.Errorf("ImageURL = %q", artist.ImageURL)
	}
	if len(artist.Genres) != 3 || artist.Genres[2] != "rock" {
		t.Errorf("Genres = %v", artist.Genres)
	}
}

func TestSearchArtistRetriesOnceAfter401(t *testing.T) {
	calls := 0
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(queenResponse))
	})

	tokens := &stubTokens{token: "stale", refreshed: "fresh"}
	client := NewSpotifyClient(tokens, Config{APIURL: srv.URL})
	artist, err := client.SearchArtist(context.Background(), "Queen")
	if err != nil {
		t.Fatalf("SearchArtist error: %v", err)
	}
	if artist.Name != "Queen" || tokens.refreshes != 1 || calls != 2 {
		t.Fatalf("artist=%q refreshes=%d calls=%d", artist.Name, tokens.refreshes, calls)
	}
}

func TestSearchArtistGivesUpAfterSecond401(t *testing.T) {
	calls := 0
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	tokens := &stubTokens{token: "stale", refreshed: "also-stale"}
	_, err := NewSpotifyClient(tokens, Config{APIURL: srv.URL}).SearchArtist(context.Background(), "Queen")
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if calls != 2 || tokens.refreshes != 1 {
		t.Fatalf("calls=%d refreshes=%d", calls, tokens.refreshes)
	}
}

func TestSearchArtistNoResults(t *testing.T) {
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"artists":{"items":[]}}`))
	})

	_, err := NewSpotifyClient(&stubTokens{token: "tok"}, Config{APIURL: srv.URL}).SearchArtist(context.Background(), "zzzz")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchArtistHitWithoutID(t *testing.T) {
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"artists":{"items":[{"id":"","name":"Ghost","genres":["rock"]}]}}`))
	})

	_, err := NewSpotifyClient(&stubTokens{token: "tok"}, Config{APIURL: srv.URL}).SearchArtist(context.Background(), "Ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchArtistNoResultsAfterRetry(t *testing.T) {
	calls := 0
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"artists":{"items":[]}}`))
	})

	_, err := NewSpotifyClient(&stubTokens{token: "a", refreshed: "b"}, Config{APIURL: srv.URL}).
		SearchArtist(context.Background(), "zzzz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchArtistServerError(t *testing.T) {
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	tokens := &stubTokens{token: "tok"}
	_, err := NewSpotifyClient(tokens, Config{APIURL: srv.URL}).SearchArtist(context.Background(), "Queen")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 status error, got %v", err)
	}
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if tokens.refreshes != 0 {
		t.Fatalf("non-401 failures must not refresh")
	}
}

func TestSearchArtistTransportFailure(t *testing.T) {
	srv := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	_, err := NewSpotifyClient(&stubTokens{token: "tok"}, Config{APIURL: url}).SearchArtist(context.Background(), "Queen")
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestSearchArtistTokenFailure(t *testing.T) {
	tokens := &stubTokens{err: ErrTokenRefresh}
	_, err := NewSpotifyClient(tokens, Config{APIURL: "http://unused"}).SearchArtist(context.Background(), "Queen")
	if !errors.Is(err, ErrTokenRefresh) {
		t.Fatalf("expected ErrTokenRefresh, got %v", err)
	}
}
