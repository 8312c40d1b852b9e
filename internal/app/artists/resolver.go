package artists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
	"gigjournal/internal/musicapi"
)

// Searcher looks artists up in the external catalogue.
type Searcher interface {
	SearchArtist(ctx context.Context, query string) (musicapi.Artist, error)
}

// ArtistStore is the persistence the Resolver needs.
type ArtistStore interface {
	FindArtistByName(ctx context.Context, name string) (models.Artist, error)
	GetArtist(ctx context.Context, id string) (models.Artist, error)
	CreateArtist(ctx context.Context, artist models.Artist) error
}

// Source records where a resolved artist came from.
type Source string

const (
	// SourceLocal means the name matched an artist already stored.
	SourceLocal Source = "local"
	// SourceExisting means Spotify returned an id that was already stored.
	SourceExisting Source = "existing"
	// SourceCreated means the artist was inserted from Spotify data.
	SourceCreated Source = "created"
)

// Resolution is the outcome of FindOrCreate.
type Resolution struct {
	Artist models.Artist `json:"artist"`
	Source Source        `json:"source"`
	Genres []LinkResult  `json:"genres,omitempty"`
}

// GenreFailures lists the genres that could not be linked.
func (r Resolution) GenreFailures() []string {
	var failed []string
	for _, g := range r.Genres {
		if g.Err != nil {
			failed = append(failed, g.Genre)
		}
	}
	return failed
}

// Resolver turns a free-text artist name into a stored artist.
type Resolver struct {
	store  ArtistStore
	search Searcher
	linker *Linker
}

// NewResolver creates a Resolver.
func NewResolver(store ArtistStore, search Searcher, linker *Linker) *Resolver {
	return &Resolver{store: store, search: search, linker: linker}
}

// FindOrCreate returns the first stored artist whose name contains name.
// Otherwise it searches Spotify and stores the top hit with its genres,
// unless that Spotify id is already stored.
func (r *Resolver) FindOrCreate(ctx context.Context, name string) (Resolution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolution{}, apperr.Invalid("name", "artist name is required")
	}

	local, err := r.store.FindArtistByName(ctx, name)
	if err == nil {
		return Resolution{Artist: local, Source: SourceLocal}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Resolution{}, fmt.Errorf("find artist %q: %w", name, err)
	}

	found, err := r.search.SearchArtist(ctx, name)
	if err != nil {
		return Resolution{}, err
	}

	existing, err := r.store.GetArtist(ctx, found.ExternalID)
	if err == nil {
		return Resolution{Artist: existing, Source: SourceExisting}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Resolution{}, fmt.Errorf("get artist %s: %w", found.ExternalID, err)
	}

	artist := models.Artist{ID: found.ExternalID, Name: found.Name}
	if found.ImageURL != "" {
		img := found.ImageURL
		artist.ImageURL = &img
	}
	if err := r.store.CreateArtist(ctx, artist); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			return Resolution{}, fmt.Errorf("create artist %s: %w", artist.ID, err)
		}
		// Lost a race with another request inserting the same id.
		existing, err := r.store.GetArtist(ctx, artist.ID)
		if err != nil {
			return Resolution{}, fmt.Errorf("reload artist %s: %w", artist.ID, err)
		}
		return Resolution{Artist: existing, Source: SourceExisting}, nil
	}

	results := make([]LinkResult, 0, len(found.Genres))
	for _, genre := range found.Genres {
		results = append(results, r.linker.Link(ctx, genre, artist.ID))
	}

	created, err := r.store.GetArtist(ctx, artist.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("reload artist %s: %w", artist.ID, err)
	}

	res := Resolution{Artist: created, Source: SourceCreated, Genres: results}
	logging.WithContext(ctx).Info().
		Str("artist_id", created.ID).
		Str("name", created.Name).
		Int("genres", len(results)).
		Strs("failed_genres", res.GenreFailures()).
		Msg("Created artist from Spotify")
	return res, nil
}
