package artists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
)

// GenreStore is the persistence the Linker needs.
type GenreStore interface {
	FindGenreByName(ctx context.Context, name string) (models.Genre, error)
	CreateGenre(ctx context.Context, name string) (models.Genre, error)
	ArtistGenreExists(ctx context.Context, artistID string, genreID int64) (bool, error)
	LinkArtistGenre(ctx context.Context, artistID string, genreID int64) (bool, error)
}

// LinkResult describes what happened to one genre of an artist.
type LinkResult struct {
	Genre        string `json:"genre"`
	GenreID      int64  `json:"genreId,omitempty"`
	GenreCreated bool   `json:"genreCreated"`
	Linked       bool   `json:"linked"`
	Err          error  `json:"-"`
}

// Linker attaches genres to artists, creating genres on first use.
type Linker struct {
	store GenreStore
}

// NewLinker creates a Linker.
func NewLinker(store GenreStore) *Linker {
	return &Linker{store: store}
}

// Link finds or creates genreName (case-insensitively) and links it to
// artistID unless the link already exists. Failures are logged and
// reported in the result; Link never aborts the caller.
func (l *Linker) Link(ctx context.Context, genreName, artistID string) LinkResult {
	name := strings.TrimSpace(genreName)
	result := LinkResult{Genre: name}
	logger := logging.WithContext(ctx).With().
		Str("artist_id", artistID).
		Str("genre", name).
		Logger()

	if name == "" {
		result.Err = apperr.Invalid("genre", "genre name is required")
		logger.Warn().Msg("Skipping empty genre name")
		return result
	}

	genre, created, err := l.findOrCreateGenre(ctx, name)
	if err != nil {
		result.Err = err
		logger.Error().Err(err).Msg("Failed to find or create genre")
		return result
	}
	result.GenreID = genre.ID
	result.GenreCreated = created

	exists, err := l.store.ArtistGenreExists(ctx, artistID, genre.ID)
	if err != nil {
		result.Err = fmt.Errorf("check artist genre: %w", err)
		logger.Error().Err(err).Msg("Failed to check artist genre link")
		return result
	}
	if exists {
		logger.Debug().Msg("Artist genre link already exists")
		return result
	}

	linked, err := l.store.LinkArtistGenre(ctx, artistID, genre.ID)
	if err != nil {
		result.Err = fmt.Errorf("link artist genre: %w", err)
		logger.Error().Err(err).Msg("Failed to link artist to genre")
		return result
	}
	result.Linked = linked

	logger.Debug().
		Int64("genre_id", genre.ID).
		Bool("genre_created", created).
		Bool("linked", linked).
		Msg("Linked artist to genre")
	return result
}

func (l *Linker) findOrCreateGenre(ctx context.Context, name string) (models.Genre, bool, error) {
	genre, err := l.store.FindGenreByName(ctx, name)
	if err == nil {
		return genre, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Genre{}, false, fmt.Errorf("find genre: %w", err)
	}

	genre, err = l.store.CreateGenre(ctx, name)
	if err == nil {
		return genre, true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return models.Genre{}, false, fmt.Errorf("create genre: %w", err)
	}

	// Someone else created it between the lookup and the insert.
	genre, err = l.store.FindGenreByName(ctx, name)
	if err != nil {
		return models.Genre{}, false, fmt.Errorf("reload genre: %w", err)
	}
	return genre, false, nil
}
