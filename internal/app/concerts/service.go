package concerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gigjournal/internal/app/artists"
	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
)

// ErrNotOwner is returned when a user modifies someone else's concert.
var ErrNotOwner = fmt.Errorf("concert belongs to another user: %w", apperr.ErrForbidden)

// Store defines persistence operations for concerts.
type Store interface {
	ListConcerts(ctx context.Context, filter models.ConcertFilter) ([]models.Concert, error)
	GetConcert(ctx context.Context, id int64) (models.Concert, error)
	CreateConcert(ctx context.Context, concert models.Concert, links []models.ConcertArtist) (models.Concert, error)
	UpdateConcert(ctx context.Context, concert models.Concert, links []models.ConcertArtist, replaceArtists bool) (models.Concert, error)
	DeleteConcert(ctx context.Context, id int64) error
}

// ArtistResolver turns the artists named on a concert into stored artists.
type ArtistResolver interface {
	FindOrCreate(ctx context.Context, name string) (artists.Resolution, error)
	Get(ctx context.Context, id string) (models.Artist, error)
}

// ArtistInput names one performer of a concert. ArtistID, when set,
// refers to a stored artist and skips the name lookup.
type ArtistInput struct {
	Name     string
	ArtistID string
	Role     string
}

// Input carries the writable fields of a concert. A nil Artists slice on
// update leaves the existing lineup untouched.
type Input struct {
	Date    time.Time
	Venue   string
	City    string
	Rating  *int
	Notes   *string
	Artists []ArtistInput
}

// Options tunes the service.
type Options struct {
	// ResolveConcurrency bounds parallel artist lookups. 1 resolves in order.
	ResolveConcurrency int
}

// Service coordinates concert-related operations.
type Service interface {
	List(ctx context.Context, filter models.ConcertFilter) ([]models.Concert, error)
	Get(ctx context.Context, id int64) (models.Concert, error)
	Create(ctx context.Context, userID string, in Input) (models.Concert, error)
	Update(ctx context.Context, userID string, id int64, in Input) (models.Concert, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type service struct {
	store       Store
	artists     ArtistResolver
	concurrency int
}

// New constructs a concerts Service.
func New(store Store, resolver ArtistResolver, opts Options) Service {
	concurrency := opts.ResolveConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &service{
		store:       store,
		artists:     resolver,
		concurrency: concurrency,
	}
}

func (s *service) List(ctx context.Context, filter models.ConcertFilter) ([]models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListConcerts(ctx, filter)
}

func (s *service) Get(ctx context.Context, id int64) (models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return models.Concert{}, err
	}
	return s.store.GetConcert(ctx, id)
}

func (s *service) Create(ctx context.Context, userID string, in Input) (models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return models.Concert{}, err
	}
	if userID == "" {
		return models.Concert{}, apperr.ErrUnauthorized
	}

	in, err := normalize(in)
	if err != nil {
		return models.Concert{}, err
	}

	// Resolution talks to Spotify, so it happens before any write.
	links, err := s.resolveArtists(ctx, in.Artists)
	if err != nil {
		return models.Concert{}, err
	}

	created, err := s.store.CreateConcert(ctx, in.concert(0, userID), links)
	if err != nil {
		return models.Concert{}, err
	}

	logging.WithContext(ctx).Info().
		Int64("concert_id", created.ID).
		Int("artists", len(links)).
		Msg("Created concert")
	return created, nil
}

func (s *service) Update(ctx context.Context, userID string, id int64, in Input) (models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return models.Concert{}, err
	}

	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.Concert{}, err
	}

	in, err = normalize(in)
	if err != nil {
		return models.Concert{}, err
	}

	replace := in.Artists != nil
	var links []models.ConcertArtist
	if replace {
		if links, err = s.resolveArtists(ctx, in.Artists); err != nil {
			return models.Concert{}, err
		}
	}

	return s.store.UpdateConcert(ctx, in.concert(id, existing.UserProfileID), links, replace)
}

// Delete removes the concert and its lineup. Artists are kept.
func (s *service) Delete(ctx context.Context, userID string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteConcert(ctx, id)
}

func (s *service) owned(ctx context.Context, userID string, id int64) (models.Concert, error) {
	if userID == "" {
		return models.Concert{}, apperr.ErrUnauthorized
	}
	existing, err := s.store.GetConcert(ctx, id)
	if err != nil {
		return models.Concert{}, err
	}
	if existing.UserProfileID != userID {
		return models.Concert{}, ErrNotOwner
	}
	return existing, nil
}

// resolveArtists looks up every entry, at most s.concurrency at a time.
// The first failure cancels the rest and is returned. Links keep the
// order of entries.
func (s *service) resolveArtists(ctx context.Context, entries []ArtistInput) ([]models.ConcertArtist, error) {
	links := make([]models.ConcertArtist, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			artist, err := s.resolveOne(gctx, entry)
			if err != nil {
				return fmt.Errorf("resolve artists[%d]: %w", i, err)
			}
			links[i] = models.ConcertArtist{ArtistID: artist.ID, Role: entry.Role, Artist: &artist}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(links))
	for i, link := range links {
		if j, dup := seen[link.ArtistID]; dup {
			return nil, apperr.Invalid(
				fmt.Sprintf("artists[%d]", i),
				fmt.Sprintf("resolves to the same artist as artists[%d] (%s)", j, link.Artist.Name),
			)
		}
		seen[link.ArtistID] = i
	}
	return links, nil
}

func (s *service) resolveOne(ctx context.Context, entry ArtistInput) (models.Artist, error) {
	if entry.ArtistID != "" {
		return s.artists.Get(ctx, entry.ArtistID)
	}
	res, err := s.artists.FindOrCreate(ctx, entry.Name)
	if err != nil {
		return models.Artist{}, err
	}
	if failed := res.GenreFailures(); len(failed) > 0 {
		logging.WithContext(ctx).Warn().
			Str("artist_id", res.Artist.ID).
			Strs("genres", failed).
			Msg("Some genres could not be linked")
	}
	return res.Artist, nil
}

// normalize trims the text fields and checks the input.
func normalize(in Input) (Input, error) {
	in.Venue = strings.TrimSpace(in.Venue)
	in.City = strings.TrimSpace(in.City)
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		in.Notes = &notes
		if notes == "" {
			in.Notes = nil
		}
	}

	switch {
	case in.Date.IsZero():
		return in, apperr.Invalid("date", "date is required")
	case in.Venue == "":
		return in, apperr.Invalid("venue", "venue is required")
	case in.City == "":
		return in, apperr.Invalid("city", "city is required")
	case in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5):
		return in, apperr.Invalid("rating", "rating must be between 1 and 5")
	}

	if in.Artists == nil {
		return in, nil
	}
	entries := make([]ArtistInput, len(in.Artists))
	for i, a := range in.Artists {
		a.Name = strings.TrimSpace(a.Name)
		a.ArtistID = strings.TrimSpace(a.ArtistID)
		a.Role = strings.TrimSpace(a.Role)
		if a.Name == "" && a.ArtistID == "" {
			return in, apperr.Invalid(fmt.Sprintf("artists[%d].name", i), "artist name is required")
		}
		if a.Role == "" {
			return in, apperr.Invalid(fmt.Sprintf("artists[%d].role", i), "role is required")
		}
		entries[i] = a
	}
	in.Artists = entries
	return in, nil
}

func (in Input) concert(id int64, userID string) models.Concert {
	return models.Concert{
		ID:            id,
		Date:          in.Date,
		Venue:         in.Venue,
		City:          in.City,
		Rating:        in.Rating,
		Notes:         in.Notes,
		UserProfileID: userID,
	}
}
