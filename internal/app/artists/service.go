package artists

import (
	"context"
	"strings"

	"gigjournal/internal/apperr"
	"gigjournal/internal/models"
)

// Store defines the artist queries used by the service.
type Store interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetArtist(ctx context.Context, id string) (models.Artist, error)
	DeleteArtist(ctx context.Context, id string) error
}

// Service provides artist-centric operations.
type Service interface {
	List(ctx context.Context) ([]models.Artist, error)
	Get(ctx context.Context, id string) (models.Artist, error)
	FindOrCreate(ctx context.Context, name string) (Resolution, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	store    Store
	resolver *Resolver
}

// New constructs an artist Service.
func New(store Store, resolver *Resolver) Service {
	return &service{store: store, resolver: resolver}
}

func (s *service) List(ctx context.Context) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListArtists(ctx)
}

func (s *service) Get(ctx context.Context, id string) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Artist{}, apperr.Invalid("id", "artist id is required")
	}
	return s.store.GetArtist(ctx, id)
}

func (s *service) FindOrCreate(ctx context.Context, name string) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	return s.resolver.FindOrCreate(ctx, name)
}

// Delete removes an artist that no concert references.
func (s *service) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Invalid("id", "artist id is required")
	}
	return s.store.DeleteArtist(ctx, id)
}
